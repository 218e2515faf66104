package agent

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"context"
	"fmt"
	"strings"
)

const (
	// EmptySnapshot 是没有任何数据时的快照内容。
	EmptySnapshot = "No existing data."
	// snapshotLimit 是每类记录最多列出的条数，标题中的数量仍是总数。
	snapshotLimit = 5
)

// BuildSnapshot 生成当前系统状态的文本摘要，每次调用开始时构建一次。
// 空的分类整段省略；四类都为空时返回 EmptySnapshot。
func BuildSnapshot(ctx context.Context, st *store.Store) (string, error) {
	var parts []string

	frameworks, err := st.ListFrameworks(ctx)
	if err != nil {
		return "", fmt.Errorf("list frameworks: %w", err)
	}
	if len(frameworks) > 0 {
		parts = append(parts, "Available Compliance Frameworks:")
		for _, fw := range frameworks {
			parts = append(parts, fmt.Sprintf("  - %s (v%s, id=%s)", fw.Name, fw.Version, fw.ID))
		}
	}

	audits, err := st.ListAudits(ctx)
	if err != nil {
		return "", fmt.Errorf("list audits: %w", err)
	}
	if len(audits) > 0 {
		parts = append(parts, fmt.Sprintf("\nRecent Audits (%d):", len(audits)))
		for i := 0; i < len(audits) && i < snapshotLimit; i++ {
			a := audits[i]
			parts = append(parts, fmt.Sprintf("  - [%s] %s (id=%s)", a.Status, a.Title, a.ID))
		}
	}

	risks, err := st.ListRisks(ctx)
	if err != nil {
		return "", fmt.Errorf("list risks: %w", err)
	}
	if len(risks) > 0 {
		parts = append(parts, fmt.Sprintf("\nCurrent Risks (%d):", len(risks)))
		for i := 0; i < len(risks) && i < snapshotLimit; i++ {
			r := risks[i]
			parts = append(parts, fmt.Sprintf("  - [Score: %d] %s (id=%s)", r.Score, r.Title, r.ID))
		}
	}

	policies, err := st.ListPolicies(ctx)
	if err != nil {
		return "", fmt.Errorf("list policies: %w", err)
	}
	if len(policies) > 0 {
		parts = append(parts, fmt.Sprintf("\nPolicies (%d):", len(policies)))
		for i := 0; i < len(policies) && i < snapshotLimit; i++ {
			p := policies[i]
			parts = append(parts, fmt.Sprintf("  - [%s] %s (id=%s)", p.Status, p.Title, p.ID))
		}
	}

	if len(parts) == 0 {
		return EmptySnapshot, nil
	}
	return strings.Join(parts, "\n"), nil
}
