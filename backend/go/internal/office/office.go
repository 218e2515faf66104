// Package office 生成审计报告、风险登记册、政策文档和管理层摘要等 Office 文件。
package office

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/unidoc/unioffice/v2/common/license"
)

// Generator 生成各类文档并返回写入的文件路径。
type Generator interface {
	AuditReportDocx(audit *models.Audit) (string, error)
	AuditFindingsXlsx(audit *models.Audit) (string, error)
	RiskRegisterXlsx(risks []models.Risk) (string, error)
	PolicyDocx(policy *models.Policy) (string, error)
	ExecutiveSummaryPptx(audits []models.Audit, risks []models.Risk) (string, error)
}

// FileGenerator 将文档写入 OutputDir。
type FileGenerator struct {
	OutputDir string
}

// NewFileGenerator 创建一个新的 FileGenerator 实例。
func NewFileGenerator(outputDir string) *FileGenerator {
	return &FileGenerator{OutputDir: outputDir}
}

var (
	licenseOnce sync.Once
	licenseErr  error
)

// SetLicense 设置 unioffice 的计量许可证，只在第一次调用时生效。
// 未设置许可证时 Word 和 PowerPoint 文档无法保存。
func SetLicense(key string) error {
	if key == "" {
		return nil
	}
	licenseOnce.Do(func() {
		if err := license.SetMeteredKey(key); err != nil {
			licenseErr = fmt.Errorf("设置 unioffice 许可证失败: %w", err)
		}
	})
	return licenseErr
}

func (g *FileGenerator) path(name string) (string, error) {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	return filepath.Join(g.OutputDir, name), nil
}

// SortedFindings 按严重级别从高到低返回发现的副本，同级保持原顺序。
func SortedFindings(findings []models.AuditFinding) []models.AuditFinding {
	out := make([]models.AuditFinding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
