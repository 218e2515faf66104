package service

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// 政策内容的格式。
const (
	ContentMarkdown = "markdown"
	ContentHTML     = "html"
)

// InitialChangeSummary 是第一个版本的变更说明。
const InitialChangeSummary = "Initial draft"

// PolicyInput 是创建政策的参数。
type PolicyInput struct {
	Title         string
	FrameworkID   *string
	Category      string
	Content       string
	ContentFormat string
}

// NormalizeContent 将 HTML 内容转换为 Markdown，其他格式原样返回。
func NormalizeContent(content, format string) (string, error) {
	if !strings.EqualFold(format, ContentHTML) {
		return content, nil
	}
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("%w: 转换 HTML 内容失败: %v", ErrInvalidArgument, err)
	}
	return md, nil
}

// CreatePolicy 创建政策草稿及其第一个版本。
func (s *Service) CreatePolicy(ctx context.Context, in PolicyInput) (*models.Policy, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: policy title is required", ErrInvalidArgument)
	}
	content, err := NormalizeContent(in.Content, in.ContentFormat)
	if err != nil {
		return nil, err
	}
	if in.FrameworkID != nil && *in.FrameworkID == "" {
		in.FrameworkID = nil
	}
	p := &models.Policy{
		Title:       in.Title,
		FrameworkID: in.FrameworkID,
		Category:    in.Category,
		Status:      models.PolicyDraft,
	}
	v := &models.PolicyVersion{Content: content, ChangeSummary: InitialChangeSummary}
	if err := s.store.CreatePolicy(ctx, p, v); err != nil {
		return nil, fmt.Errorf("创建政策失败: %w", err)
	}
	return p, nil
}

// AddPolicyVersion 为政策新增一个版本。
func (s *Service) AddPolicyVersion(ctx context.Context, policyID, content, format, summary string) (*models.PolicyVersion, error) {
	content, err := NormalizeContent(content, format)
	if err != nil {
		return nil, err
	}
	v := &models.PolicyVersion{Content: content, ChangeSummary: summary}
	if err := s.store.AddVersion(ctx, policyID, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ApprovePolicy 将政策状态设为 approved。
func (s *Service) ApprovePolicy(ctx context.Context, id string) (*models.Policy, error) {
	if err := s.store.SetPolicyStatus(ctx, id, models.PolicyApproved); err != nil {
		return nil, err
	}
	return s.store.GetPolicy(ctx, id)
}

// DistributePolicy 为每个接收者登记一条分发记录，并在配置了发布者时发送分发请求。
func (s *Service) DistributePolicy(ctx context.Context, id string, channel models.DistributionChannel, recipients []string) ([]models.PolicyDistribution, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: unknown channel '%s'", ErrInvalidArgument, channel)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidArgument)
	}
	p, err := s.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}

	ds := make([]models.PolicyDistribution, 0, len(recipients))
	for _, r := range recipients {
		ds = append(ds, models.PolicyDistribution{PolicyID: id, Channel: channel, Recipient: r})
	}
	if err := s.store.CreateDistributions(ctx, ds); err != nil {
		return nil, fmt.Errorf("登记分发记录失败: %w", err)
	}

	if s.publisher != nil {
		now := time.Now().UTC()
		reqs := make([]models.DistributionRequest, 0, len(ds))
		for _, d := range ds {
			reqs = append(reqs, models.DistributionRequest{
				DistributionID: d.ID,
				PolicyID:       p.ID,
				PolicyTitle:    p.Title,
				Version:        p.CurrentVersion,
				Channel:        d.Channel,
				Recipient:      d.Recipient,
				RequestedAt:    now,
			})
		}
		if err := s.publisher.PublishDistributions(ctx, reqs); err != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).Warn("Failed to publish policy distributions")
		}
	}
	return ds, nil
}

// ListPolicies 按更新时间倒序返回政策。
func (s *Service) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	return s.store.ListPolicies(ctx)
}

// GetPolicy 返回政策及其版本。
func (s *Service) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	return s.store.GetPolicy(ctx, id)
}
