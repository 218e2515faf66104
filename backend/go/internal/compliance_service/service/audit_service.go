package service

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
)

// DefaultAuditTitle 是未提供标题时的审计标题。
const DefaultAuditTitle = "Compliance Audit"

// AuditInput 是创建审计的参数。
type AuditInput struct {
	Title       string
	FrameworkID string
	Scope       string
}

// FindingInput 是记录发现的参数，Severity 为空时使用 medium。
type FindingInput struct {
	AuditID        string
	ControlID      string
	Title          string
	Description    string
	Severity       models.Severity
	Recommendation string
}

// CreateAudit 针对一个已存在的框架创建审计。
func (s *Service) CreateAudit(ctx context.Context, in AuditInput) (*models.Audit, error) {
	if _, err := s.store.GetFramework(ctx, in.FrameworkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("framework '%s' not found: %w", in.FrameworkID, err)
		}
		return nil, err
	}
	audit := &models.Audit{
		Title:       in.Title,
		FrameworkID: in.FrameworkID,
		Scope:       in.Scope,
		Status:      models.AuditPending,
	}
	if audit.Title == "" {
		audit.Title = DefaultAuditTitle
	}
	if err := s.store.CreateAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("创建审计失败: %w", err)
	}
	return audit, nil
}

// AddFinding 记录一条审计发现。
func (s *Service) AddFinding(ctx context.Context, in FindingInput) (*models.AuditFinding, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: finding title is required", ErrInvalidArgument)
	}
	if in.Severity == "" {
		in.Severity = models.SeverityMedium
	}
	if !in.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity '%s'", ErrInvalidArgument, in.Severity)
	}
	f := &models.AuditFinding{
		AuditID:        in.AuditID,
		ControlID:      in.ControlID,
		Title:          in.Title,
		Description:    in.Description,
		Severity:       in.Severity,
		Recommendation: in.Recommendation,
	}
	if err := s.store.AddFinding(ctx, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("audit '%s' not found: %w", in.AuditID, err)
		}
		return nil, err
	}
	return f, nil
}

// CompleteAudit 完成审计并记录总结。
func (s *Service) CompleteAudit(ctx context.Context, id, summary string) (*models.Audit, error) {
	return s.store.CompleteAudit(ctx, id, summary)
}

// ListAudits 按创建时间倒序返回审计。
func (s *Service) ListAudits(ctx context.Context) ([]models.Audit, error) {
	return s.store.ListAudits(ctx)
}

// GetAudit 返回审计及其发现。
func (s *Service) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	return s.store.GetAudit(ctx, id)
}
