package service

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
)

// DocumentRequest 是生成文档的参数。
type DocumentRequest struct {
	DocType  models.DocType
	Format   models.DocFormat
	SourceID string
	Title    string
}

// DefaultTitle 返回未提供标题时的报告标题。
func (r DocumentRequest) DefaultTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return string(r.DocType) + " document"
}

func (r DocumentRequest) unsupported() error {
	return fmt.Errorf("%w: Could not generate %s in %s format", ErrUnsupportedDocument, r.DocType, r.Format)
}

// render 根据类型与格式选择生成器。来源不存在或组合不受支持时返回空路径。
func (s *Service) render(ctx context.Context, req DocumentRequest) (string, error) {
	lookupMissing := func(err error) (string, error) {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	switch {
	case req.DocType == models.DocAuditReport && req.Format == models.FormatDocx && req.SourceID != "":
		audit, err := s.store.GetAudit(ctx, req.SourceID)
		if err != nil {
			return lookupMissing(err)
		}
		return s.generator.AuditReportDocx(audit)
	case req.DocType == models.DocAuditReport && req.Format == models.FormatXlsx && req.SourceID != "":
		audit, err := s.store.GetAudit(ctx, req.SourceID)
		if err != nil {
			return lookupMissing(err)
		}
		return s.generator.AuditFindingsXlsx(audit)
	case req.DocType == models.DocRiskRegister && req.Format == models.FormatXlsx:
		risks, err := s.store.ListRisks(ctx)
		if err != nil {
			return "", err
		}
		return s.generator.RiskRegisterXlsx(risks)
	case req.DocType == models.DocPolicyDocument && req.Format == models.FormatDocx && req.SourceID != "":
		policy, err := s.store.GetPolicy(ctx, req.SourceID)
		if err != nil {
			return lookupMissing(err)
		}
		return s.generator.PolicyDocx(policy)
	case req.DocType == models.DocExecutiveSummary && req.Format == models.FormatPptx:
		audits, err := s.store.ListAudits(ctx)
		if err != nil {
			return "", err
		}
		risks, err := s.store.ListRisks(ctx)
		if err != nil {
			return "", err
		}
		return s.generator.ExecutiveSummaryPptx(audits, risks)
	}
	return "", nil
}

// GenerateDocument 生成文档，只有在文件确实写出后才登记报告记录。
// 不受支持的组合或缺失的来源返回 ErrUnsupportedDocument。
func (s *Service) GenerateDocument(ctx context.Context, req DocumentRequest) (*models.Report, error) {
	path, err := s.render(ctx, req)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, req.unsupported()
	}

	report := &models.Report{
		Title:      req.DefaultTitle(),
		ReportType: req.DocType,
		Format:     req.Format,
		FilePath:   path,
		SourceID:   req.SourceID,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("登记报告失败: %w", err)
	}

	if s.archive != nil {
		object, err := s.archive.Archive(ctx, path, req.Format.ContentType())
		if err != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "minio_error"}).Warn("Failed to archive report")
		} else {
			s.log.WithPayload(map[string]interface{}{"report_id": report.ID, "object": object}).Info("Report archived")
		}
	}
	return report, nil
}

// ListReports 按创建时间倒序返回报告。
func (s *Service) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.store.ListReports(ctx)
}

// GetReport 返回一个报告。
func (s *Service) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return s.store.GetReport(ctx, id)
}
