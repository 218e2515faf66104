package service

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"fmt"
	"time"
)

// RiskInput 是创建风险的参数。
type RiskInput struct {
	Title       string
	Description string
	Category    string
	Likelihood  int
	Impact      int
	Owner       string
}

// RiskUpdate 是重新评估风险的参数，Status 为空时保持不变。
type RiskUpdate struct {
	Likelihood int
	Impact     int
	Status     string
}

// MitigationInput 是添加缓解措施的参数。
type MitigationInput struct {
	Action     string
	AssignedTo string
	DueDate    *time.Time
}

// RiskMatrix 是 5×5 的风险矩阵，下标为 [impact-1][likelihood-1]。
type RiskMatrix [models.RiskScaleMax][models.RiskScaleMax][]models.Risk

func checkScale(name string, v int) error {
	if v < models.RiskScaleMin || v > models.RiskScaleMax {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidArgument, name, models.RiskScaleMin, models.RiskScaleMax, v)
	}
	return nil
}

// CreateRisk 登记一条风险，分值 = 可能性 × 影响。
func (s *Service) CreateRisk(ctx context.Context, in RiskInput) (*models.Risk, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: risk title is required", ErrInvalidArgument)
	}
	if err := checkScale("likelihood", in.Likelihood); err != nil {
		return nil, err
	}
	if err := checkScale("impact", in.Impact); err != nil {
		return nil, err
	}
	r := &models.Risk{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Likelihood:  in.Likelihood,
		Impact:      in.Impact,
		Owner:       in.Owner,
	}
	if err := s.store.CreateRisk(ctx, r); err != nil {
		return nil, fmt.Errorf("创建风险失败: %w", err)
	}
	return r, nil
}

// UpdateRisk 重新评估风险并重新计算分值。
func (s *Service) UpdateRisk(ctx context.Context, id string, in RiskUpdate) (*models.Risk, error) {
	if err := checkScale("likelihood", in.Likelihood); err != nil {
		return nil, err
	}
	if err := checkScale("impact", in.Impact); err != nil {
		return nil, err
	}
	r, err := s.store.GetRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Likelihood = in.Likelihood
	r.Impact = in.Impact
	if in.Status != "" {
		r.Status = in.Status
	}
	if err := s.store.SaveRisk(ctx, r); err != nil {
		return nil, fmt.Errorf("更新风险失败: %w", err)
	}
	return s.store.GetRisk(ctx, id)
}

// AddMitigation 为风险添加缓解措施。
func (s *Service) AddMitigation(ctx context.Context, riskID string, in MitigationInput) (*models.RiskMitigation, error) {
	if in.Action == "" {
		return nil, fmt.Errorf("%w: mitigation action is required", ErrInvalidArgument)
	}
	m := &models.RiskMitigation{
		RiskID:     riskID,
		Action:     in.Action,
		AssignedTo: in.AssignedTo,
		DueDate:    in.DueDate,
	}
	if err := s.store.AddMitigation(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListRisks 按分值倒序返回风险。
func (s *Service) ListRisks(ctx context.Context) ([]models.Risk, error) {
	return s.store.ListRisks(ctx)
}

// GetRisk 返回风险及其缓解措施。
func (s *Service) GetRisk(ctx context.Context, id string) (*models.Risk, error) {
	return s.store.GetRisk(ctx, id)
}

// BuildRiskMatrix 将风险放入矩阵，超出范围的取值被截断到 1-5。
func BuildRiskMatrix(risks []models.Risk) RiskMatrix {
	var m RiskMatrix
	for _, r := range risks {
		li := clamp(r.Likelihood-1, 0, models.RiskScaleMax-1)
		im := clamp(r.Impact-1, 0, models.RiskScaleMax-1)
		m[im][li] = append(m[im][li], r)
	}
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetRiskMatrix 返回当前所有风险的矩阵。
func (s *Service) GetRiskMatrix(ctx context.Context) (RiskMatrix, error) {
	risks, err := s.store.ListRisks(ctx)
	if err != nil {
		return RiskMatrix{}, err
	}
	return BuildRiskMatrix(risks), nil
}
