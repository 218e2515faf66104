package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
)

// CreateTask 持久化一个新的 agent 任务。
func (s *Store) CreateTask(ctx context.Context, t *models.AgentTask) error {
	return s.db(ctx).Create(t).Error
}

// FinishTask 写入任务的终态字段。只有仍处于 running 的任务会被更新，
// 因此一个任务只会发生一次终态转换。
func (s *Store) FinishTask(ctx context.Context, t *models.AgentTask) error {
	res := s.db(ctx).Model(&models.AgentTask{}).
		Where("id = ? AND status = ?", t.ID, models.TaskStatusRunning).
		Updates(map[string]interface{}{
			"status":       t.Status,
			"result":       t.Result,
			"iterations":   t.Iterations,
			"tokens_used":  t.TokensUsed,
			"error":        t.Error,
			"completed_at": t.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTask 通过 ID 查找任务。
func (s *Store) GetTask(ctx context.Context, id string) (*models.AgentTask, error) {
	var t models.AgentTask
	if err := s.db(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTasks 按创建时间倒序返回最近的任务。
func (s *Store) ListTasks(ctx context.Context, limit int) ([]models.AgentTask, error) {
	var out []models.AgentTask
	q := s.db(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RecordToolExecution 记录一次工具调用。
func (s *Store) RecordToolExecution(ctx context.Context, e *models.ToolExecution) error {
	return s.db(ctx).Create(e).Error
}

// ListToolExecutions 返回某个任务的所有工具调用，按迭代和时间排序。
func (s *Store) ListToolExecutions(ctx context.Context, taskID string) ([]models.ToolExecution, error) {
	var out []models.ToolExecution
	err := s.db(ctx).Where("task_id = ?", taskID).Order("iteration ASC").Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
