package redis

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const taskKeyPrefix = "scm:agent_task:"

// ErrCacheMiss 表示缓存中没有对应的任务。
var ErrCacheMiss = errors.New("task not cached")

// TaskCache 缓存已结束的 agent 任务快照。运行中的任务不缓存，
// 因为它们在终态转换时还会变化。
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache 创建一个新的 TaskCache 实例。
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func taskKey(id string) string {
	return taskKeyPrefix + id
}

// Get 读取缓存的任务，未命中时返回 ErrCacheMiss。
func (c *TaskCache) Get(ctx context.Context, id string) (*models.AgentTask, error) {
	data, err := c.rdb.Get(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("读取任务缓存失败: %w", err)
	}
	var task models.AgentTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("解析任务缓存失败: %w", err)
	}
	return &task, nil
}

// Put 缓存一个已结束的任务，非终态任务会被忽略。
func (c *TaskCache) Put(ctx context.Context, task *models.AgentTask) error {
	if task == nil || !task.Status.Terminal() {
		return nil
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化任务失败: %w", err)
	}
	if err := c.rdb.Set(ctx, taskKey(task.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入任务缓存失败: %w", err)
	}
	return nil
}
