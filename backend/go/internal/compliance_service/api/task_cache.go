package api

import (
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/util"
	"context"
	"errors"
	"time"
)

var errTaskNotCached = errors.New("task not cached")

// MemoryTaskCache 是未配置 Redis 时使用的进程内任务缓存。
type MemoryTaskCache struct {
	lru *util.LRUCache[string, models.AgentTask]
}

// NewMemoryTaskCache 创建最多保存 capacity 个任务的缓存。
func NewMemoryTaskCache(capacity int, ttl time.Duration) (*MemoryTaskCache, error) {
	lru, err := util.NewWithConfig(util.CacheConfig[string, models.AgentTask]{Capacity: capacity, TTL: ttl})
	if err != nil {
		return nil, err
	}
	return &MemoryTaskCache{lru: lru}, nil
}

// Get 返回缓存任务的副本。
func (c *MemoryTaskCache) Get(_ context.Context, id string) (*models.AgentTask, error) {
	task, ok := c.lru.Get(id)
	if !ok {
		return nil, errTaskNotCached
	}
	return &task, nil
}

// Put 只缓存终态任务。
func (c *MemoryTaskCache) Put(_ context.Context, task *models.AgentTask) error {
	if task == nil || !task.Status.Terminal() {
		return nil
	}
	c.lru.Put(task.ID, *task)
	return nil
}
