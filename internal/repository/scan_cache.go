package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"boxseek-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ScanResolution 是扫码解析的结果。
// Box 为 nil 表示二维码尚未绑定，前端应进入"登记新箱子"流程。
// WorkspaceID 记录二维码的归属工作区：缓存键不含工作区，
// 读取命中后必须用它做归属校验，跨工作区的扫码一律按不存在处理。
type ScanResolution struct {
	WorkspaceID string     `json:"workspaceId"`
	CodeID      string     `json:"codeId"`
	CodeShortID string     `json:"codeShortId"`
	Status      string     `json:"status"`
	Box         *model.Box `json:"box,omitempty"`
}

// ScanCache 定义了扫码解析结果的缓存操作。
// 扫码是高频只读路径，绑定、回收和箱子变更时显式失效。
type ScanCache interface {
	Get(ctx context.Context, shortID string) (*ScanResolution, error)
	Set(ctx context.Context, shortID string, res *ScanResolution) error
	Invalidate(ctx context.Context, shortID string) error
}

type redisScanCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewScanCache 创建一个基于 Redis 的 ScanCache 实例。
func NewScanCache(redisClient *redis.Client, ttl time.Duration) ScanCache {
	return &redisScanCache{redisClient: redisClient, ttl: ttl}
}

// getScanKey generates the redis key for a scan resolution entry.
func (c *redisScanCache) getScanKey(shortID string) string {
	return "scan:" + shortID
}

// Get 从 Redis 获取缓存的扫码解析结果，未命中时返回 (nil, nil)。
func (c *redisScanCache) Get(ctx context.Context, shortID string) (*ScanResolution, error) {
	jsonData, err := c.redisClient.Get(ctx, c.getScanKey(shortID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan resolution from redis: %w", err)
	}
	var res ScanResolution
	if err := json.Unmarshal([]byte(jsonData), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan resolution: %w", err)
	}
	return &res, nil
}

// Set 把扫码解析结果写入 Redis。
func (c *redisScanCache) Set(ctx context.Context, shortID string, res *ScanResolution) error {
	jsonData, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, c.getScanKey(shortID), jsonData, c.ttl).Err()
}

// Invalidate 删除指定二维码的缓存条目。
func (c *redisScanCache) Invalidate(ctx context.Context, shortID string) error {
	return c.redisClient.Del(ctx, c.getScanKey(shortID)).Err()
}
