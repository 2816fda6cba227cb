// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"teahouse/internal/pkg/auth"
)

var ErrSessionNotFound = errors.New("session not found or expired")

const keyPrefix = "session:"

// Manager 在 Redis 中保存 token 与登录主体的映射。
type Manager struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewManager(rdb goredis.UniversalClient, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl}
}

// Create 为主体签发新 token。
func (m *Manager) Create(ctx context.Context, actor auth.Actor) (string, error) {
	if actor.UserID == "" || actor.Role == "" {
		return "", fmt.Errorf("session: actor must have user id and role")
	}
	payload, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := m.rdb.Set(ctx, keyPrefix+token, payload, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: store token: %w", err)
	}
	return token, nil
}

// Resolve 查找 token 对应的主体，并顺延过期时间。
func (m *Manager) Resolve(ctx context.Context, token string) (auth.Actor, error) {
	if token == "" {
		return auth.Actor{}, ErrSessionNotFound
	}
	payload, err := m.rdb.GetEx(ctx, keyPrefix+token, m.ttl).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return auth.Actor{}, ErrSessionNotFound
		}
		return auth.Actor{}, fmt.Errorf("session: load token: %w", err)
	}
	var actor auth.Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return auth.Actor{}, fmt.Errorf("session: decode token: %w", err)
	}
	return actor, nil
}

// Revoke 使 token 失效。
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.rdb.Del(ctx, keyPrefix+token).Err()
}
