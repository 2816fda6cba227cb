// internal/pkg/auth/actor.go
package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	// RoleSystem 是支付回调、物流事件等内部调用方，权限等同管理员。
	RoleSystem Role = "system"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// Actor 是发起请求的主体。
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// System 返回内部调用使用的系统主体。
func System() Actor {
	return Actor{UserID: "system", Role: RoleSystem}
}

// IsPrivileged 报告主体是否拥有后台权限。
func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// RequireRole 是唯一的权限判断入口。admin 与 system 满足任何角色要求。
func RequireRole(actor Actor, role Role) error {
	if actor.UserID == "" {
		return ErrUnauthenticated
	}
	if actor.Role == role || actor.IsPrivileged() {
		return nil
	}
	return ErrForbidden
}

type actorKey struct{}

// WithActor 把主体放入 context。
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext 取出 context 中的主体。
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
