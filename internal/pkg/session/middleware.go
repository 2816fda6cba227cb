package session

import (
	"context"
	"net/http"
	"strings"

	"teahouse/internal/pkg/auth"
	"teahouse/internal/pkg/logger"
)

// CookieName 是浏览器端保存 session token 的 cookie。
const CookieName = "teashop_session"

// TokenFromRequest 依次从 Authorization Bearer 头和 cookie 中读取 token。
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Resolver 把 token 解析为登录主体。
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Actor, error)
}

// Middleware 解析请求中的 session，并把主体显式放入 request context。
// 没有 token 或 token 失效的请求以匿名身份继续，由各 handler 决定是否拒绝。
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Ctx(r.Context()).Debug().Err(err).Msg("session not resolved")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}
