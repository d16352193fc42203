// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/lingua/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// actorContextKey はリクエストコンテキストに認証済みアクターを格納するためのキー。
var actorContextKey = contextKey("actor")

// Actor は認証済みリクエストの実行主体を表す。
type Actor struct {
	ID         string
	Name       string
	Privileged bool
}

// TokenResolver はBearerトークンからユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// ミドルウェアを返す。認証済みアクターをリクエストコンテキストに注入し、
// 未認証リクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(resolver TokenResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				slog.Error("トークンの解決に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			actor := &Actor{
				ID:         user.ID,
				Name:       user.Name,
				Privileged: user.Role.Privileged(),
			}
			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// 形式が不正な場合は空文字を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ActorFromContext はリクエストコンテキストから認証済みアクターを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ActorFromContext(ctx context.Context) (*Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok || actor == nil {
		return nil, fmt.Errorf("actor not found in context")
	}
	return actor, nil
}

// ContextWithActor はコンテキストにアクターを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
