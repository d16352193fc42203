package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lingua/internal/model"
)

// mockTokenResolver はテスト用のトークンリゾルバー。
type mockTokenResolver struct {
	resolveFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockTokenResolver) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	return m.resolveFn(ctx, token)
}

func adminResolver(token, userID string) *mockTokenResolver {
	return &mockTokenResolver{
		resolveFn: func(ctx context.Context, got string) (*model.User, error) {
			if got == token {
				return &model.User{ID: userID, Name: "管理者", Role: model.RoleAdmin}, nil
			}
			return nil, nil
		},
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	mw := NewAuthMiddleware(adminResolver("valid-token", "user-1"))

	var captured *Actor
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		if err != nil {
			t.Errorf("ActorFromContext returned error: %v", err)
		}
		captured = actor
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil {
		t.Fatal("actor was not injected into context")
	}
	if captured.ID != "user-1" {
		t.Errorf("actor ID = %s, want user-1", captured.ID)
	}
	if !captured.Privileged {
		t.Error("admin actor should be privileged")
	}
}

func TestAuthMiddleware_LearnerIsNotPrivileged(t *testing.T) {
	resolver := &mockTokenResolver{
		resolveFn: func(ctx context.Context, token string) (*model.User, error) {
			return &model.User{ID: "user-2", Name: "学習者", Role: model.RoleLearner}, nil
		},
	}
	mw := NewAuthMiddleware(resolver)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		if actor.Privileged {
			t.Error("learner actor should not be privileged")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	mw := NewAuthMiddleware(adminResolver("valid-token", "user-1"))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called without token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %s, want %s", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	mw := NewAuthMiddleware(adminResolver("valid-token", "user-1"))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called with malformed header")
	}))

	for _, header := range []string{"valid-token", "Basic dXNlcjpwYXNz", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestAuthMiddleware_UnknownToken(t *testing.T) {
	mw := NewAuthMiddleware(adminResolver("valid-token", "user-1"))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called with unknown token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer expired-or-unknown")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ResolverError(t *testing.T) {
	resolver := &mockTokenResolver{
		resolveFn: func(ctx context.Context, token string) (*model.User, error) {
			return nil, errors.New("store unavailable")
		},
	}
	mw := NewAuthMiddleware(resolver)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called on resolver error")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

func TestActorFromContext_NotSet(t *testing.T) {
	_, err := ActorFromContext(context.Background())
	if err == nil {
		t.Error("expected error for context without actor")
	}
}
