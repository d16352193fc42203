package auth

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
)

func newTestService(t *testing.T) (*Service, *repository.KVUserRepo) {
	t.Helper()
	store := kv.NewMemoryStore()
	users := repository.NewKVUserRepo(store)
	sessions := repository.NewKVSessionRepo(store)
	return NewService(sessions, users, ServiceConfig{SessionMaxAge: 3600}), users
}

func TestService_ResolveToken(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	err := users.Create(ctx, &model.User{
		ID:        "user-1",
		Name:      "山田太郎",
		Role:      model.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	session, err := svc.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.Token == "" {
		t.Fatal("session token is empty")
	}

	user, err := svc.ResolveToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if user == nil {
		t.Fatal("user is nil, want resolved user")
	}
	if user.ID != "user-1" {
		t.Errorf("user ID = %s, want user-1", user.ID)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("role = %s, want %s", user.Role, model.RoleAdmin)
	}
}

func TestService_ResolveToken_Unknown(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.ResolveToken(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestService_ResolveToken_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.ResolveToken(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

// セッションは残っているがユーザーが削除済みの場合もnilを返す。
func TestService_ResolveToken_UserMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "ghost-user")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	user, err := svc.ResolveToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}
