// Package auth はBearerトークンの解決とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// SessionMaxAge はセッション有効期間（秒）。
	SessionMaxAge int
}

// Service はBearerトークンからユーザーを解決する。
type Service struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(sessions repository.SessionRepository, users repository.UserRepository, config ServiceConfig) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		config:   config,
	}
}

// ResolveToken はBearerトークンを検証し、対応するユーザーを返す。
// トークンが無効・期限切れ・ユーザー不在の場合はnilを返す。
// ストア障害のみをエラーとして返す。
func (s *Service) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateSession は指定ユーザーのセッションを作成し永続化する。
func (s *Service) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("セッションを発行しました", slog.String("user_id", userID))
	return session, nil
}

// generateToken は暗号的に安全なセッショントークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
