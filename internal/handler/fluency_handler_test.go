package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lingua/internal/fluency"
	"github.com/hitoshi/lingua/internal/middleware"
	"github.com/hitoshi/lingua/internal/model"
)

// mockFluencyService はテスト用の習熟度サービスモック。
type mockFluencyService struct {
	getStateFn   func(ctx context.Context, userID string) (*model.UserFluencyState, error)
	transitionFn func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error)
	getHistoryFn func(ctx context.Context, userID string) ([]*model.HistoryEntry, error)
}

func (m *mockFluencyService) GetState(ctx context.Context, userID string) (*model.UserFluencyState, error) {
	return m.getStateFn(ctx, userID)
}

func (m *mockFluencyService) Transition(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
	return m.transitionFn(ctx, actorID, actorPrivileged, targetUserID, requestedCode, reason)
}

func (m *mockFluencyService) GetHistory(ctx context.Context, userID string) ([]*model.HistoryEntry, error) {
	return m.getHistoryFn(ctx, userID)
}

func newFluencyTestRouter(service FluencyServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewFluencyHandler(service)
	r.Get("/api/fluency/history/{userId}", h.GetHistory)
	r.Get("/api/fluency/{userId}", h.GetState)
	r.Patch("/api/fluency/{userId}", h.Transition)
	return r
}

func adminContext(req *http.Request) *http.Request {
	ctx := middleware.ContextWithActor(req.Context(), &middleware.Actor{
		ID:         "admin-1",
		Name:       "管理者",
		Privileged: true,
	})
	return req.WithContext(ctx)
}

func TestFluencyHandler_GetState(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	service := &mockFluencyService{
		getStateFn: func(ctx context.Context, userID string) (*model.UserFluencyState, error) {
			if userID != "user-1" {
				return nil, model.NewUserNotFoundError(userID)
			}
			return &model.UserFluencyState{
				UserID:         "user-1",
				Level:          model.LevelB1,
				LevelUpdatedAt: at,
				LevelUpdatedBy: "admin-1",
			}, nil
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/fluency/user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body fluencyStateResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.UserID != "user-1" {
		t.Errorf("userId = %q, want user-1", body.UserID)
	}
	if body.Level != "B1" {
		t.Errorf("level = %q, want B1", body.Level)
	}
	if body.Metadata.Name != "中級" {
		t.Errorf("metadata.name = %q, want 中級", body.Metadata.Name)
	}
	if body.Metadata.Code != "B1" {
		t.Errorf("metadata.code = %q, want B1", body.Metadata.Code)
	}
}

func TestFluencyHandler_GetState_UserNotFound(t *testing.T) {
	service := &mockFluencyService{
		getStateFn: func(ctx context.Context, userID string) (*model.UserFluencyState, error) {
			return nil, model.NewUserNotFoundError(userID)
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/fluency/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

func TestFluencyHandler_Transition_Success(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	prev := model.LevelA1

	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			if actorID != "admin-1" || !actorPrivileged {
				t.Errorf("actor = (%s, %v), want (admin-1, true)", actorID, actorPrivileged)
			}
			if requestedCode != "A2" {
				t.Errorf("requestedCode = %q, want A2", requestedCode)
			}
			if reason != "試験合格" {
				t.Errorf("reason = %q, want 試験合格", reason)
			}
			return &fluency.TransitionResult{
				State: &model.UserFluencyState{
					UserID:         targetUserID,
					Level:          model.LevelA2,
					LevelUpdatedAt: at,
					LevelUpdatedBy: actorID,
				},
				PreviousLevel: prev,
				Direction:     fluency.DirectionUpgrade,
				Certificate: &model.Certificate{
					ID:                "cert-1",
					UserID:            targetUserID,
					UserName:          "山田太郎",
					Level:             model.LevelA2,
					IssuedAt:          at,
					IssuedBy:          actorID,
					CertificateNumber: "DLA-2026-A2-000001",
				},
				CertificateStatus: fluency.CertificateIssued,
			}, nil
		},
	}

	router := newFluencyTestRouter(service)

	reqBody := bytes.NewBufferString(`{"newLevel":"A2","reason":"試験合格"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", reqBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body transitionResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.PreviousLevel != "A1" || body.NewLevel != "A2" {
		t.Errorf("levels = %s -> %s, want A1 -> A2", body.PreviousLevel, body.NewLevel)
	}
	if body.Certificate == nil {
		t.Fatal("certificate is nil, want issued certificate")
	}
	if body.Certificate.CertificateNumber != "DLA-2026-A2-000001" {
		t.Errorf("certificateNumber = %q, want DLA-2026-A2-000001", body.Certificate.CertificateNumber)
	}
	if body.CertificateStatus != string(fluency.CertificateIssued) {
		t.Errorf("certificateStatus = %q, want %q", body.CertificateStatus, fluency.CertificateIssued)
	}
}

func TestFluencyHandler_Transition_DowngradeHasNullCertificate(t *testing.T) {
	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			prev := model.LevelB1
			return &fluency.TransitionResult{
				State: &model.UserFluencyState{
					UserID:         targetUserID,
					Level:          model.LevelA2,
					LevelUpdatedAt: time.Now().UTC(),
					LevelUpdatedBy: actorID,
				},
				PreviousLevel:     prev,
				Direction:         fluency.DirectionDowngrade,
				CertificateStatus: fluency.CertificateNotApplicable,
			}, nil
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", bytes.NewBufferString(`{"newLevel":"A2"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	// certificateフィールドは明示的にnullで返る
	var raw map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	cert, ok := raw["certificate"]
	if !ok {
		t.Fatal("expected 'certificate' field in response")
	}
	if cert != nil {
		t.Errorf("certificate = %v, want null", cert)
	}
	if raw["certificateStatus"] != string(fluency.CertificateNotApplicable) {
		t.Errorf("certificateStatus = %v, want %q", raw["certificateStatus"], fluency.CertificateNotApplicable)
	}
}

func TestFluencyHandler_Transition_SkippedLevel(t *testing.T) {
	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			return nil, model.NewSkippedLevelError(model.LevelA1, model.LevelB1)
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", bytes.NewBufferString(`{"newLevel":"B1"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeSkippedLevel {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeSkippedLevel)
	}
}

func TestFluencyHandler_Transition_Forbidden(t *testing.T) {
	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			return nil, model.NewForbiddenError()
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", bytes.NewBufferString(`{"newLevel":"A2"}`))
	ctx := middleware.ContextWithActor(req.Context(), &middleware.Actor{ID: "user-2", Privileged: false})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestFluencyHandler_Transition_NoActor_Returns401(t *testing.T) {
	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			t.Fatal("service should not be called without actor")
			return nil, nil
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", bytes.NewBufferString(`{"newLevel":"A2"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestFluencyHandler_Transition_InvalidBody(t *testing.T) {
	service := &mockFluencyService{
		transitionFn: func(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error) {
			t.Fatal("service should not be called with invalid body")
			return nil, nil
		},
	}

	router := newFluencyTestRouter(service)

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{invalid`},
		{"missing newLevel", `{"reason":"x"}`},
		{"empty newLevel", `{"newLevel":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/fluency/user-1", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, adminContext(req))

			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestFluencyHandler_GetHistory(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	prev := model.LevelA1

	service := &mockFluencyService{
		getHistoryFn: func(ctx context.Context, userID string) ([]*model.HistoryEntry, error) {
			// 新しい順
			return []*model.HistoryEntry{
				{
					ID:            "h2",
					UserID:        userID,
					PreviousLevel: &prev,
					NewLevel:      model.LevelA2,
					ChangedAt:     at.Add(time.Hour),
					ChangedBy:     "admin-1",
					Reason:        "試験合格",
				},
				{
					ID:        "h1",
					UserID:    userID,
					NewLevel:  model.LevelA1,
					ChangedAt: at,
					ChangedBy: model.SystemActor,
				},
			}, nil
		},
	}

	router := newFluencyTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/fluency/history/user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminContext(req))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body historyResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.UserID != "user-1" {
		t.Errorf("userId = %q, want user-1", body.UserID)
	}
	if len(body.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(body.History))
	}
	if body.History[0].PreviousLevel == nil || *body.History[0].PreviousLevel != "A1" {
		t.Errorf("head previousLevel = %v, want A1", body.History[0].PreviousLevel)
	}
	// 最初のエントリのpreviousLevelはnull
	if body.History[1].PreviousLevel != nil {
		t.Errorf("initial previousLevel = %v, want null", *body.History[1].PreviousLevel)
	}
	if body.History[1].ChangedBy != model.SystemActor {
		t.Errorf("initial changedBy = %q, want %q", body.History[1].ChangedBy, model.SystemActor)
	}
}
