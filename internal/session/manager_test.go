package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/markiiman/ecommerce-app/internal/credential"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/repository"
)

// --- モック定義 ---

// memSessionRepo はテスト用のインメモリセッションリポジトリ。
type memSessionRepo struct {
	sessions map[string]*model.Session
	users    map[string]*model.User

	findErr   error
	createErr error
	updateErr error
	deleteErr error

	updates int
	deletes int
}

func newMemSessionRepo(users ...*model.User) *memSessionRepo {
	r := &memSessionRepo{
		sessions: make(map[string]*model.Session),
		users:    make(map[string]*model.User),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) FindByIDWithUser(_ context.Context, id string) (*model.Session, *model.User, error) {
	if r.findErr != nil {
		return nil, nil, r.findErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil, nil
	}
	u, ok := r.users[s.UserID]
	if !ok {
		return nil, nil, nil
	}
	cs := *s
	cu := *u
	return &cs, &cu, nil
}

func (r *memSessionRepo) UpdateExpiresAt(_ context.Context, id string, expiresAt time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	if s, ok := r.sessions[id]; ok {
		s.ExpiresAt = expiresAt
	}
	return nil
}

func (r *memSessionRepo) DeleteByID(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletes++
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

var _ repository.SessionRepository = (*memSessionRepo)(nil)

type countingRecorder struct {
	created, renewed, expired, invalidated int
}

func (c *countingRecorder) RecordSessionCreated()     { c.created++ }
func (c *countingRecorder) RecordSessionRenewed()     { c.renewed++ }
func (c *countingRecorder) RecordSessionExpired()     { c.expired++ }
func (c *countingRecorder) RecordSessionInvalidated() { c.invalidated++ }

// --- ヘルパー ---

var day = 24 * time.Hour

func testUser() *model.User {
	return &model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: credential.DigestString("password"),
	}
}

func newTestManager(repo *memSessionRepo, now time.Time) (*Manager, *countingRecorder) {
	rec := &countingRecorder{}
	m := NewManager(repo, DefaultConfig(), rec)
	m.now = func() time.Time { return now }
	return m, rec
}

// --- GenerateToken ---

func TestGenerateToken_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z2-7]{32}$`)

	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !pattern.MatchString(token) {
		t.Errorf("token %q does not match %s", token, pattern)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		if _, ok := seen[token]; ok {
			t.Fatalf("duplicate token generated: %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestSessionID_IsDigestOfToken(t *testing.T) {
	token := "abcdefghijklmnopqrstuvwxyz234567"
	got := SessionID(token)
	if got != credential.DigestString(token) {
		t.Errorf("SessionID() = %q, want digest of token", got)
	}
	if got == token {
		t.Error("SessionID must not equal the raw token")
	}
}

// --- CreateSession ---

func TestCreateSession_StoresDigestAndExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, rec := newTestManager(repo, now)

	token := "tokentokentokentokentokentoken22"
	sess, err := m.CreateSession(context.Background(), token, "user-1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if sess.ID != credential.DigestString(token) {
		t.Errorf("session ID = %q, want digest of token", sess.ID)
	}
	if sess.UserID != "user-1" {
		t.Errorf("session userID = %q, want %q", sess.UserID, "user-1")
	}
	if want := now.Add(30 * day); !sess.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	if _, ok := repo.sessions[sess.ID]; !ok {
		t.Error("session should be persisted")
	}
	if _, ok := repo.sessions[token]; ok {
		t.Error("raw token must not be used as a key")
	}
	if rec.created != 1 {
		t.Errorf("created metric = %d, want 1", rec.created)
	}
}

func TestCreateSession_StoreError_Propagates(t *testing.T) {
	repo := newMemSessionRepo()
	storeErr := errors.New("db down")
	repo.createErr = storeErr
	m, rec := newTestManager(repo, time.Now())

	_, err := m.CreateSession(context.Background(), "token", "user-1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("CreateSession() error = %v, want wrapped %v", err, storeErr)
	}
	if rec.created != 0 {
		t.Errorf("created metric = %d, want 0", rec.created)
	}
}

// --- ValidateSession ---

func TestValidateSession_UnknownToken_ReturnsNone(t *testing.T) {
	repo := newMemSessionRepo(testUser())
	m, _ := newTestManager(repo, time.Now())

	sess, user, err := m.ValidateSession(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if sess != nil || user != nil {
		t.Errorf("expected no session, got %v, %v", sess, user)
	}
}

func TestValidateSession_FreshSession_NoRenewal(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, rec := newTestManager(repo, created)

	token := "freshtoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// 10日経過: 残り20日なので延長しない
	m.now = func() time.Time { return created.Add(10 * day) }

	sess, user, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if sess == nil || user == nil {
		t.Fatal("expected session and user")
	}
	if want := created.Add(30 * day); !sess.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	if repo.updates != 0 {
		t.Errorf("store updates = %d, want 0", repo.updates)
	}
	if sess.Renewed {
		t.Error("session should not be marked renewed")
	}
	if rec.renewed != 0 {
		t.Errorf("renewed metric = %d, want 0", rec.renewed)
	}
}

func TestValidateSession_InsideRenewWindow_ExtendsExpiry(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, rec := newTestManager(repo, created)

	token := "renewtoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	now := created.Add(20 * day)
	m.now = func() time.Time { return now }

	sess, _, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if sess == nil {
		t.Fatal("expected session")
	}
	want := now.Add(30 * day)
	if !sess.ExpiresAt.Equal(want) {
		t.Errorf("returned expiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	if stored := repo.sessions[SessionID(token)]; !stored.ExpiresAt.Equal(want) {
		t.Errorf("stored expiresAt = %v, want %v", stored.ExpiresAt, want)
	}
	if !sess.Renewed {
		t.Error("session should be marked renewed")
	}
	if rec.renewed != 1 {
		t.Errorf("renewed metric = %d, want 1", rec.renewed)
	}
}

func TestValidateSession_ExactlyAtRenewBoundary_Extends(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, _ := newTestManager(repo, created)

	token := "boundarytoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// 残りちょうど15日
	now := created.Add(15 * day)
	m.now = func() time.Time { return now }

	sess, _, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if want := now.Add(30 * day); !sess.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestValidateSession_Expired_DeletesAndReturnsNone(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, rec := newTestManager(repo, created)

	token := "expiredtoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	m.now = func() time.Time { return created.Add(31 * day) }

	sess, user, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if sess != nil || user != nil {
		t.Error("expired session should not be returned")
	}
	if _, ok := repo.sessions[SessionID(token)]; ok {
		t.Error("expired session should be removed from the store")
	}
	if rec.expired != 1 {
		t.Errorf("expired metric = %d, want 1", rec.expired)
	}
}

func TestValidateSession_ExactlyAtExpiry_IsExpired(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemSessionRepo(testUser())
	m, _ := newTestManager(repo, created)

	token := "edgetoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	m.now = func() time.Time { return created.Add(30 * day) }

	sess, _, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if sess != nil {
		t.Error("session at exact expiry should be treated as expired")
	}
}

func TestValidateSession_ReturnsSafeUser(t *testing.T) {
	repo := newMemSessionRepo(testUser())
	m, _ := newTestManager(repo, time.Now())

	token := "safetoken"
	if _, err := m.CreateSession(context.Background(), token, "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	_, user, err := m.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if user.ID != "user-1" || user.Email != "alice@example.com" {
		t.Errorf("user = %+v, want user-1/alice@example.com", user)
	}
}

func TestValidateSession_StoreErrors_Propagate(t *testing.T) {
	storeErr := errors.New("db error")

	t.Run("lookup", func(t *testing.T) {
		repo := newMemSessionRepo(testUser())
		repo.findErr = storeErr
		m, _ := newTestManager(repo, time.Now())

		if _, _, err := m.ValidateSession(context.Background(), "token"); !errors.Is(err, storeErr) {
			t.Errorf("error = %v, want wrapped %v", err, storeErr)
		}
	})

	t.Run("renew", func(t *testing.T) {
		created := time.Now()
		repo := newMemSessionRepo(testUser())
		m, _ := newTestManager(repo, created)
		if _, err := m.CreateSession(context.Background(), "token", "user-1"); err != nil {
			t.Fatal(err)
		}
		repo.updateErr = storeErr
		m.now = func() time.Time { return created.Add(20 * day) }

		if _, _, err := m.ValidateSession(context.Background(), "token"); !errors.Is(err, storeErr) {
			t.Errorf("error = %v, want wrapped %v", err, storeErr)
		}
	})

	t.Run("reap", func(t *testing.T) {
		created := time.Now()
		repo := newMemSessionRepo(testUser())
		m, _ := newTestManager(repo, created)
		if _, err := m.CreateSession(context.Background(), "token", "user-1"); err != nil {
			t.Fatal(err)
		}
		repo.deleteErr = storeErr
		m.now = func() time.Time { return created.Add(40 * day) }

		if _, _, err := m.ValidateSession(context.Background(), "token"); !errors.Is(err, storeErr) {
			t.Errorf("error = %v, want wrapped %v", err, storeErr)
		}
	})
}

// --- Invalidate ---

func TestInvalidateSession_RemovesOnlyThatSession(t *testing.T) {
	repo := newMemSessionRepo(testUser())
	m, rec := newTestManager(repo, time.Now())
	ctx := context.Background()

	a, _ := m.CreateSession(ctx, "token-a", "user-1")
	b, _ := m.CreateSession(ctx, "token-b", "user-1")

	if err := m.InvalidateSession(ctx, a.ID); err != nil {
		t.Fatalf("InvalidateSession() error = %v", err)
	}

	if sess, _, _ := m.ValidateSession(ctx, "token-a"); sess != nil {
		t.Error("invalidated session should not validate")
	}
	if sess, _, _ := m.ValidateSession(ctx, "token-b"); sess == nil || sess.ID != b.ID {
		t.Error("other session should remain valid")
	}
	if rec.invalidated != 1 {
		t.Errorf("invalidated metric = %d, want 1", rec.invalidated)
	}
}

func TestInvalidateSession_UnknownID_NoError(t *testing.T) {
	repo := newMemSessionRepo()
	m, _ := newTestManager(repo, time.Now())

	if err := m.InvalidateSession(context.Background(), "does-not-exist"); err != nil {
		t.Errorf("InvalidateSession() error = %v, want nil", err)
	}
}

func TestInvalidateAllSessions_RemovesEveryUserSession(t *testing.T) {
	other := &model.User{ID: "user-2", Email: "bob@example.com"}
	repo := newMemSessionRepo(testUser(), other)
	m, _ := newTestManager(repo, time.Now())
	ctx := context.Background()

	for _, tok := range []string{"t1", "t2", "t3"} {
		if _, err := m.CreateSession(ctx, tok, "user-1"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.CreateSession(ctx, "t4", "user-2"); err != nil {
		t.Fatal(err)
	}

	if err := m.InvalidateAllSessions(ctx, "user-1"); err != nil {
		t.Fatalf("InvalidateAllSessions() error = %v", err)
	}

	for _, tok := range []string{"t1", "t2", "t3"} {
		if sess, _, _ := m.ValidateSession(ctx, tok); sess != nil {
			t.Errorf("session for %q should be invalidated", tok)
		}
	}
	if sess, _, _ := m.ValidateSession(ctx, "t4"); sess == nil {
		t.Error("other user's session should remain valid")
	}
}

func TestNewManager_NilRecorder(t *testing.T) {
	m := NewManager(newMemSessionRepo(testUser()), DefaultConfig(), nil)
	if _, err := m.CreateSession(context.Background(), "token", "user-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
}
