package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/internal/service/ledger"
	"github.com/khairulanwar/clinic-api/internal/session"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

type fakeUserRepo struct {
	users   map[string]*model.User
	lookups int
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.lookups++
	return f.users[username], nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.users[user.Username] = user
	return nil
}

type fakeAttemptRepo struct {
	rows []*model.LoginAttempt
}

func (f *fakeAttemptRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*model.LoginAttempt
	var purged int64
	for _, r := range f.rows {
		if r.AttemptTime.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return purged, nil
}

func (f *fakeAttemptRepo) CountRecentFailures(_ context.Context, username string, since time.Time) (int, error) {
	count := 0
	for _, r := range f.rows {
		if r.Username == username && !r.Success && !r.AttemptTime.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptRepo) Insert(_ context.Context, attempt *model.LoginAttempt) error {
	f.rows = append(f.rows, attempt)
	return nil
}

func (f *fakeAttemptRepo) ClearFailures(_ context.Context, username string) error {
	var kept []*model.LoginAttempt
	for _, r := range f.rows {
		if r.Username == username && !r.Success {
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return nil
}

func (f *fakeAttemptRepo) ActiveLockout(_ context.Context, username string, now time.Time) (*model.LockoutInfo, error) {
	var latest *model.LoginAttempt
	for _, r := range f.rows {
		if r.Username != username || r.LockoutUntil == nil || !r.LockoutUntil.After(now) {
			continue
		}
		if latest == nil || r.AttemptTime.After(latest.AttemptTime) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	return &model.LockoutInfo{
		Username:     latest.Username,
		LockoutUntil: *latest.LockoutUntil,
		Attempts:     latest.AttemptCount,
	}, nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLogEntry
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) ListPage(_ context.Context, _ int) ([]*model.AuditLogEntry, error) {
	return f.entries, nil
}

func (f *fakeAuditRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAuditRepo) byAction(action model.AuditAction) []*model.AuditLogEntry {
	var out []*model.AuditLogEntry
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type authFixture struct {
	svc      *Service
	users    *fakeUserRepo
	attempts *fakeAttemptRepo
	audits   *fakeAuditRepo
	sessions *session.Manager
	userID   uuid.UUID
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	userID := uuid.New()
	users := &fakeUserRepo{users: map[string]*model.User{
		"admin": {ID: userID, Username: "admin", PasswordHash: hash, Role: model.RoleAdmin},
	}}
	attempts := &fakeAttemptRepo{}
	audits := &fakeAuditRepo{}
	auditor := audit.NewService(audits, zerolog.Nop())
	sessions := session.NewManager(session.NewMemoryStore(), session.NewSigner("test-secret"))
	ledgerSvc := ledger.NewService(attempts, nil)

	return &authFixture{
		svc:      NewService(users, ledgerSvc, sessions, hasher, auditor, nil),
		users:    users,
		attempts: attempts,
		audits:   audits,
		sessions: sessions,
		userID:   userID,
	}
}

func TestLoginSuccess(t *testing.T) {
	fx := newAuthFixture(t)

	result, err := fx.svc.Login(context.Background(), "admin", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, model.RoleAdmin, result.Role)
	require.NotEmpty(t, result.Token)

	// The token resolves to a live session for the user.
	sess, err := fx.sessions.Guard(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, fx.userID, sess.UserID)

	logins := fx.audits.byAction(model.AuditLogin)
	require.Len(t, logins, 1)
	assert.Equal(t, fx.userID, logins[0].UserID)
	assert.Equal(t, "10.0.0.1", logins[0].IPAddress)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newAuthFixture(t)

	result, err := fx.svc.Login(context.Background(), "admin", "wrong", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.Locked)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Token)

	failures := fx.audits.byAction(model.AuditLoginFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, uuid.Nil, failures[0].UserID, "failed logins carry no authenticated user")
}

func TestLoginUnknownUserRecordedSameAsWrongPassword(t *testing.T) {
	fx := newAuthFixture(t)

	result, err := fx.svc.Login(context.Background(), "nobody", "whatever", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Len(t, fx.audits.byAction(model.AuditLoginFailed), 1)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	var result *model.LoginResult
	var err error
	for i := 0; i < 5; i++ {
		result, err = fx.svc.Login(ctx, "admin", "wrong", "10.0.0.1")
		require.NoError(t, err)
	}
	assert.True(t, result.Locked)
	assert.Equal(t, 1, result.LockoutMinute)
	assert.Equal(t, 5, result.Attempts)

	rows := len(fx.attempts.rows)

	// While locked, the correct password is not even checked and no new
	// attempt row is written.
	result, err = fx.svc.Login(ctx, "admin", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Locked)
	assert.False(t, result.Success)
	assert.Len(t, fx.attempts.rows, rows, "locked attempts must not extend the ledger")
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := fx.svc.Login(ctx, "admin", "wrong", "10.0.0.1")
		require.NoError(t, err)
	}

	result, err := fx.svc.Login(ctx, "admin", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, result.Success)

	// Next failure starts a fresh count.
	result, err = fx.svc.Login(ctx, "admin", "wrong", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
}

func TestLoginNonPrintableUsernameFastFails(t *testing.T) {
	fx := newAuthFixture(t)

	result, err := fx.svc.Login(context.Background(), "admin\x00", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.Locked)

	assert.Zero(t, fx.users.lookups, "malformed usernames never reach the credential store")
	assert.Empty(t, fx.attempts.rows, "malformed usernames are not ledger-recorded")
	assert.Empty(t, fx.audits.entries)
}

func TestLogout(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	result, err := fx.svc.Login(ctx, "admin", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	sess, err := fx.sessions.Guard(ctx, result.Token)
	require.NoError(t, err)

	require.NoError(t, fx.svc.Logout(ctx, sess, "10.0.0.1"))

	_, err = fx.sessions.Guard(ctx, result.Token)
	assert.Error(t, err, "token must be dead after logout")
	assert.Len(t, fx.audits.byAction(model.AuditLogout), 1)
}
