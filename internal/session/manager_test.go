package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khairulanwar/clinic-api/internal/model"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
)

func newTestManager(start time.Time) (*Manager, *time.Time) {
	m := NewManager(NewMemoryStore(), NewSigner("test-secret"))
	now := start
	m.now = func() time.Time { return now }
	return m, &now
}

func testUser() *model.User {
	return &model.User{ID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
}

func TestGuardWithinTimeout(t *testing.T) {
	m, now := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	created, token, err := m.Create(ctx, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	*now = now.Add(model.SessionTimeout - time.Second)
	session, err := m.Guard(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.ID)
	assert.Equal(t, *now, session.LastActivity, "activity must refresh on every guarded request")
}

func TestGuardAtExactTimeoutBoundary(t *testing.T) {
	m, now := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, token, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	// Exactly the timeout is still inside the window; one second past
	// is not.
	*now = now.Add(model.SessionTimeout)
	_, err = m.Guard(ctx, token)
	assert.NoError(t, err)
}

func TestGuardExpiredDestroysSession(t *testing.T) {
	m, now := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, token, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	*now = now.Add(model.SessionTimeout + time.Second)
	_, err = m.Guard(ctx, token)
	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))

	// The session state is gone; even a prompt retry stays denied.
	*now = now.Add(-model.SessionTimeout)
	_, err = m.Guard(ctx, token)
	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
}

func TestGuardSlidesWindow(t *testing.T) {
	m, now := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, token, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	// Three requests each 10 minutes apart: every one lands inside the
	// refreshed window even though total elapsed time exceeds it.
	for i := 0; i < 3; i++ {
		*now = now.Add(10 * time.Minute)
		_, err = m.Guard(ctx, token)
		require.NoError(t, err, "request %d", i+1)
	}
}

func TestGuardRejectsGarbageToken(t *testing.T) {
	m, _ := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Guard(context.Background(), token)
		require.Error(t, err)
		assert.True(t, apperrors.IsAccessDenied(err))
	}
}

func TestGuardRejectsForeignSignature(t *testing.T) {
	m, _ := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	other := NewSigner("other-secret")
	token, err := other.Issue("some-session")
	require.NoError(t, err)

	_, err = m.Guard(context.Background(), token)
	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
}

func TestDestroyRevokesToken(t *testing.T) {
	m, _ := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	session, token, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, session.ID))

	// The token still verifies cryptographically, but the server-side
	// state is gone.
	_, err = m.Guard(ctx, token)
	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
}

func TestCreateAlwaysGeneratesFreshID(t *testing.T) {
	m, _ := newTestManager(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	user := testUser()
	first, _, err := m.Create(ctx, user)
	require.NoError(t, err)
	second, _, err := m.Create(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("round-trip-secret")

	token, err := signer.Issue("session-42")
	require.NoError(t, err)

	sid, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-42", sid)
}
