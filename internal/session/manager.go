package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
)

// Manager owns the session lifecycle: creation on login, the sliding
// inactivity window on every protected request, destruction on logout
// or timeout.
type Manager struct {
	store  Store
	signer *Signer
	now    func() time.Time
}

func NewManager(store Store, signer *Signer) *Manager {
	return &Manager{
		store:  store,
		signer: signer,
		now:    time.Now,
	}
}

// Create establishes a fresh session for the user and returns it with
// a signed token. The id is always newly generated; callers replacing
// an existing session get a different id (fixation defense).
func (m *Manager) Create(ctx context.Context, user *model.User) (*model.Session, string, error) {
	now := m.now()
	session := &model.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		LoginTime:    now,
		LastActivity: now,
	}

	if err := m.store.Save(ctx, session); err != nil {
		return nil, "", apperrors.StoreUnavailable(err)
	}

	token, err := m.signer.Issue(session.ID)
	if err != nil {
		return nil, "", apperrors.System(apperrors.KindUnknown, err)
	}
	return session, token, nil
}

// Guard gates a protected request. It resolves the token to a live
// session, rejects anything idle past the timeout (destroying the
// session state first), and refreshes LastActivity on success.
func (m *Manager) Guard(ctx context.Context, token string) (*model.Session, error) {
	sid, err := m.signer.Parse(token)
	if err != nil {
		return nil, apperrors.AccessDenied()
	}

	session, err := m.store.Get(ctx, sid)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if session == nil {
		return nil, apperrors.AccessDenied()
	}

	now := m.now()
	if session.Expired(now) {
		// Full logout before signaling timeout; the stale state must
		// not survive the denial.
		if err := m.store.Delete(ctx, sid); err != nil {
			return nil, apperrors.StoreUnavailable(err)
		}
		return nil, apperrors.AccessDenied()
	}

	session.LastActivity = now
	if err := m.store.Save(ctx, session); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return session, nil
}

// Destroy removes the session. Used by logout and by login-time
// regeneration.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
