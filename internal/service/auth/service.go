package auth

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/internal/service/ledger"
	"github.com/khairulanwar/clinic-api/internal/session"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

type Service struct {
	userRepo repository.UserRepository
	ledger   *ledger.Service
	sessions *session.Manager
	hasher   security.PasswordHasher
	auditor  *audit.Service
	metrics  *metrics.Metrics
}

func NewService(userRepo repository.UserRepository, ledgerSvc *ledger.Service,
	sessions *session.Manager, hasher security.PasswordHasher,
	auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{
		userRepo: userRepo,
		ledger:   ledgerSvc,
		sessions: sessions,
		hasher:   hasher,
		auditor:  auditor,
		metrics:  m,
	}
}

// Login runs the full authentication sequence: fast-fail on malformed
// usernames, lockout gate, credential check, session establishment.
// Expected failures (bad credentials, lockout) come back in the
// result, not as errors; only storage trouble is an error.
func (s *Service) Login(ctx context.Context, username, password, clientIP string) (*model.LoginResult, error) {
	// Usernames with non-printable characters never reach the
	// credential store and are not ledger-recorded; the response is
	// indistinguishable from bad credentials.
	if !printable(username) {
		return &model.LoginResult{}, nil
	}

	lockout, err := s.ledger.CheckLockout(ctx, username)
	if err != nil {
		return nil, err
	}
	if lockout != nil {
		s.countLogin("locked")
		return &model.LoginResult{
			Locked:       true,
			LockoutUntil: &lockout.LockoutUntil,
			Attempts:     lockout.Attempts,
		}, nil
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	if user == nil || s.hasher.Compare(user.PasswordHash, password) != nil {
		return s.failedLogin(ctx, username, clientIP)
	}

	if _, err := s.ledger.RecordAttempt(ctx, clientIP, username, true); err != nil {
		return nil, err
	}

	// Session id is always freshly generated here, so a pre-login
	// session identifier can never carry over.
	_, token, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.countLogin("success")
	s.auditor.Record(ctx, audit.Entry{
		UserID:      user.ID,
		Username:    user.Username,
		Action:      model.AuditLogin,
		Description: fmt.Sprintf("user %s logged in", user.Username),
		IPAddress:   clientIP,
	})

	return &model.LoginResult{
		Success: true,
		Role:    user.Role,
		Token:   token,
	}, nil
}

func (s *Service) failedLogin(ctx context.Context, username, clientIP string) (*model.LoginResult, error) {
	record, err := s.ledger.RecordAttempt(ctx, clientIP, username, false)
	if err != nil {
		return nil, err
	}

	s.countLogin("failure")
	s.auditor.Record(ctx, audit.Entry{
		UserID:      uuid.Nil,
		Username:    username,
		Action:      model.AuditLoginFailed,
		Description: fmt.Sprintf("failed login for %s (attempt %d)", username, record.Attempts),
		IPAddress:   clientIP,
	})

	return &model.LoginResult{
		Locked:        record.Locked,
		LockoutUntil:  record.LockoutUntil,
		Attempts:      record.Attempts,
		LockoutMinute: record.LockoutMinutes,
	}, nil
}

// Logout destroys the session and audits it.
func (s *Service) Logout(ctx context.Context, sess *model.Session, clientIP string) error {
	if err := s.sessions.Destroy(ctx, sess.ID); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:      sess.UserID,
		Username:    sess.Username,
		Action:      model.AuditLogout,
		Description: fmt.Sprintf("user %s logged out", sess.Username),
		IPAddress:   clientIP,
	})
	return nil
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func printable(username string) bool {
	for _, r := range username {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
