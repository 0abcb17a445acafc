// Package credentials trades a long-lived API secret for a short numeric PIN
// and authenticates later sessions by that PIN.
package credentials

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/models"
)

// maxPinAttempts bounds how many candidate PINs Register draws before giving
// up on finding one no other credential holds.
const maxPinAttempts = 64

var (
	// ErrEmptySecret is returned when registering an empty secret.
	ErrEmptySecret = errors.New("secret is empty")
	// ErrInvalidPinFormat is returned for a PIN that is not exactly four digits.
	ErrInvalidPinFormat = errors.New("pin must be exactly 4 digits")
	// ErrInvalidPin is returned by Authenticate when no credential holds the PIN.
	ErrInvalidPin = errors.New("invalid pin")
	// ErrPinSpaceExhausted is returned when no free PIN was found.
	ErrPinSpaceExhausted = errors.New("no free pin available")
)

// Store is the persistence the credential manager needs.
type Store interface {
	IssueCredential(ctx context.Context, hash, pin string, createdAt time.Time) (*models.Credential, bool, error)
	GetCredentialByHash(ctx context.Context, hash string) (*models.Credential, error)
	GetCredentialsByPin(ctx context.Context, pin string) ([]models.Credential, error)
	PinExists(ctx context.Context, pin string) (bool, error)
	DeleteCredentialsByPin(ctx context.Context, pin string) (int64, error)
}

// Service issues and checks PIN credentials.
type Service struct {
	store  Store
	log    *slog.Logger
	random io.Reader
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRandom replaces crypto/rand as the source of PIN digits.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.random = r
		}
	}
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a credential manager on top of store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		log:    logger.Discard(),
		random: rand.Reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register returns the PIN bound to secret, issuing a fresh one the first time
// the secret is seen. Calling it again with the same secret returns the same
// PIN and stores nothing new, including when two callers race.
func (s *Service) Register(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	hash := HashSecret(secret)

	for range maxPinAttempts {
		pin, err := GeneratePin(s.random)
		if err != nil {
			return "", err
		}

		cred, created, err := s.store.IssueCredential(ctx, hash, pin, s.now())
		if err != nil {
			return "", fmt.Errorf("failed to register secret: %w", err)
		}
		if cred == nil {
			// Candidate held by another secret; draw again.
			s.log.Debug("pin candidate in use, retrying")
			continue
		}

		if created {
			s.log.Info("registered new secret", "credential_id", cred.ID)
		} else {
			s.log.Debug("secret already registered", "credential_id", cred.ID)
		}
		return cred.PinCode, nil
	}

	return "", ErrPinSpaceExhausted
}

// VerifyPin reports whether any credential holds pin. It only proves the
// caller knows an issued PIN; it does not say which secret it belongs to.
func (s *Service) VerifyPin(ctx context.Context, pin string) (bool, error) {
	if ValidatePinFormat(pin) != nil {
		return false, nil
	}
	ok, err := s.store.PinExists(ctx, pin)
	if err != nil {
		return false, fmt.Errorf("failed to verify pin: %w", err)
	}
	return ok, nil
}

// Authenticate returns the credential pin belongs to, so a session can bind
// to one record instead of the bare PIN string.
func (s *Service) Authenticate(ctx context.Context, pin string) (*models.Credential, error) {
	if err := ValidatePinFormat(pin); err != nil {
		return nil, err
	}
	creds, err := s.store.GetCredentialsByPin(ctx, pin)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if len(creds) == 0 {
		return nil, ErrInvalidPin
	}
	if len(creds) > 1 {
		s.log.Warn("pin shared by several credentials, using the oldest", "count", len(creds))
	}
	cred := creds[0]
	return &cred, nil
}

// IsRegistered reports whether secret has a credential.
func (s *Service) IsRegistered(ctx context.Context, secret string) (bool, error) {
	cred, err := s.store.GetCredentialByHash(ctx, HashSecret(secret))
	if err != nil {
		return false, fmt.Errorf("failed to look up secret: %w", err)
	}
	return cred != nil, nil
}

// RevokeByPin deletes every credential holding pin and reports whether any
// was removed.
func (s *Service) RevokeByPin(ctx context.Context, pin string) (bool, error) {
	ok, err := s.VerifyPin(ctx, pin)
	if err != nil || !ok {
		return false, err
	}

	n, err := s.store.DeleteCredentialsByPin(ctx, pin)
	if err != nil {
		return false, fmt.Errorf("failed to revoke pin: %w", err)
	}
	if n > 0 {
		s.log.Info("revoked credentials", "count", n)
	}
	return n > 0, nil
}
