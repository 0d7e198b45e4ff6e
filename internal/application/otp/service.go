package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/otp-api-nosql/internal/domain"
	"github.com/otp-api-nosql/internal/pkg/id"
	pkgotp "github.com/otp-api-nosql/internal/pkg/otp"
)

// CredentialStore persists one OTP record per email.
type CredentialStore interface {
	Upsert(ctx context.Context, c *domain.Credential) error
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

// DeliveryLog records OTP deliveries for observability.
type DeliveryLog interface {
	Put(ctx context.Context, d *domain.Delivery) error
	ListByEmail(ctx context.Context, email string) ([]domain.Delivery, error)
}

// Mailer delivers the code to the recipient.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// EventPublisher announces successful issuances to downstream consumers.
type EventPublisher interface {
	PublishIssued(ctx context.Context, email string, issuedAt time.Time) error
}

// TokenSigner issues a bearer token for a verified email.
type TokenSigner interface {
	Sign(email string) (string, error)
}

type Service interface {
	// Issue generates a fresh code for email, delivers it, and upserts the
	// credential record. Any previously issued code for the address becomes
	// unverifiable.
	Issue(ctx context.Context, email string) error
	// Verify compares code against the stored record. On success it returns
	// a signed bearer token when a signer is configured, otherwise "".
	Verify(ctx context.Context, email, code string) (string, error)
	// Deliveries returns the audit trail for an email, newest first.
	Deliveries(ctx context.Context, email string) ([]domain.Delivery, error)
}

// ServiceDeps bundles the service's collaborators. Publisher and Signer are
// optional; leave them nil to disable issuance events and verification tokens.
type ServiceDeps struct {
	Credentials CredentialStore
	Deliveries  DeliveryLog
	Mailer      Mailer
	Publisher   EventPublisher
	Signer      TokenSigner
	// OTPTTL sets the storage retention horizon on each record; zero keeps
	// records forever. Verification never reads it.
	OTPTTL time.Duration
}

type service struct {
	credentials CredentialStore
	deliveries  DeliveryLog
	mailer      Mailer
	publisher   EventPublisher
	signer      TokenSigner
	otpTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		credentials: deps.Credentials,
		deliveries:  deps.Deliveries,
		mailer:      deps.Mailer,
		publisher:   deps.Publisher,
		signer:      deps.Signer,
		otpTTL:      deps.OTPTTL,
	}
}

const (
	emailSubject = "Your OTP Code"
	channelEmail = "email"
)

func (s *service) Issue(ctx context.Context, email string) error {
	code, err := pkgotp.New()
	if err != nil {
		return err
	}
	issuedAt := time.Now().UTC()

	// Delivery comes first: if the transport rejects, the store is never
	// touched and the previous code (if any) stays valid.
	if err := s.mailer.SendEmail(email, emailSubject, "Your OTP code is: "+code); err != nil {
		return fmt.Errorf("send otp email: %v: %w", err, domain.ErrDeliveryFailed)
	}

	cred := &domain.Credential{
		Email:    email,
		Code:     code,
		IssuedAt: issuedAt,
	}
	if s.otpTTL > 0 {
		cred.ExpiresAt = issuedAt.Add(s.otpTTL).Unix()
	}
	if err := s.credentials.Upsert(ctx, cred); err != nil {
		// The recipient now holds a code that was never persisted. The window
		// is inherent to the send-then-store ordering; make it loud in logs.
		slog.Error("otp sent but not persisted", "email", email, "cause", "store_unavailable", "err", err)
		return fmt.Errorf("persist credential: %v: %w", err, domain.ErrStoreUnavailable)
	}

	if s.deliveries != nil {
		d := &domain.Delivery{
			DeliveryID: id.New(),
			Email:      email,
			Channel:    channelEmail,
			Subject:    emailSubject,
			CreatedAt:  issuedAt,
		}
		if err := s.deliveries.Put(ctx, d); err != nil {
			slog.Warn("failed to record delivery", "email", email, "err", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishIssued(ctx, email, issuedAt); err != nil {
			slog.Warn("failed to publish issuance event", "email", email, "err", err)
		}
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) (string, error) {
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No code was ever issued — indistinguishable from a wrong code
			// to the caller.
			return "", fmt.Errorf("no code issued for %s: %w", email, domain.ErrInvalidCredential)
		}
		return "", fmt.Errorf("lookup credential: %v: %w", err, domain.ErrStoreUnavailable)
	}
	if cred.Code != code {
		return "", fmt.Errorf("code mismatch for %s: %w", email, domain.ErrInvalidCredential)
	}
	if s.signer == nil {
		return "", nil
	}
	token, err := s.signer.Sign(email)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *service) Deliveries(ctx context.Context, email string) ([]domain.Delivery, error) {
	list, err := s.deliveries.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return list, nil
}
