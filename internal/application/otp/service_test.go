package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otp-api-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCredentialStore struct{ mock.Mock }

func (m *mockCredentialStore) Upsert(ctx context.Context, c *domain.Credential) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCredentialStore) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	args := m.Called(ctx, email)
	if c, _ := args.Get(0).(*domain.Credential); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDeliveryLog struct{ mock.Mock }

func (m *mockDeliveryLog) Put(ctx context.Context, d *domain.Delivery) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockDeliveryLog) ListByEmail(ctx context.Context, email string) ([]domain.Delivery, error) {
	args := m.Called(ctx, email)
	if l, _ := args.Get(0).([]domain.Delivery); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishIssued(ctx context.Context, email string, issuedAt time.Time) error {
	return m.Called(ctx, email, issuedAt).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(email string) (string, error) {
	args := m.Called(email)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(cs *mockCredentialStore, dl *mockDeliveryLog, ml *mockMailer, pub *mockPublisher, sig *mockSigner, ttl time.Duration) Service {
	deps := ServiceDeps{Mailer: ml, OTPTTL: ttl}
	if cs != nil {
		deps.Credentials = cs
	}
	if dl != nil {
		deps.Deliveries = dl
	}
	if pub != nil {
		deps.Publisher = pub
	}
	if sig != nil {
		deps.Signer = sig
	}
	return NewService(deps)
}

// --- Issue ---

func TestIssue_HappyPath_StoresWhatWasMailed(t *testing.T) {
	cs := &mockCredentialStore{}
	ml := &mockMailer{}

	var mailedBody string
	ml.On("SendEmail", "a@x.com", "Your OTP Code", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { mailedBody = args.String(2) }).
		Return(nil)

	var stored *domain.Credential
	cs.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Credential")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Credential) }).
		Return(nil)

	svc := newService(cs, nil, ml, nil, nil, 0)
	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))

	require.NotNil(t, stored)
	assert.Equal(t, "a@x.com", stored.Email)
	assert.Len(t, stored.Code, 6)
	assert.Contains(t, mailedBody, stored.Code, "mailed code must match the stored one")
	assert.False(t, stored.IssuedAt.IsZero())
	assert.Zero(t, stored.ExpiresAt, "no TTL configured, no expiry attribute")
	ml.AssertExpectations(t)
	cs.AssertExpectations(t)
}

func TestIssue_MailerFails_StoreNeverWritten(t *testing.T) {
	cs := &mockCredentialStore{}
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := newService(cs, nil, ml, nil, nil, 0)
	err := svc.Issue(context.Background(), "a@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailed))
	cs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIssue_StoreFails_ReturnsStoreUnavailable(t *testing.T) {
	cs := &mockCredentialStore{}
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("dial tcp: timeout"))

	svc := newService(cs, nil, ml, nil, nil, 0)
	err := svc.Issue(context.Background(), "a@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.False(t, errors.Is(err, domain.ErrDeliveryFailed))
}

func TestIssue_TTLConfigured_SetsExpiry(t *testing.T) {
	cs := &mockCredentialStore{}
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	var stored *domain.Credential
	cs.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Credential) }).
		Return(nil)

	svc := newService(cs, nil, ml, nil, nil, 15*time.Minute)
	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))

	require.NotNil(t, stored)
	assert.Equal(t, stored.IssuedAt.Add(15*time.Minute).Unix(), stored.ExpiresAt)
}

func TestIssue_AuditAndEventFailures_DoNotFailRequest(t *testing.T) {
	cs := &mockCredentialStore{}
	dl := &mockDeliveryLog{}
	ml := &mockMailer{}
	pub := &mockPublisher{}

	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	dl.On("Put", mock.Anything, mock.AnythingOfType("*domain.Delivery")).Return(errors.New("table missing"))
	pub.On("PublishIssued", mock.Anything, "a@x.com", mock.Anything).Return(errors.New("topic gone"))

	svc := newService(cs, dl, ml, pub, nil, 0)
	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))
	dl.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestIssue_RecordsDelivery(t *testing.T) {
	cs := &mockCredentialStore{}
	dl := &mockDeliveryLog{}
	ml := &mockMailer{}

	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	var logged *domain.Delivery
	dl.On("Put", mock.Anything, mock.AnythingOfType("*domain.Delivery")).
		Run(func(args mock.Arguments) { logged = args.Get(1).(*domain.Delivery) }).
		Return(nil)

	svc := newService(cs, dl, ml, nil, nil, 0)
	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))

	require.NotNil(t, logged)
	assert.NotEmpty(t, logged.DeliveryID)
	assert.Equal(t, "a@x.com", logged.Email)
	assert.Equal(t, "email", logged.Channel)
}

// --- Verify ---

func TestVerify_Match(t *testing.T) {
	cs := &mockCredentialStore{}
	cs.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Credential{
		Email: "a@x.com", Code: "482913", IssuedAt: time.Now().UTC(),
	}, nil)

	svc := newService(cs, nil, nil, nil, nil, 0)
	token, err := svc.Verify(context.Background(), "a@x.com", "482913")

	require.NoError(t, err)
	assert.Empty(t, token, "no signer configured")
}

func TestVerify_Mismatch_IsInvalid(t *testing.T) {
	cs := &mockCredentialStore{}
	cs.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Credential{
		Email: "a@x.com", Code: "482913",
	}, nil)

	svc := newService(cs, nil, nil, nil, nil, 0)
	_, err := svc.Verify(context.Background(), "a@x.com", "000000")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestVerify_NoRecord_IsInvalidNotServerError(t *testing.T) {
	cs := &mockCredentialStore{}
	cs.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(cs, nil, nil, nil, nil, 0)
	_, err := svc.Verify(context.Background(), "nobody@x.com", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestVerify_StoreDown_IsServerError(t *testing.T) {
	cs := &mockCredentialStore{}
	cs.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dial tcp: refused"))

	svc := newService(cs, nil, nil, nil, nil, 0)
	_, err := svc.Verify(context.Background(), "a@x.com", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.False(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestVerify_WithSigner_ReturnsToken(t *testing.T) {
	cs := &mockCredentialStore{}
	sig := &mockSigner{}
	cs.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Credential{
		Email: "a@x.com", Code: "482913",
	}, nil)
	sig.On("Sign", "a@x.com").Return("signed.jwt", nil)

	svc := newService(cs, nil, nil, nil, sig, 0)
	token, err := svc.Verify(context.Background(), "a@x.com", "482913")

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt", token)
}

// --- lifecycle ---

// fakeStore is a real in-memory upsert store used to exercise the full
// issue/verify lifecycle without mock choreography.
type fakeStore struct{ records map[string]domain.Credential }

func (f *fakeStore) Upsert(_ context.Context, c *domain.Credential) error {
	if f.records == nil {
		f.records = make(map[string]domain.Credential)
	}
	f.records[c.Email] = *c
	return nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	c, ok := f.records[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type captureMailer struct{ lastBody string }

func (m *captureMailer) SendEmail(_, _, body string) error {
	m.lastBody = body
	return nil
}

func codeFrom(body string) string { return body[len(body)-6:] }

func TestLifecycle_IssueThenVerify(t *testing.T) {
	store := &fakeStore{}
	mail := &captureMailer{}
	svc := NewService(ServiceDeps{Credentials: store, Mailer: mail})

	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))
	_, err := svc.Verify(context.Background(), "a@x.com", codeFrom(mail.lastBody))
	assert.NoError(t, err)
}

func TestLifecycle_ReissueInvalidatesFirstCode(t *testing.T) {
	store := &fakeStore{}
	mail := &captureMailer{}
	svc := NewService(ServiceDeps{Credentials: store, Mailer: mail})

	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))
	first := codeFrom(mail.lastBody)

	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))
	second := codeFrom(mail.lastBody)

	if first != second {
		_, err := svc.Verify(context.Background(), "a@x.com", first)
		assert.True(t, errors.Is(err, domain.ErrInvalidCredential), "first code must be dead")
	}
	_, err := svc.Verify(context.Background(), "a@x.com", second)
	assert.NoError(t, err)
	assert.Len(t, store.records, 1, "upsert must not duplicate records")
}

func TestLifecycle_VerifyIsRepeatable(t *testing.T) {
	store := &fakeStore{}
	mail := &captureMailer{}
	svc := NewService(ServiceDeps{Credentials: store, Mailer: mail})

	require.NoError(t, svc.Issue(context.Background(), "a@x.com"))
	code := codeFrom(mail.lastBody)

	// No consumption on success: the same code verifies repeatedly.
	for i := 0; i < 3; i++ {
		_, err := svc.Verify(context.Background(), "a@x.com", code)
		require.NoError(t, err)
	}
}

// --- Deliveries ---

func TestDeliveries_StoreDown_IsServerError(t *testing.T) {
	dl := &mockDeliveryLog{}
	dl.On("ListByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("refused"))

	svc := newService(nil, dl, nil, nil, nil, 0)
	_, err := svc.Deliveries(context.Background(), "a@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestDeliveries_ReturnsAuditTrail(t *testing.T) {
	dl := &mockDeliveryLog{}
	dl.On("ListByEmail", mock.Anything, "a@x.com").Return([]domain.Delivery{
		{DeliveryID: "01B", Email: "a@x.com", Channel: "email"},
		{DeliveryID: "01A", Email: "a@x.com", Channel: "email"},
	}, nil)

	svc := newService(nil, dl, nil, nil, nil, 0)
	list, err := svc.Deliveries(context.Background(), "a@x.com")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "01B", list[0].DeliveryID)
}
