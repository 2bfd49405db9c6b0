package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationRequestStore for testing
type MockNotificationRequestStore struct {
	mock.Mock
}

func (m *MockNotificationRequestStore) Create(ctx context.Context, req *model.NotificationRequest) error {
	args := m.Called(ctx, req)
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRequestStore) ListByAddress(ctx context.Context, address string) ([]model.NotificationRequest, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NotificationRequest), args.Error(1)
}

func (m *MockNotificationRequestStore) Delete(ctx context.Context, id uuid.UUID, address string) error {
	args := m.Called(ctx, id, address)
	return args.Error(0)
}

// MockEmailSender for testing
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

// MockChatSender for testing
type MockChatSender struct {
	mock.Mock
}

func (m *MockChatSender) Post(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func emailRequest(address, email string) model.NotificationRequest {
	return model.NotificationRequest{
		ID:                  uuid.New(),
		EthereumAddress:     address,
		DeliveryMethod:      model.DeliveryMethodEmail,
		DeliveryDestination: email,
	}
}

func newTestNotificationService(t *testing.T, terms TermsLookup, store NotificationRequestStore, email EmailSender, chat ChatSender) *NotificationService {
	t.Helper()

	renderer, err := NewEmailRenderer()
	require.NoError(t, err)

	identity := NewIdentityService(nil, nil)
	return NewNotificationService(
		NewEventFormatter(testFormatterConfig, nil, identity, terms),
		NewDiscordFormatter(testFormatterConfig, nil, identity),
		store,
		renderer,
		email,
		chat,
		nil,
	)
}

func TestNotificationService_HandleEvent_Buyout(t *testing.T) {
	t.Parallel()

	terms := new(MockTermsLookup)
	terms.On("MostRecentTermsForLoan", mock.Anything, "65", testLendTimestamp).
		Return(testPriorTerms(testLendTimestamp-2*86400), nil)

	store := new(MockNotificationRequestStore)
	store.On("ListByAddress", mock.Anything, testBorrower).
		Return([]model.NotificationRequest{emailRequest(testBorrower, "borrower@example.com")}, nil)
	store.On("ListByAddress", mock.Anything, testOldLender).Return([]model.NotificationRequest{}, nil)
	store.On("ListByAddress", mock.Anything, strings.ToLower(testNewLender)).
		Return([]model.NotificationRequest{
			emailRequest(strings.ToLower(testNewLender), "new@example.com"),
			emailRequest(strings.ToLower(testNewLender), "backup@example.com"),
		}, nil)

	email := new(MockEmailSender)
	email.On("Send", "borrower@example.com", "Loan #65 has a new lender", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "The loan created by 0x0dd7d has been bought out with new terms.")
	})).Return(nil)
	email.On("Send", "new@example.com", "Loan #65 has a new lender", mock.Anything).Return(nil)
	email.On("Send", "backup@example.com", "Loan #65 has a new lender", mock.Anything).Return(errors.New("mailbox full"))

	chat := new(MockChatSender)
	chat.On("Post", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return strings.HasPrefix(msg, "Loan #65: monarchs has been bought out by 0x7e646")
	})).Return(nil)

	svc := newTestNotificationService(t, terms, store, email, chat)
	report, err := svc.HandleEvent(context.Background(), testBuyoutEvent(), testNow)
	require.NoError(t, err)

	assert.Equal(t, "Loan #65 has a new lender", report.Subject)
	assert.Equal(t, []string{testBorrower, testOldLender, testNewLender}, report.Recipients)
	assert.Equal(t, 2, report.EmailsSent)
	assert.Equal(t, 1, report.EmailsFailed)
	assert.True(t, report.ChatPosted)
	assert.False(t, report.Suppressed)

	// one prior terms lookup shared by both formatters
	terms.AssertNumberOfCalls(t, "MostRecentTermsForLoan", 1)
	store.AssertExpectations(t)
	email.AssertExpectations(t)
	chat.AssertExpectations(t)
}

func TestNotificationService_HandleEvent_SuppressedLend(t *testing.T) {
	t.Parallel()

	terms := new(MockTermsLookup)
	terms.On("MostRecentTermsForLoan", mock.Anything, "65", testLendTimestamp).
		Return(testPriorTerms(testLendTimestamp-60), nil)
	store := new(MockNotificationRequestStore)
	email := new(MockEmailSender)
	chat := new(MockChatSender)

	svc := newTestNotificationService(t, terms, store, email, chat)
	report, err := svc.HandleEvent(context.Background(), testLendEvent(), testNow)
	require.NoError(t, err)

	assert.True(t, report.Suppressed)
	assert.Empty(t, report.Recipients)
	store.AssertNotCalled(t, "ListByAddress", mock.Anything, mock.Anything)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	chat.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}

func TestNotificationService_HandleEvent_FormattingFailureSendsNothing(t *testing.T) {
	t.Parallel()

	terms := new(MockTermsLookup)
	terms.On("MostRecentTermsForLoan", mock.Anything, "65", testLendTimestamp).Return(nil, nil)
	store := new(MockNotificationRequestStore)
	email := new(MockEmailSender)
	chat := new(MockChatSender)

	svc := newTestNotificationService(t, terms, store, email, chat)
	report, err := svc.HandleEvent(context.Background(), testBuyoutEvent(), testNow)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, apperror.ErrDataIntegrity)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	chat.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}

func TestNotificationService_HandleEvent_CreateEventOnlyPostsToChat(t *testing.T) {
	t.Parallel()

	ev := model.CreateEvent{
		EventBase: model.EventBase{ID: testTxHash, Timestamp: testNow, Loan: testRawLoan()},
		Creator:   testBorrower,
	}
	store := new(MockNotificationRequestStore)
	email := new(MockEmailSender)
	chat := new(MockChatSender)
	chat.On("Post", mock.Anything, mock.Anything).Return(nil)

	svc := newTestNotificationService(t, nil, store, email, chat)
	report, err := svc.HandleEvent(context.Background(), ev, testNow)
	require.NoError(t, err)

	assert.False(t, report.Suppressed)
	assert.True(t, report.ChatPosted)
	assert.Empty(t, report.Recipients)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_HandleEvent_RequestLookupFailure(t *testing.T) {
	t.Parallel()

	store := new(MockNotificationRequestStore)
	store.On("ListByAddress", mock.Anything, testBorrower).Return(nil, errors.New("db down"))
	store.On("ListByAddress", mock.Anything, testOldLender).
		Return([]model.NotificationRequest{emailRequest(testOldLender, "lender@example.com")}, nil)
	email := new(MockEmailSender)
	email.On("Send", "lender@example.com", "Loan #65 is past due", mock.Anything).Return(nil)

	svc := newTestNotificationService(t, nil, store, email, nil)
	report, err := svc.HandleEvent(context.Background(), model.LiquidationOccurred{RawLoan: testRawLoan()}, testEndTimestamp)
	require.NoError(t, err)

	assert.Equal(t, 1, report.EmailsSent)
	assert.Equal(t, 1, report.EmailsFailed)
	assert.False(t, report.ChatPosted)
}

func TestNotificationService_Dispatch(t *testing.T) {
	t.Parallel()

	store := new(MockNotificationRequestStore)
	store.On("ListByAddress", mock.Anything, mock.Anything).Return([]model.NotificationRequest{}, nil)

	svc := newTestNotificationService(t, nil, store, new(MockEmailSender), nil)
	svc.now = func() time.Time { return time.Unix(testEndTimestamp-3600, 0) }

	err := svc.Dispatch(context.Background(), model.LiquidationOccurring{RawLoan: testRawLoan()})
	assert.NoError(t, err)
	store.AssertNumberOfCalls(t, "ListByAddress", 2)
}

func TestNotificationService_Subscribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		address   string
		email     string
		setupMock func(*MockNotificationRequestStore)
		wantErr   error
	}{
		{
			name:    "stores lowercase address",
			address: testNewLender,
			email:   " lender@example.com ",
			setupMock: func(m *MockNotificationRequestStore) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r *model.NotificationRequest) bool {
					return r.EthereumAddress == strings.ToLower(testNewLender) &&
						r.DeliveryDestination == "lender@example.com" &&
						r.DeliveryMethod == model.DeliveryMethodEmail
				})).Return(nil)
			},
		},
		{
			name:      "invalid address",
			address:   "0x123",
			email:     "lender@example.com",
			setupMock: func(m *MockNotificationRequestStore) {},
			wantErr:   apperror.ErrValidation,
		},
		{
			name:      "invalid email",
			address:   testBorrower,
			email:     "lender.example.com",
			setupMock: func(m *MockNotificationRequestStore) {},
			wantErr:   apperror.ErrValidation,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := new(MockNotificationRequestStore)
			tt.setupMock(store)
			svc := newTestNotificationService(t, nil, store, nil, nil)

			req, err := svc.Subscribe(context.Background(), tt.address, tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, req.ID)
			store.AssertExpectations(t)
		})
	}
}

func TestNotificationService_Unsubscribe(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		store := new(MockNotificationRequestStore)
		store.On("Delete", mock.Anything, id, strings.ToLower(testNewLender)).Return(nil)
		svc := newTestNotificationService(t, nil, store, nil, nil)

		assert.NoError(t, svc.Unsubscribe(context.Background(), testNewLender, id))
	})

	t.Run("not found", func(t *testing.T) {
		store := new(MockNotificationRequestStore)
		store.On("Delete", mock.Anything, id, testBorrower).Return(repository.ErrNotificationRequestNotFound)
		svc := newTestNotificationService(t, nil, store, nil, nil)

		err := svc.Unsubscribe(context.Background(), testBorrower, id)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestNotificationService_ListRequests(t *testing.T) {
	t.Parallel()

	store := new(MockNotificationRequestStore)
	want := []model.NotificationRequest{emailRequest(testBorrower, "borrower@example.com")}
	store.On("ListByAddress", mock.Anything, testBorrower).Return(want, nil)
	svc := newTestNotificationService(t, nil, store, nil, nil)

	got, err := svc.ListRequests(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Nil(t, got)

	got, err = svc.ListRequests(context.Background(), testBorrower)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
