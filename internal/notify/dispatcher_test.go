package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	args := m.Called(ctx, n)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return n, nil
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context, f models.UserFilter) (models.Page[models.User], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.Page[models.User]), args.Error(1)
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func newDispatcher(store *mockStore, mailer mail.Mailer) *Dispatcher {
	logger := zerolog.Nop()
	return &Dispatcher{Store: store, Mailer: mailer, Log: &logger}
}

func wardOfficers(ids ...int64) models.Page[models.User] {
	var users []models.User
	for _, id := range ids {
		users = append(users, models.User{ID: id, Role: catalog.RoleWardOfficer})
	}
	return models.NewPage(users, models.Pagination{Size: models.MaxPageSize}, int64(len(users)))
}

func TestHandleCreatedNotifiesCitizenAndWardOfficers(t *testing.T) {
	store := &mockStore{}
	mailer := &recordingMailer{}

	store.On("ListUsers", mock.Anything, mock.MatchedBy(func(f models.UserFilter) bool {
		return f.Role == catalog.RoleWardOfficer && f.WardID != nil && *f.WardID == 3
	})).Return(wardOfficers(20, 21), nil)
	store.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)
	store.On("GetUser", mock.Anything, int64(10)).Return(&models.User{ID: 10, Name: "Asha", Email: "asha@example.com"}, nil)

	event := events.NewComplaintEvent(events.TypeCreated, 5)
	event.CitizenID = 10
	event.WardID = 3
	event.Title = "Broken streetlight"

	require.NoError(t, newDispatcher(store, mailer).Handle(context.Background(), event))

	store.AssertNumberOfCalls(t, "CreateNotification", 3)
	created := store.Calls[1].Arguments.Get(1).(*models.Notification)
	assert.Equal(t, int64(10), created.UserID)
	assert.Equal(t, catalog.NotifyComplaintCreated, created.Type)
	require.NotNil(t, created.ComplaintID)
	assert.Equal(t, int64(5), *created.ComplaintID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "asha@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "Broken streetlight")
}

func TestHandleClosedRequestsFeedbackOncePerUser(t *testing.T) {
	store := &mockStore{}
	var types []string
	store.On("CreateNotification", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		types = append(types, args.Get(1).(*models.Notification).Type)
	}).Return(nil)

	event := events.NewComplaintEvent(events.TypeStatusChanged, 8)
	event.CitizenID = 10
	event.Status = catalog.StatusClosed
	event.PreviousStatus = catalog.StatusApproved

	require.NoError(t, newDispatcher(store, nil).Handle(context.Background(), event))

	// The feedback request targets the same citizen and is collapsed.
	assert.Equal(t, []string{catalog.NotifyStatusUpdate}, types)
}

func TestHandleRejectedResolutionNotifiesOfficer(t *testing.T) {
	store := &mockStore{}
	var users []int64
	store.On("CreateNotification", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		users = append(users, args.Get(1).(*models.Notification).UserID)
	}).Return(nil)

	officer := int64(30)
	event := events.NewComplaintEvent(events.TypeStatusChanged, 8)
	event.CitizenID = 10
	event.AssignedOfficerID = &officer
	event.Status = catalog.StatusInProgress
	event.PreviousStatus = catalog.StatusResolved
	event.Remarks = "Photos missing"

	require.NoError(t, newDispatcher(store, nil).Handle(context.Background(), event))
	assert.Equal(t, []int64{10, 30}, users)
}

func TestHandleSLAWarningUnassignedGoesToWardOfficers(t *testing.T) {
	store := &mockStore{}
	store.On("ListUsers", mock.Anything, mock.Anything).Return(wardOfficers(20), nil)
	store.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == 20 && n.Type == catalog.NotifySLAWarning
	})).Return(nil).Once()

	event := events.NewComplaintEvent(events.TypeSLAWarning, 8)
	event.WardID = 1

	require.NoError(t, newDispatcher(store, nil).Handle(context.Background(), event))
	store.AssertExpectations(t)
}

func TestHandleReturnsStoreErrors(t *testing.T) {
	store := &mockStore{}
	store.On("CreateNotification", mock.Anything, mock.Anything).Return(errors.New("db down"))

	event := events.NewComplaintEvent(events.TypeFeedback, 8)
	officer := int64(30)
	event.AssignedOfficerID = &officer

	err := newDispatcher(store, nil).Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestHandleEmailFailureIsNotFatal(t *testing.T) {
	store := &mockStore{}
	store.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)
	store.On("GetUser", mock.Anything, int64(10)).Return(&models.User{ID: 10, Email: "asha@example.com"}, nil)
	mailer := &recordingMailer{err: errors.New("ses throttled")}

	event := events.NewComplaintEvent(events.TypeWardChangeDecide, 0)
	event.CitizenID = 10
	event.Status = models.WardChangeApproved
	event.WardID = 2

	require.NoError(t, newDispatcher(store, mailer).Handle(context.Background(), event))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "ward 2")

	n := store.Calls[0].Arguments.Get(1).(*models.Notification)
	assert.Nil(t, n.ComplaintID)
}

func TestHandleUnknownTypeIsIgnored(t *testing.T) {
	store := &mockStore{}
	require.NoError(t, newDispatcher(store, nil).Handle(context.Background(), events.NewComplaintEvent("OTHER", 1)))
	store.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}
