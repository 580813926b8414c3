package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) UserActive(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	args := m.Called(ctx, mobile)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, u *models.User, actorID int64, actorRole string) (*models.User, error) {
	args := m.Called(ctx, u, actorID, actorRole)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	args := m.Called(ctx, u)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	args := m.Called(ctx, userID, hash)
	return args.Error(0)
}

func (m *MockStore) ToggleUserActive(ctx context.Context, userID, actorID int64) (*models.User, error) {
	args := m.Called(ctx, userID, actorID)
	v0, _ := args.Get(0).(*models.User)
	return v0, args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context, f models.UserFilter) (models.Page[models.User], error) {
	args := m.Called(ctx, f)
	v0, _ := args.Get(0).(models.Page[models.User])
	return v0, args.Error(1)
}

func (m *MockStore) ListDepartmentOfficers(ctx context.Context, wardID int64, departmentID *int64) ([]models.User, error) {
	args := m.Called(ctx, wardID, departmentID)
	v0, _ := args.Get(0).([]models.User)
	return v0, args.Error(1)
}

func (m *MockStore) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	v0, _ := args.Get(0).(map[string]int64)
	return v0, args.Error(1)
}

func (m *MockStore) ListWards(ctx context.Context) ([]models.Ward, error) {
	args := m.Called(ctx)
	v0, _ := args.Get(0).([]models.Ward)
	return v0, args.Error(1)
}

func (m *MockStore) GetWard(ctx context.Context, id int64) (*models.Ward, error) {
	args := m.Called(ctx, id)
	v0, _ := args.Get(0).(*models.Ward)
	return v0, args.Error(1)
}

func (m *MockStore) CreateWard(ctx context.Context, req models.WardRequest, actorID int64) (*models.Ward, error) {
	args := m.Called(ctx, req, actorID)
	v0, _ := args.Get(0).(*models.Ward)
	return v0, args.Error(1)
}

func (m *MockStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	args := m.Called(ctx)
	v0, _ := args.Get(0).([]models.Department)
	return v0, args.Error(1)
}

func (m *MockStore) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	args := m.Called(ctx, id)
	v0, _ := args.Get(0).(*models.Department)
	return v0, args.Error(1)
}

func (m *MockStore) CreateDepartment(ctx context.Context, req models.DepartmentRequest, actorID int64) (*models.Department, error) {
	args := m.Called(ctx, req, actorID)
	v0, _ := args.Get(0).(*models.Department)
	return v0, args.Error(1)
}

func (m *MockStore) CreateComplaint(ctx context.Context, cm *models.Complaint) (*models.Complaint, error) {
	args := m.Called(ctx, cm)
	v0, _ := args.Get(0).(*models.Complaint)
	return v0, args.Error(1)
}

func (m *MockStore) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	v0, _ := args.Get(0).(*models.Complaint)
	return v0, args.Error(1)
}

func (m *MockStore) ListComplaints(ctx context.Context, f models.ComplaintFilter) (models.Page[models.Complaint], error) {
	args := m.Called(ctx, f)
	v0, _ := args.Get(0).(models.Page[models.Complaint])
	return v0, args.Error(1)
}

func (m *MockStore) ApplyTransition(ctx context.Context, t models.Transition) (*models.Complaint, error) {
	args := m.Called(ctx, t)
	v0, _ := args.Get(0).(*models.Complaint)
	return v0, args.Error(1)
}

func (m *MockStore) CountComplaintsByStatus(ctx context.Context, f models.ComplaintFilter) (models.StatusCounts, error) {
	args := m.Called(ctx, f)
	v0, _ := args.Get(0).(models.StatusCounts)
	return v0, args.Error(1)
}

func (m *MockStore) CountUnassigned(ctx context.Context, wardID int64) (int64, error) {
	args := m.Called(ctx, wardID)
	v0, _ := args.Get(0).(int64)
	return v0, args.Error(1)
}

func (m *MockStore) GetTimeline(ctx context.Context, complaintID int64) ([]models.TimelineEntry, error) {
	args := m.Called(ctx, complaintID)
	v0, _ := args.Get(0).([]models.TimelineEntry)
	return v0, args.Error(1)
}

func (m *MockStore) LeastLoadedOfficer(ctx context.Context, wardID, departmentID int64) (*int64, error) {
	args := m.Called(ctx, wardID, departmentID)
	v0, _ := args.Get(0).(*int64)
	return v0, args.Error(1)
}

func (m *MockStore) OfficerWorkload(ctx context.Context, wardID *int64) ([]models.OfficerLoad, error) {
	args := m.Called(ctx, wardID)
	v0, _ := args.Get(0).([]models.OfficerLoad)
	return v0, args.Error(1)
}

func (m *MockStore) AddImage(ctx context.Context, img *models.ComplaintImage) (*models.ComplaintImage, error) {
	args := m.Called(ctx, img)
	v0, _ := args.Get(0).(*models.ComplaintImage)
	return v0, args.Error(1)
}

func (m *MockStore) ListImages(ctx context.Context, complaintID int64) ([]models.ComplaintImage, error) {
	args := m.Called(ctx, complaintID)
	v0, _ := args.Get(0).([]models.ComplaintImage)
	return v0, args.Error(1)
}

func (m *MockStore) GetImage(ctx context.Context, complaintID, imageID int64) (*models.ComplaintImage, error) {
	args := m.Called(ctx, complaintID, imageID)
	v0, _ := args.Get(0).(*models.ComplaintImage)
	return v0, args.Error(1)
}

func (m *MockStore) AddFeedback(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	args := m.Called(ctx, fb)
	v0, _ := args.Get(0).(*models.Feedback)
	return v0, args.Error(1)
}

func (m *MockStore) GetFeedback(ctx context.Context, complaintID int64) (*models.Feedback, error) {
	args := m.Called(ctx, complaintID)
	v0, _ := args.Get(0).(*models.Feedback)
	return v0, args.Error(1)
}

func (m *MockStore) ListSLARecords(ctx context.Context, f models.ComplaintFilter) ([]models.SLARecord, error) {
	args := m.Called(ctx, f)
	v0, _ := args.Get(0).([]models.SLARecord)
	return v0, args.Error(1)
}

func (m *MockStore) WardPerformance(ctx context.Context) ([]models.WardPerformance, error) {
	args := m.Called(ctx)
	v0, _ := args.Get(0).([]models.WardPerformance)
	return v0, args.Error(1)
}

func (m *MockStore) DepartmentPerformance(ctx context.Context, wardID *int64) ([]models.DepartmentPerformance, error) {
	args := m.Called(ctx, wardID)
	v0, _ := args.Get(0).([]models.DepartmentPerformance)
	return v0, args.Error(1)
}

func (m *MockStore) Trends(ctx context.Context, days int, wardID *int64) ([]models.TrendPoint, error) {
	args := m.Called(ctx, days, wardID)
	v0, _ := args.Get(0).([]models.TrendPoint)
	return v0, args.Error(1)
}

func (m *MockStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	args := m.Called(ctx, n)
	v0, _ := args.Get(0).(*models.Notification)
	return v0, args.Error(1)
}

func (m *MockStore) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, p models.Pagination) (models.Page[models.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, p)
	v0, _ := args.Get(0).(models.Page[models.Notification])
	return v0, args.Error(1)
}

func (m *MockStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	v0, _ := args.Get(0).(int64)
	return v0, args.Error(1)
}

func (m *MockStore) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockStore) ClearReadNotifications(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	v0, _ := args.Get(0).(int64)
	return v0, args.Error(1)
}

func (m *MockStore) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	v0, _ := args.Get(0).(int64)
	return v0, args.Error(1)
}

func (m *MockStore) DeleteNotification(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockStore) CreateWardChange(ctx context.Context, r *models.WardChangeRequest) (*models.WardChangeRequest, error) {
	args := m.Called(ctx, r)
	v0, _ := args.Get(0).(*models.WardChangeRequest)
	return v0, args.Error(1)
}

func (m *MockStore) GetWardChange(ctx context.Context, id int64) (*models.WardChangeRequest, error) {
	args := m.Called(ctx, id)
	v0, _ := args.Get(0).(*models.WardChangeRequest)
	return v0, args.Error(1)
}

func (m *MockStore) ListWardChangesByCitizen(ctx context.Context, citizenID int64) ([]models.WardChangeRequest, error) {
	args := m.Called(ctx, citizenID)
	v0, _ := args.Get(0).([]models.WardChangeRequest)
	return v0, args.Error(1)
}

func (m *MockStore) ListPendingWardChanges(ctx context.Context, scope models.WardChangeScope) ([]models.WardChangeRequest, error) {
	args := m.Called(ctx, scope)
	v0, _ := args.Get(0).([]models.WardChangeRequest)
	return v0, args.Error(1)
}

func (m *MockStore) DecideWardChange(ctx context.Context, id int64, approve bool, deciderID int64, deciderRole, remarks string) (*models.WardChangeRequest, error) {
	args := m.Called(ctx, id, approve, deciderID, deciderRole, remarks)
	v0, _ := args.Get(0).(*models.WardChangeRequest)
	return v0, args.Error(1)
}

func (m *MockStore) CountPendingWardChanges(ctx context.Context, wardID int64) (int64, error) {
	args := m.Called(ctx, wardID)
	v0, _ := args.Get(0).(int64)
	return v0, args.Error(1)
}

func (m *MockStore) UpsertOTPChallenge(ctx context.Context, ch *models.OTPChallenge) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockStore) ClaimOTPAttempt(ctx context.Context, userID int64, maxAttempts int, now time.Time) (*models.OTPChallenge, error) {
	args := m.Called(ctx, userID, maxAttempts, now)
	v0, _ := args.Get(0).(*models.OTPChallenge)
	return v0, args.Error(1)
}

func (m *MockStore) DeleteOTPChallenge(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStore) ApplyVerifiedMobile(ctx context.Context, userID int64, mobile string) error {
	args := m.Called(ctx, userID, mobile)
	return args.Error(0)
}

func (m *MockStore) ListAuditLogs(ctx context.Context, f models.AuditFilter) (models.Page[models.AuditLog], error) {
	args := m.Called(ctx, f)
	v0, _ := args.Get(0).(models.Page[models.AuditLog])
	return v0, args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.ComplaintEvent
	Err    error
}

func (m *MockPublisher) Publish(event events.ComplaintEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

// Types returns the types of the published events in order.
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, complaintID int64, contentType string, body io.Reader, size int64) (string, error) {
	args := m.Called(ctx, complaintID, contentType, body, size)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if s, ok := args.Get(0).(string); ok {
		return io.NopCloser(strings.NewReader(s)), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
