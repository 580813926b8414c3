package services

import (
	"context"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/appconfig"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/storage"
	"github.com/civicconnect/civicconnect-services/models"
)

// Store is the persistence used by the API. It is implemented by db.CivicDB.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	UserActive(ctx context.Context, id int64) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User, actorID int64, actorRole string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	ToggleUserActive(ctx context.Context, userID, actorID int64) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) (models.Page[models.User], error)
	ListDepartmentOfficers(ctx context.Context, wardID int64, departmentID *int64) ([]models.User, error)
	CountUsersByRole(ctx context.Context) (map[string]int64, error)

	ListWards(ctx context.Context) ([]models.Ward, error)
	GetWard(ctx context.Context, id int64) (*models.Ward, error)
	CreateWard(ctx context.Context, req models.WardRequest, actorID int64) (*models.Ward, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	CreateDepartment(ctx context.Context, req models.DepartmentRequest, actorID int64) (*models.Department, error)

	CreateComplaint(ctx context.Context, cm *models.Complaint) (*models.Complaint, error)
	GetComplaint(ctx context.Context, id int64) (*models.Complaint, error)
	ListComplaints(ctx context.Context, f models.ComplaintFilter) (models.Page[models.Complaint], error)
	ApplyTransition(ctx context.Context, t models.Transition) (*models.Complaint, error)
	CountComplaintsByStatus(ctx context.Context, f models.ComplaintFilter) (models.StatusCounts, error)
	CountUnassigned(ctx context.Context, wardID int64) (int64, error)
	GetTimeline(ctx context.Context, complaintID int64) ([]models.TimelineEntry, error)
	LeastLoadedOfficer(ctx context.Context, wardID, departmentID int64) (*int64, error)
	OfficerWorkload(ctx context.Context, wardID *int64) ([]models.OfficerLoad, error)
	AddImage(ctx context.Context, img *models.ComplaintImage) (*models.ComplaintImage, error)
	ListImages(ctx context.Context, complaintID int64) ([]models.ComplaintImage, error)
	GetImage(ctx context.Context, complaintID, imageID int64) (*models.ComplaintImage, error)
	AddFeedback(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	GetFeedback(ctx context.Context, complaintID int64) (*models.Feedback, error)

	ListSLARecords(ctx context.Context, f models.ComplaintFilter) ([]models.SLARecord, error)
	WardPerformance(ctx context.Context) ([]models.WardPerformance, error)
	DepartmentPerformance(ctx context.Context, wardID *int64) ([]models.DepartmentPerformance, error)
	Trends(ctx context.Context, days int, wardID *int64) ([]models.TrendPoint, error)

	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, p models.Pagination) (models.Page[models.Notification], error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, userID, id int64) error
	ClearReadNotifications(ctx context.Context, userID int64) (int64, error)

	CreateWardChange(ctx context.Context, r *models.WardChangeRequest) (*models.WardChangeRequest, error)
	GetWardChange(ctx context.Context, id int64) (*models.WardChangeRequest, error)
	ListWardChangesByCitizen(ctx context.Context, citizenID int64) ([]models.WardChangeRequest, error)
	ListPendingWardChanges(ctx context.Context, scope models.WardChangeScope) ([]models.WardChangeRequest, error)
	DecideWardChange(ctx context.Context, id int64, approve bool, deciderID int64, deciderRole, remarks string) (*models.WardChangeRequest, error)
	CountPendingWardChanges(ctx context.Context, wardID int64) (int64, error)

	UpsertOTPChallenge(ctx context.Context, ch *models.OTPChallenge) error
	ClaimOTPAttempt(ctx context.Context, userID int64, maxAttempts int, now time.Time) (*models.OTPChallenge, error)
	DeleteOTPChallenge(ctx context.Context, userID int64) error
	ApplyVerifiedMobile(ctx context.Context, userID int64, mobile string) error

	ListAuditLogs(ctx context.Context, f models.AuditFilter) (models.Page[models.AuditLog], error)
}

// Publisher delivers complaint events to the notification pipeline.
type Publisher interface {
	Publish(event events.ComplaintEvent) error
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config    *appconfig.Config
	DB        Store
	Publisher Publisher
	Mailer    mail.Mailer
	// Images is nil when no bucket is configured.
	Images storage.ImageStore
	Tokens *authn.TokenIssuer
	SLA    sla.Calculator
	Now    func() time.Time
}

func (svc *Service) now() time.Time {
	if svc.Now != nil {
		return svc.Now()
	}
	return time.Now().UTC()
}
