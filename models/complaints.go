package models

import (
	"time"

	"github.com/civicconnect/civicconnect-services/internal/sla"
)

// Complaint is a civic complaint raised by a citizen.
type Complaint struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Status              string      `json:"status"`
	Priority            string      `json:"priority"`
	WardID              int64       `json:"wardId"`
	WardName            string      `json:"wardName,omitempty"`
	DepartmentID        int64       `json:"departmentId"`
	DepartmentName      string      `json:"departmentName,omitempty"`
	CitizenID           int64       `json:"citizenId"`
	CitizenName         string      `json:"citizenName,omitempty"`
	AssignedOfficerID   *int64      `json:"assignedOfficerId,omitempty"`
	AssignedOfficerName string      `json:"assignedOfficerName,omitempty"`
	Location            string      `json:"location,omitempty"`
	Latitude            *float64    `json:"latitude,omitempty"`
	Longitude           *float64    `json:"longitude,omitempty"`
	SLAHours            int         `json:"slaHours"`
	SLADeadline         *time.Time  `json:"slaDeadline,omitempty"`
	SLAStartedAt        time.Time   `json:"slaStartedAt"`
	SLABreached         bool        `json:"slaBreached"`
	SLAWarningSent      bool        `json:"-"`
	ReopenCount         int         `json:"reopenCount"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
	AssignedAt          *time.Time  `json:"assignedAt,omitempty"`
	ResolvedAt          *time.Time  `json:"resolvedAt,omitempty"`
	ApprovedAt          *time.Time  `json:"approvedAt,omitempty"`
	ClosedAt            *time.Time  `json:"closedAt,omitempty"`
	SLA                 *sla.Result `json:"sla,omitempty"`
	AllowedActions      []string    `json:"allowedActions,omitempty"`
}

// SLAInput converts the stored complaint into the SLA calculator input.
func (c Complaint) SLAInput() sla.Input {
	return sla.Input{
		CreatedAt:       c.CreatedAt,
		StartedAt:       c.SLAStartedAt,
		SLAHours:        c.SLAHours,
		Deadline:        c.SLADeadline,
		ComplaintStatus: c.Status,
		ResolvedAt:      c.ResolvedAt,
		Breached:        c.SLABreached,
	}
}

// ComplaintFilter narrows complaint lists. Nil fields do not filter.
type ComplaintFilter struct {
	Statuses          []string
	WardID            *int64
	DepartmentID      *int64
	CitizenID         *int64
	AssignedOfficerID *int64
	Query             string
	From              *time.Time
	To                *time.Time
	WithLocation      bool
	Pagination
}

type CreateComplaintRequest struct {
	Title        string   `json:"title" validate:"required,min=5,max=200"`
	Description  string   `json:"description" validate:"required,min=10,max=2000"`
	DepartmentID int64    `json:"departmentId" validate:"required,gte=1"`
	WardID       int64    `json:"wardId" validate:"omitempty,gte=1"`
	Location     string   `json:"location" validate:"max=255"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// ActionRequest carries optional remarks with a workflow action.
type ActionRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

// RejectRequest requires a reason.
type RejectRequest struct {
	Remarks string `json:"remarks" validate:"required,min=5,max=1000"`
}

type AssignRequest struct {
	OfficerID int64  `json:"officerId" validate:"required,gte=1"`
	Remarks   string `json:"remarks" validate:"max=1000"`
}

// StatusUpdateRequest moves a complaint to an explicit status.
type StatusUpdateRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

type ReopenRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=1000"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// Transition is a status change applied with compare-and-set on From.
type Transition struct {
	ComplaintID int64
	From        string
	To          string
	Action      string
	ActorID     int64
	ActorRole   string
	Remarks     string
	OfficerID   *int64
	At          time.Time
}

// TimelineEntry is one row of a complaint's status history.
type TimelineEntry struct {
	ID          int64     `json:"id"`
	ComplaintID int64     `json:"complaintId"`
	FromStatus  string    `json:"fromStatus,omitempty"`
	ToStatus    string    `json:"toStatus"`
	Action      string    `json:"action"`
	ActorID     *int64    `json:"actorId,omitempty"`
	ActorName   string    `json:"actorName,omitempty"`
	ActorRole   string    `json:"actorRole"`
	Remarks     string    `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ComplaintImage is metadata of a photo stored in the image store.
type ComplaintImage struct {
	ID          int64     `json:"id"`
	ComplaintID int64     `json:"complaintId"`
	Stage       string    `json:"stage"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedBy  int64     `json:"uploadedBy"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Feedback struct {
	ID          int64     `json:"id"`
	ComplaintID int64     `json:"complaintId"`
	CitizenID   int64     `json:"citizenId"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ComplaintDetails is the full view of a complaint.
type ComplaintDetails struct {
	Complaint Complaint        `json:"complaint"`
	Timeline  []TimelineEntry  `json:"timeline"`
	Images    []ComplaintImage `json:"images"`
	Feedback  *Feedback        `json:"feedback,omitempty"`
}

// OfficerLoad is an officer's count of open complaints.
type OfficerLoad struct {
	OfficerID      int64  `json:"officerId"`
	Name           string `json:"name"`
	WardID         int64  `json:"wardId"`
	WardName       string `json:"wardName,omitempty"`
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName,omitempty"`
	Active         bool   `json:"active"`
	OpenCount      int64  `json:"openCount"`
}
