package models

import "time"

type Ward struct {
	ID       int64  `json:"id"`
	Number   int    `json:"wardNumber"`
	AreaName string `json:"areaName"`
	Zone     string `json:"zone,omitempty"`
}

type WardRequest struct {
	Number   int    `json:"wardNumber" validate:"required,gte=1"`
	AreaName string `json:"areaName" validate:"required,min=2,max=100"`
	Zone     string `json:"zone" validate:"max=50"`
}

type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	SLAHours    int    `json:"slaHours"`
	Priority    string `json:"priority"`
	Description string `json:"description,omitempty"`
}

type DepartmentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	SLAHours    int    `json:"slaHours" validate:"required,gte=1,lte=720"`
	Priority    string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description string `json:"description" validate:"max=500"`
}

// Ward change request statuses
const (
	WardChangePending  = "PENDING"
	WardChangeApproved = "APPROVED"
	WardChangeRejected = "REJECTED"
)

// WardChangeRequest is a citizen's request to move to another ward.
type WardChangeRequest struct {
	ID                int64      `json:"id"`
	CitizenID         int64      `json:"citizenId"`
	CitizenName       string     `json:"citizenName,omitempty"`
	CurrentWardID     int64      `json:"currentWardId"`
	CurrentWardName   string     `json:"currentWardName,omitempty"`
	RequestedWardID   int64      `json:"requestedWardId"`
	RequestedWardName string     `json:"requestedWardName,omitempty"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	DecidedBy         *int64     `json:"decidedBy,omitempty"`
	DecisionRemarks   string     `json:"decisionRemarks,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	DecidedAt         *time.Time `json:"decidedAt,omitempty"`
}

type WardChangeCreate struct {
	RequestedWardID int64  `json:"requestedWardId" validate:"required,gte=1"`
	Reason          string `json:"reason" validate:"required,min=10,max=500"`
}

type WardChangeDecision struct {
	Remarks string `json:"remarks" validate:"max=500"`
}

// WardChangeScope limits pending requests to those touching a ward. A nil
// ward means all requests.
type WardChangeScope struct {
	WardID *int64
}
