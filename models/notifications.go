package models

import "time"

type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	ComplaintID *int64    `json:"complaintId,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

// AuditLog records who did what to which entity.
type AuditLog struct {
	ID         int64     `json:"id"`
	ActorID    *int64    `json:"actorId,omitempty"`
	ActorName  string    `json:"actorName,omitempty"`
	ActorRole  string    `json:"actorRole"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AuditFilter struct {
	EntityType string
	EntityID   *int64
	ActorID    *int64
	Action     string
	Pagination
}
