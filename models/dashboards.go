package models

import (
	"time"

	"github.com/civicconnect/civicconnect-services/internal/sla"
)

// StatusCounts maps a complaint status to its count.
type StatusCounts map[string]int64

func (s StatusCounts) Total() int64 {
	var n int64
	for _, v := range s {
		n += v
	}
	return n
}

type CitizenDashboard struct {
	TotalComplaints     int64        `json:"totalComplaints"`
	OpenComplaints      int64        `json:"openComplaints"`
	ResolvedComplaints  int64        `json:"resolvedComplaints"`
	ByStatus            StatusCounts `json:"byStatus"`
	RecentComplaints    []Complaint  `json:"recentComplaints"`
	UnreadNotifications int64        `json:"unreadNotifications"`
	ProfileCompletion   int          `json:"profileCompletion"`
}

type WardDashboard struct {
	WardID           int64         `json:"wardId"`
	TotalComplaints  int64         `json:"totalComplaints"`
	ByStatus         StatusCounts  `json:"byStatus"`
	PendingApproval  int64         `json:"pendingApproval"`
	Unassigned       int64         `json:"unassigned"`
	PendingWardMoves int64         `json:"pendingWardChanges"`
	SLA              sla.Summary   `json:"sla"`
	OfficerWorkload  []OfficerLoad `json:"officerWorkload"`
}

type DepartmentDashboard struct {
	OfficerID        int64        `json:"officerId"`
	TotalAssigned    int64        `json:"totalAssigned"`
	ByStatus         StatusCounts `json:"byStatus"`
	SLA              sla.Summary  `json:"sla"`
	RecentComplaints []Complaint  `json:"recentComplaints"`
}

type AdminDashboard struct {
	TotalComplaints int64             `json:"totalComplaints"`
	ByStatus        StatusCounts      `json:"byStatus"`
	TotalUsers      int64             `json:"totalUsers"`
	UsersByRole     map[string]int64  `json:"usersByRole"`
	PendingClosure  int64             `json:"pendingClosure"`
	SLA             sla.Summary       `json:"sla"`
	WardPerformance []WardPerformance `json:"wardPerformance"`
}

// Performance is the shared shape of ward and department analytics.
type Performance struct {
	Total              int64   `json:"total"`
	Resolved           int64   `json:"resolved"`
	Open               int64   `json:"open"`
	Breached           int     `json:"breached"`
	ComplianceRate     float64 `json:"complianceRate"`
	AvgResolutionHours float64 `json:"avgResolutionHours"`
}

type WardPerformance struct {
	WardID   int64  `json:"wardId"`
	WardName string `json:"wardName"`
	Performance
}

type DepartmentPerformance struct {
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	Performance
}

// TrendPoint is the number of complaints created and resolved on a day.
type TrendPoint struct {
	Date     string `json:"date"`
	Created  int64  `json:"created"`
	Resolved int64  `json:"resolved"`
}

// SLARecord is the SLA input of one complaint with its grouping keys.
type SLARecord struct {
	ComplaintID  int64
	WardID       int64
	DepartmentID int64
	Input        sla.Input
}

// SLAAnalytics is the SLA chart payload.
type SLAAnalytics struct {
	Summary      sla.Summary            `json:"summary"`
	ByDepartment map[string]sla.Summary `json:"byDepartment"`
}

// MapMarker is a located complaint as drawn on the map.
type MapMarker struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	WardID         int64      `json:"wardId"`
	WardName       string     `json:"wardName,omitempty"`
	DepartmentID   int64      `json:"departmentId"`
	DepartmentName string     `json:"departmentName,omitempty"`
	Location       string     `json:"location,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	SLAStatus      sla.Status `json:"slaStatus"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// MapStatistics counts the complaints behind a map view. Critical ones are
// open with a breached SLA.
type MapStatistics struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Active   int `json:"active"`
	Resolved int `json:"resolved"`
}

type MapMarkers struct {
	Complaints []MapMarker   `json:"complaints"`
	Stats      MapStatistics `json:"stats"`
}
