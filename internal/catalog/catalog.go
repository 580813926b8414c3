// Package catalog holds the static reference tables shared by the API and
// the database seed: roles, complaint statuses, departments, wards, image
// stages, notification types and feedback ratings.
package catalog

// DefaultSLAHours is used when a department has no SLA configured.
const DefaultSLAHours = 48

// User roles
const (
	RoleCitizen           = "CITIZEN"
	RoleWardOfficer       = "WARD_OFFICER"
	RoleDepartmentOfficer = "DEPARTMENT_OFFICER"
	RoleAdmin             = "ADMIN"

	// RoleSystem is used for automatic actions such as auto-assignment.
	RoleSystem = "SYSTEM"
)

// Complaint statuses
const (
	StatusSubmitted  = "SUBMITTED"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusApproved   = "APPROVED"
	StatusClosed     = "CLOSED"
	StatusReopened   = "REOPENED"
	StatusRejected   = "REJECTED"
)

// Image stages
const (
	StageBeforeWork      = "BEFORE_WORK"
	StageInProgress      = "IN_PROGRESS"
	StageAfterResolution = "AFTER_RESOLUTION"
)

// Notification types
const (
	NotifyComplaintCreated = "COMPLAINT_CREATED"
	NotifyAssignment       = "ASSIGNMENT"
	NotifyStatusUpdate     = "STATUS_UPDATE"
	NotifySLAWarning       = "SLA_WARNING"
	NotifySLABreached      = "SLA_BREACHED"
	NotifyReopened         = "REOPENED"
	NotifyFeedbackRequest  = "FEEDBACK_REQUEST"
	NotifySystem           = "SYSTEM"
)

// Display is the UI metadata attached to a code.
type Display struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// DepartmentInfo describes a municipal department and its resolution budget.
type DepartmentInfo struct {
	ID          int64  `json:"departmentId"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	SLAHours    int    `json:"slaHours"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// WardInfo describes an administrative ward.
type WardInfo struct {
	ID       int64  `json:"wardId"`
	Number   int    `json:"number"`
	AreaName string `json:"areaName"`
	Zone     string `json:"zone"`
}

// Rating is a feedback rating option.
type Rating struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var RoleRoutes = map[string]string{
	RoleCitizen:           "/citizen/dashboard",
	RoleDepartmentOfficer: "/department/dashboard",
	RoleWardOfficer:       "/ward-officer/dashboard",
	RoleAdmin:             "/admin/dashboard",
}

var Statuses = []Display{
	{Code: StatusSubmitted, Label: "Submitted", Color: "secondary", Icon: "📋", Description: "Complaint has been submitted and awaiting assignment"},
	{Code: StatusAssigned, Label: "Assigned", Color: "info", Icon: "📌", Description: "Assigned to department officer"},
	{Code: StatusInProgress, Label: "In Progress", Color: "warning", Icon: "🔧", Description: "Officer is working on the complaint"},
	{Code: StatusResolved, Label: "Resolved", Color: "success", Icon: "✅", Description: "Work completed, awaiting ward officer approval"},
	{Code: StatusApproved, Label: "Approved", Color: "success", Icon: "✓", Description: "Approved by ward officer"},
	{Code: StatusClosed, Label: "Closed", Color: "dark", Icon: "🔒", Description: "Complaint has been closed"},
	{Code: StatusReopened, Label: "Reopened", Color: "danger", Icon: "🔁", Description: "Complaint has been reopened by citizen"},
	{Code: StatusRejected, Label: "Rejected", Color: "danger", Icon: "❌", Description: "Rejected by ward officer"},
}

var Departments = []DepartmentInfo{
	{ID: 1, Name: "Water Supply", Icon: "💧", Color: "primary", SLAHours: 24, Priority: "HIGH", Description: "No water, leakage, low pressure"},
	{ID: 2, Name: "Sanitation", Icon: "🚽", Color: "info", SLAHours: 36, Priority: "MEDIUM", Description: "Public toilets, cleanliness"},
	{ID: 3, Name: "Roads", Icon: "🛣️", Color: "warning", SLAHours: 72, Priority: "LOW", Description: "Potholes, damaged roads"},
	{ID: 4, Name: "Electricity", Icon: "💡", Color: "warning", SLAHours: 24, Priority: "HIGH", Description: "Street lights, power issues"},
	{ID: 5, Name: "Waste Management", Icon: "🗑️", Color: "success", SLAHours: 12, Priority: "CRITICAL", Description: "Garbage collection"},
	{ID: 6, Name: "Public Safety", Icon: "⚠️", Color: "danger", SLAHours: 6, Priority: "CRITICAL", Description: "Open manholes, hazards"},
	{ID: 7, Name: "Health", Icon: "🏥", Color: "danger", SLAHours: 48, Priority: "MEDIUM", Description: "Mosquitoes, hygiene"},
	{ID: 8, Name: "Education", Icon: "🎓", Color: "secondary", SLAHours: 96, Priority: "LOW", Description: "School infrastructure"},
}

var Wards = []WardInfo{
	{ID: 1, Number: 1, AreaName: "Shivaji Nagar", Zone: "Central"},
	{ID: 2, Number: 2, AreaName: "Kothrud", Zone: "West"},
	{ID: 3, Number: 3, AreaName: "Hadapsar", Zone: "East"},
	{ID: 4, Number: 4, AreaName: "Baner", Zone: "North"},
	{ID: 5, Number: 5, AreaName: "Kasba Peth", Zone: "Central"},
}

var ImageStages = []Display{
	{Code: StageBeforeWork, Label: "Before Work", Color: "secondary", Icon: "📸", Description: "Initial state of the complaint area"},
	{Code: StageInProgress, Label: "Work in Progress", Color: "warning", Icon: "🔧", Description: "Photos during the work"},
	{Code: StageAfterResolution, Label: "After Resolution", Color: "success", Icon: "✅", Description: "Final state after work completion"},
}

var NotificationTypes = []Display{
	{Code: NotifyComplaintCreated, Label: "Complaint Created", Color: "primary", Icon: "📝"},
	{Code: NotifyAssignment, Label: "Assignment", Color: "info", Icon: "📌"},
	{Code: NotifyStatusUpdate, Label: "Status Update", Color: "primary", Icon: "🔄"},
	{Code: NotifySLAWarning, Label: "SLA Warning", Color: "warning", Icon: "⚠️"},
	{Code: NotifySLABreached, Label: "SLA Breached", Color: "danger", Icon: "🚨"},
	{Code: NotifyReopened, Label: "Reopened", Color: "warning", Icon: "🔁"},
	{Code: NotifyFeedbackRequest, Label: "Feedback Request", Color: "info", Icon: "⭐"},
	{Code: NotifySystem, Label: "System", Color: "secondary", Icon: "🔔"},
}

var SLAStatuses = []Display{
	{Code: "ACTIVE", Label: "Active", Color: "success", Icon: "✅"},
	{Code: "WARNING", Label: "Warning", Color: "warning", Icon: "⚠️"},
	{Code: "BREACHED", Label: "Breached", Color: "danger", Icon: "🚨"},
	{Code: "MET", Label: "Met", Color: "info", Icon: "✓"},
	{Code: "COMPLETED", Label: "Completed", Color: "info", Icon: "✓"},
}

var Ratings = []Rating{
	{Value: 5, Label: "Excellent", Color: "success"},
	{Value: 4, Label: "Good", Color: "primary"},
	{Value: 3, Label: "Average", Color: "warning"},
	{Value: 2, Label: "Poor", Color: "danger"},
	{Value: 1, Label: "Very Poor", Color: "danger"},
}

// Status returns the display metadata for a status code.
func Status(code string) (Display, bool) {
	return lookup(Statuses, code)
}

// Department returns the department with the given id.
func Department(id int64) (DepartmentInfo, bool) {
	for _, d := range Departments {
		if d.ID == id {
			return d, true
		}
	}
	return DepartmentInfo{}, false
}

// DepartmentSLAHours returns the SLA budget of a department, falling back to
// DefaultSLAHours for unknown departments.
func DepartmentSLAHours(id int64) int {
	if d, ok := Department(id); ok && d.SLAHours > 0 {
		return d.SLAHours
	}
	return DefaultSLAHours
}

// Ward returns the ward with the given id.
func Ward(id int64) (WardInfo, bool) {
	for _, w := range Wards {
		if w.ID == id {
			return w, true
		}
	}
	return WardInfo{}, false
}

func ValidStatus(code string) bool {
	_, ok := Status(code)
	return ok
}

func ValidRole(role string) bool {
	_, ok := RoleRoutes[role]
	return ok
}

func ValidImageStage(stage string) bool {
	_, ok := lookup(ImageStages, stage)
	return ok
}

func ValidRating(v int) bool {
	return v >= 1 && v <= 5
}

func lookup(table []Display, code string) (Display, bool) {
	for _, d := range table {
		if d.Code == code {
			return d, true
		}
	}
	return Display{}, false
}
