// Package workflow enforces the complaint lifecycle: which status may follow
// which, and which role is allowed to make the move.
package workflow

import (
	"errors"
	"fmt"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbiddenRole     = errors.New("role not permitted for this transition")
)

// Action names as exposed to clients.
const (
	ActionAssign  = "assign"
	ActionReject  = "reject"
	ActionStart   = "start"
	ActionResolve = "resolve"
	ActionApprove = "approve"
	ActionClose   = "close"
	ActionReopen  = "reopen"
)

// Transition is one allowed edge of the lifecycle.
type Transition struct {
	From   string
	To     string
	Action string
	Roles  []string
}

var transitions = []Transition{
	{From: catalog.StatusSubmitted, To: catalog.StatusAssigned, Action: ActionAssign,
		Roles: []string{catalog.RoleWardOfficer, catalog.RoleAdmin, catalog.RoleSystem}},
	{From: catalog.StatusSubmitted, To: catalog.StatusRejected, Action: ActionReject,
		Roles: []string{catalog.RoleWardOfficer}},
	{From: catalog.StatusReopened, To: catalog.StatusAssigned, Action: ActionAssign,
		Roles: []string{catalog.RoleWardOfficer, catalog.RoleAdmin, catalog.RoleSystem}},
	{From: catalog.StatusAssigned, To: catalog.StatusInProgress, Action: ActionStart,
		Roles: []string{catalog.RoleDepartmentOfficer}},
	{From: catalog.StatusInProgress, To: catalog.StatusResolved, Action: ActionResolve,
		Roles: []string{catalog.RoleDepartmentOfficer}},
	{From: catalog.StatusResolved, To: catalog.StatusApproved, Action: ActionApprove,
		Roles: []string{catalog.RoleWardOfficer}},
	// A rejected resolution goes back to the department officer.
	{From: catalog.StatusResolved, To: catalog.StatusInProgress, Action: ActionReject,
		Roles: []string{catalog.RoleWardOfficer}},
	{From: catalog.StatusApproved, To: catalog.StatusClosed, Action: ActionClose,
		Roles: []string{catalog.RoleAdmin}},
	{From: catalog.StatusClosed, To: catalog.StatusReopened, Action: ActionReopen,
		Roles: []string{catalog.RoleCitizen}},
}

// CanTransition reports whether role may move a complaint from one status to another.
func CanTransition(from, to, role string) error {
	for _, t := range transitions {
		if t.From != from || t.To != to {
			continue
		}
		if !contains(t.Roles, role) {
			return fmt.Errorf("%w: %s cannot move %s to %s", ErrForbiddenRole, role, from, to)
		}
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// Target resolves the destination status of an action from the current status.
func Target(from, action string) (string, error) {
	for _, t := range transitions {
		if t.From == from && t.Action == action {
			return t.To, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a %s complaint", ErrInvalidTransition, action, from)
}

// AllowedActions lists the actions role may perform on a complaint in status.
func AllowedActions(status, role string) []string {
	actions := []string{}
	for _, t := range transitions {
		if t.From == status && contains(t.Roles, role) && !contains(actions, t.Action) {
			actions = append(actions, t.Action)
		}
	}
	return actions
}

// Terminal reports whether the SLA clock has stopped for status.
func Terminal(status string) bool {
	switch status {
	case catalog.StatusResolved, catalog.StatusApproved, catalog.StatusClosed, catalog.StatusRejected:
		return true
	}
	return false
}

// Open reports whether a complaint still awaits work.
func Open(status string) bool {
	return !Terminal(status)
}

// OpenStatuses lists the statuses for which the SLA clock is running.
func OpenStatuses() []string {
	var out []string
	for _, s := range catalog.Statuses {
		if Open(s.Code) {
			out = append(out, s.Code)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
