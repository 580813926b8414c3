package workflow

import (
	"testing"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		role    string
		wantErr error
	}{
		{"officer starts assigned work", catalog.StatusAssigned, catalog.StatusInProgress, catalog.RoleDepartmentOfficer, nil},
		{"officer resolves", catalog.StatusInProgress, catalog.StatusResolved, catalog.RoleDepartmentOfficer, nil},
		{"ward officer approves", catalog.StatusResolved, catalog.StatusApproved, catalog.RoleWardOfficer, nil},
		{"admin closes", catalog.StatusApproved, catalog.StatusClosed, catalog.RoleAdmin, nil},
		{"citizen reopens", catalog.StatusClosed, catalog.StatusReopened, catalog.RoleCitizen, nil},
		{"system assigns", catalog.StatusSubmitted, catalog.StatusAssigned, catalog.RoleSystem, nil},
		{"citizen cannot approve", catalog.StatusResolved, catalog.StatusApproved, catalog.RoleCitizen, ErrForbiddenRole},
		{"department officer cannot close", catalog.StatusApproved, catalog.StatusClosed, catalog.RoleDepartmentOfficer, ErrForbiddenRole},
		{"cannot skip resolution", catalog.StatusAssigned, catalog.StatusResolved, catalog.RoleDepartmentOfficer, ErrInvalidTransition},
		{"cannot reopen unresolved", catalog.StatusInProgress, catalog.StatusReopened, catalog.RoleCitizen, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.role)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTargetRejectDependsOnStatus(t *testing.T) {
	to, err := Target(catalog.StatusSubmitted, ActionReject)
	assert.NoError(t, err)
	assert.Equal(t, catalog.StatusRejected, to)

	to, err = Target(catalog.StatusResolved, ActionReject)
	assert.NoError(t, err)
	assert.Equal(t, catalog.StatusInProgress, to)

	_, err = Target(catalog.StatusClosed, ActionReject)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAllowedActions(t *testing.T) {
	assert.ElementsMatch(t, []string{ActionApprove, ActionReject}, AllowedActions(catalog.StatusResolved, catalog.RoleWardOfficer))
	assert.Empty(t, AllowedActions(catalog.StatusResolved, catalog.RoleCitizen))
	assert.Equal(t, []string{ActionReopen}, AllowedActions(catalog.StatusClosed, catalog.RoleCitizen))
}

func TestTerminalAndOpenStatuses(t *testing.T) {
	assert.True(t, Terminal(catalog.StatusClosed))
	assert.True(t, Terminal(catalog.StatusResolved))
	assert.False(t, Terminal(catalog.StatusReopened))

	assert.ElementsMatch(t, []string{
		catalog.StatusSubmitted, catalog.StatusAssigned, catalog.StatusInProgress, catalog.StatusReopened,
	}, OpenStatuses())
}
