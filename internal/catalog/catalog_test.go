package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepartmentSLAHours(t *testing.T) {
	assert.Equal(t, 24, DepartmentSLAHours(1))
	assert.Equal(t, 6, DepartmentSLAHours(6))
	assert.Equal(t, DefaultSLAHours, DepartmentSLAHours(999))
}

func TestLookups(t *testing.T) {
	s, ok := Status(StatusResolved)
	assert.True(t, ok)
	assert.Equal(t, "Resolved", s.Label)

	_, ok = Status("UNKNOWN")
	assert.False(t, ok)

	w, ok := Ward(2)
	assert.True(t, ok)
	assert.Equal(t, "Kothrud", w.AreaName)

	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole(RoleSystem))
	assert.True(t, ValidImageStage(StageAfterResolution))
	assert.False(t, ValidImageStage("DURING"))
	assert.True(t, ValidRating(1))
	assert.False(t, ValidRating(6))
}
