//go:build integration

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

// setupPostgres starts a postgres container and returns a migrated CivicDB.
func setupPostgres(t *testing.T) *CivicDB {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "civic",
			"POSTGRES_PASSWORD": "civic",
			"POSTGRES_DB":       "civic",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "could not start container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	conn, err := sql.Open("postgres",
		fmt.Sprintf("postgres://civic:civic@%s:%s/civic?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := zerolog.Nop()
	civic := NewCivicDBFromConn(conn, &logger)
	require.NoError(t, civic.Migrate(ctx))
	return civic
}

func createUser(t *testing.T, c *CivicDB, role, email, mobile string, ward, dept *int64) *models.User {
	u, err := c.CreateUser(context.Background(), &models.User{
		Name: "Test " + role, Email: email, Mobile: mobile, PasswordHash: "hash", Role: role,
		WardID: ward, DepartmentID: dept,
	}, 0, catalog.RoleSystem)
	require.NoError(t, err)
	return u
}

func TestCivicDBComplaintLifecycle(t *testing.T) {
	c := setupPostgres(t)
	ctx := context.Background()

	ward, dept := int64(1), int64(3)
	citizen := createUser(t, c, catalog.RoleCitizen, "citizen@example.com", "9000000001", &ward, nil)
	wardOfficer := createUser(t, c, catalog.RoleWardOfficer, "ward@example.com", "9000000002", &ward, nil)
	officer := createUser(t, c, catalog.RoleDepartmentOfficer, "dept@example.com", "9000000003", &ward, &dept)

	_, err := c.CreateUser(ctx, &models.User{Name: "Dup", Email: "CITIZEN@example.com", Mobile: "9000000009",
		PasswordHash: "x", Role: catalog.RoleCitizen}, 0, "")
	assert.True(t, errors.Is(err, ErrConflict))

	cm, err := c.CreateComplaint(ctx, &models.Complaint{
		Title: "Pothole on main road", Description: "Large pothole near the bus stop",
		WardID: ward, DepartmentID: dept, CitizenID: citizen.ID, Location: "Main road",
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusSubmitted, cm.Status)
	assert.Equal(t, 72, cm.SLAHours)
	require.NotNil(t, cm.SLADeadline)

	picked, err := c.LeastLoadedOfficer(ctx, ward, dept)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, officer.ID, *picked)

	steps := []models.Transition{
		{From: catalog.StatusSubmitted, To: catalog.StatusAssigned, Action: workflow.ActionAssign,
			ActorID: wardOfficer.ID, ActorRole: catalog.RoleWardOfficer, OfficerID: picked},
		{From: catalog.StatusAssigned, To: catalog.StatusInProgress, Action: workflow.ActionStart,
			ActorID: officer.ID, ActorRole: catalog.RoleDepartmentOfficer},
		{From: catalog.StatusInProgress, To: catalog.StatusResolved, Action: workflow.ActionResolve,
			ActorID: officer.ID, ActorRole: catalog.RoleDepartmentOfficer},
	}
	for _, step := range steps {
		step.ComplaintID = cm.ID
		cm, err = c.ApplyTransition(ctx, step)
		require.NoError(t, err, step.Action)
	}
	assert.Equal(t, catalog.StatusResolved, cm.Status)
	require.NotNil(t, cm.AssignedOfficerID)
	assert.Equal(t, officer.ID, *cm.AssignedOfficerID)
	assert.NotNil(t, cm.ResolvedAt)
	assert.False(t, cm.SLABreached)

	// Stale from-status loses the race.
	_, err = c.ApplyTransition(ctx, models.Transition{ComplaintID: cm.ID, From: catalog.StatusInProgress,
		To: catalog.StatusResolved, Action: workflow.ActionResolve, ActorID: officer.ID})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = c.ApplyTransition(ctx, models.Transition{ComplaintID: 999999, From: catalog.StatusSubmitted,
		To: catalog.StatusAssigned, Action: workflow.ActionAssign})
	assert.True(t, errors.Is(err, ErrNotFound))

	timeline, err := c.GetTimeline(ctx, cm.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 4)
	assert.Equal(t, catalog.StatusSubmitted, timeline[0].ToStatus)
	assert.Equal(t, catalog.StatusResolved, timeline[3].ToStatus)

	counts, err := c.CountComplaintsByStatus(ctx, models.ComplaintFilter{WardID: &ward})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[catalog.StatusResolved])

	page, err := c.ListComplaints(ctx, models.ComplaintFilter{CitizenID: &citizen.ID, Query: "pothole"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	_, err = c.AddFeedback(ctx, &models.Feedback{ComplaintID: cm.ID, CitizenID: citizen.ID, Rating: 4})
	require.NoError(t, err)
	_, err = c.AddFeedback(ctx, &models.Feedback{ComplaintID: cm.ID, CitizenID: citizen.ID, Rating: 5})
	assert.True(t, errors.Is(err, ErrConflict))

	audit, err := c.ListAuditLogs(ctx, models.AuditFilter{EntityType: "COMPLAINT", EntityID: &cm.ID})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, audit.TotalElements, int64(5))
}

func TestCivicDBSLASweepStore(t *testing.T) {
	c := setupPostgres(t)
	ctx := context.Background()

	ward, dept := int64(2), int64(6)
	citizen := createUser(t, c, catalog.RoleCitizen, "c2@example.com", "9000000011", &ward, nil)

	c.now = func() time.Time { return time.Now().UTC().Add(-10 * time.Hour) }
	cm, err := c.CreateComplaint(ctx, &models.Complaint{Title: "Open manhole", Description: "Uncovered manhole on lane 4",
		WardID: ward, DepartmentID: dept, CitizenID: citizen.ID})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Now().UTC() }

	tracked, err := c.ListSLATracked(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	res := sla.Evaluate(tracked[0].Input, time.Now().UTC())
	assert.Equal(t, sla.StatusBreached, res.Status)

	require.NoError(t, c.MarkSLABreached(ctx, cm.ID))
	require.NoError(t, c.MarkSLABreached(ctx, cm.ID))

	got, err := c.GetComplaint(ctx, cm.ID)
	require.NoError(t, err)
	assert.True(t, got.SLABreached)
}

func TestCivicDBWardChange(t *testing.T) {
	c := setupPostgres(t)
	ctx := context.Background()

	from, to := int64(1), int64(2)
	citizen := createUser(t, c, catalog.RoleCitizen, "mover@example.com", "9000000021", &from, nil)
	officer := createUser(t, c, catalog.RoleWardOfficer, "wo@example.com", "9000000022", &to, nil)

	req, err := c.CreateWardChange(ctx, &models.WardChangeRequest{CitizenID: citizen.ID, CurrentWardID: from,
		RequestedWardID: to, Reason: "Moved house last month"})
	require.NoError(t, err)
	assert.Equal(t, models.WardChangePending, req.Status)

	_, err = c.CreateWardChange(ctx, &models.WardChangeRequest{CitizenID: citizen.ID, CurrentWardID: from,
		RequestedWardID: 3, Reason: "Second request"})
	assert.True(t, errors.Is(err, ErrConflict))

	pending, err := c.ListPendingWardChanges(ctx, models.WardChangeScope{WardID: &to})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	decided, err := c.DecideWardChange(ctx, req.ID, true, officer.ID, catalog.RoleWardOfficer, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.WardChangeApproved, decided.Status)

	_, err = c.DecideWardChange(ctx, req.ID, false, officer.ID, catalog.RoleWardOfficer, "again")
	assert.True(t, errors.Is(err, ErrConflict))

	moved, err := c.GetUser(ctx, citizen.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.WardID)
	assert.Equal(t, to, *moved.WardID)
}

func TestCivicDBNotificationsAndOTP(t *testing.T) {
	c := setupPostgres(t)
	ctx := context.Background()

	u := createUser(t, c, catalog.RoleCitizen, "n@example.com", "9000000031", nil, nil)
	other := createUser(t, c, catalog.RoleCitizen, "o@example.com", "9000000032", nil, nil)

	n, err := c.CreateNotification(ctx, &models.Notification{UserID: u.ID, Type: catalog.NotifySystem,
		Title: "Hello", Message: "Welcome"})
	require.NoError(t, err)
	_, err = c.CreateNotification(ctx, &models.Notification{UserID: u.ID, Type: catalog.NotifySystem,
		Title: "Second", Message: "Again"})
	require.NoError(t, err)

	unread, err := c.CountUnread(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	assert.True(t, errors.Is(c.MarkNotificationRead(ctx, other.ID, n.ID), ErrNotFound))
	require.NoError(t, c.MarkNotificationRead(ctx, u.ID, n.ID))
	changed, err := c.MarkAllNotificationsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	require.NoError(t, c.DeleteNotification(ctx, u.ID, n.ID))
	cleared, err := c.ClearReadNotifications(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	require.NoError(t, c.UpsertOTPChallenge(ctx, &models.OTPChallenge{UserID: u.ID, NewMobile: "9000000099",
		CodeHash: "h", ExpiresAt: time.Now().Add(time.Minute)}))
	ch, err := c.ClaimOTPAttempt(ctx, u.ID, 3, time.Now())
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, 1, ch.Attempts)
	assert.Equal(t, "9000000099", ch.NewMobile)

	expired, err := c.ClaimOTPAttempt(ctx, u.ID, 3, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, expired)

	assert.True(t, errors.Is(c.ApplyVerifiedMobile(ctx, u.ID, other.Mobile), ErrConflict))
	require.NoError(t, c.ApplyVerifiedMobile(ctx, u.ID, "9000000099"))
	ch, err = c.ClaimOTPAttempt(ctx, u.ID, 3, time.Now())
	require.NoError(t, err)
	assert.Nil(t, ch)

	got, err := c.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.MobileVerified)
}

func TestCivicDBClaimOTPAttemptConcurrent(t *testing.T) {
	c := setupPostgres(t)
	ctx := context.Background()

	u := createUser(t, c, catalog.RoleCitizen, "otp@example.com", "9000000041", nil, nil)
	require.NoError(t, c.UpsertOTPChallenge(ctx, &models.OTPChallenge{UserID: u.ID, NewMobile: "9000000098",
		CodeHash: "h", ExpiresAt: time.Now().Add(time.Minute)}))

	var claimed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			ch, err := c.ClaimOTPAttempt(gctx, u.ID, 3, time.Now())
			if ch != nil {
				claimed.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(3), claimed.Load())
}
