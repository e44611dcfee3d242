package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGate(t *testing.T) (*Gate, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserPermission{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return NewGate(db), db
}

func TestGate_NilIdentity(t *testing.T) {
	gate, _ := setupGate(t)

	decision, err := gate.Check(context.Background(), nil, models.EntityPerson, ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Not authenticated", decision.Reason)

	err = gate.Require(context.Background(), nil, models.EntityPerson, ActionRead)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestGate_AdminOverride(t *testing.T) {
	gate, db := setupGate(t)
	admin := &Identity{UserID: uuid.New(), IsAdmin: true}

	// Even an explicit all-false row is irrelevant for admins.
	require.NoError(t, db.Create(&models.UserPermission{
		UserID:     admin.UserID,
		EntityType: models.EntityDonation,
	}).Error)

	for _, entity := range models.KnownEntityTypes {
		for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
			decision, err := gate.Check(context.Background(), admin, entity, action)
			require.NoError(t, err)
			assert.True(t, decision.Allowed, "admin denied %s on %s", action, entity)
		}
	}
}

func TestGate_DefaultReadOnly(t *testing.T) {
	gate, _ := setupGate(t)
	member := &Identity{UserID: uuid.New()}
	ctx := context.Background()

	decision, err := gate.Check(ctx, member, models.EntityDonation, ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		decision, err := gate.Check(ctx, member, models.EntityDonation, action)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, "Permission denied", decision.Reason)
	}
}

func TestGate_ExplicitRow(t *testing.T) {
	gate, db := setupGate(t)
	member := &Identity{UserID: uuid.New()}
	ctx := context.Background()

	require.NoError(t, db.Create(&models.UserPermission{
		UserID:     member.UserID,
		EntityType: models.EntityPerson,
		CanCreate:  true,
		CanRead:    true,
		CanUpdate:  true,
		CanDelete:  false,
	}).Error)

	cases := []struct {
		action  Action
		allowed bool
	}{
		{ActionCreate, true},
		{ActionRead, true},
		{ActionUpdate, true},
		{ActionDelete, false},
	}
	for _, tc := range cases {
		decision, err := gate.Check(ctx, member, models.EntityPerson, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.allowed, decision.Allowed, "action %s", tc.action)
	}

	// An all-false row revokes even the default read.
	require.NoError(t, db.Create(&models.UserPermission{
		UserID:     member.UserID,
		EntityType: models.EntityNote,
	}).Error)

	decision, err := gate.Check(ctx, member, models.EntityNote, ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestGate_Require(t *testing.T) {
	gate, _ := setupGate(t)
	member := &Identity{UserID: uuid.New()}
	ctx := context.Background()

	assert.NoError(t, gate.Require(ctx, member, models.EntityCompany, ActionRead))
	assert.ErrorIs(t, gate.Require(ctx, member, models.EntityCompany, ActionUpdate), ErrPermissionDenied)
}

func TestGate_UserPermissionsProjection(t *testing.T) {
	gate, db := setupGate(t)
	userID := uuid.New()

	require.NoError(t, db.Create(&models.UserPermission{
		UserID:     userID,
		EntityType: models.EntitySchool,
		CanRead:    true,
		CanUpdate:  true,
	}).Error)

	perms, err := gate.UserPermissions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, Flags{CanRead: true, CanUpdate: true}, perms[models.EntitySchool])

	// The projection reports raw rows only - no synthesized defaults.
	_, ok := perms[models.EntityPerson]
	assert.False(t, ok)
}

func TestActionForMethod(t *testing.T) {
	cases := map[string]Action{
		"POST":   ActionCreate,
		"GET":    ActionRead,
		"HEAD":   ActionRead,
		"PUT":    ActionUpdate,
		"PATCH":  ActionUpdate,
		"DELETE": ActionDelete,
	}
	for method, want := range cases {
		got, ok := ActionForMethod(method)
		require.True(t, ok, method)
		assert.Equal(t, want, got)
	}

	_, ok := ActionForMethod("OPTIONS")
	assert.False(t, ok)
}

func TestFlags_Allows(t *testing.T) {
	flags := Flags{CanCreate: true, CanDelete: true}

	assert.True(t, flags.Allows(ActionCreate))
	assert.False(t, flags.Allows(ActionRead))
	assert.False(t, flags.Allows(ActionUpdate))
	assert.True(t, flags.Allows(ActionDelete))
	assert.False(t, flags.Allows(Action("export")))
}
