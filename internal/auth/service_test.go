package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.PasswordResetToken{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return NewService(db, NewJWTService("test-secret", time.Hour)), db
}

func TestService_Register_FirstUserIsAdmin(t *testing.T) {
	svc, _ := setupServiceTest(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{
		Email:    "founder@example.org",
		Password: "securepassword123",
		Name:     "Founder",
	})
	require.NoError(t, err)
	assert.True(t, first.User.IsActive)
	assert.True(t, first.User.IsAdmin)
	assert.NotEmpty(t, first.Token, "first user logs straight in")

	second, err := svc.Register(ctx, RegisterInput{
		Email:    "staff@example.org",
		Password: "securepassword123",
		Name:     "Staff",
	})
	require.NoError(t, err)
	assert.False(t, second.User.IsActive)
	assert.False(t, second.User.IsAdmin)
	assert.Empty(t, second.Token, "pending accounts get no session")
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, db := setupServiceTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email: "dup@example.org", Password: "securepassword123", Name: "One",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		Email: "dup@example.org", Password: "otherpassword123", Name: "Two",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "dup@example.org").Count(&count).Error)
	assert.Equal(t, int64(1), count, "conflict must not create a row")

	// A soft-deleted account still occupies the unique index, so the
	// address stays taken.
	require.NoError(t, db.Where("email = ?", "dup@example.org").Delete(&models.User{}).Error)
	_, err = svc.Register(ctx, RegisterInput{
		Email: "dup@example.org", Password: "thirdpassword123", Name: "Three",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_Register_HashesPassword(t *testing.T) {
	svc, db := setupServiceTest(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "hash@example.org", Password: "securepassword123", Name: "H",
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("email = ?", "hash@example.org").First(&user).Error)
	assert.NotEqual(t, "securepassword123", user.PasswordHash)
	assert.True(t, CheckPassword("securepassword123", user.PasswordHash))
}

func TestService_Login(t *testing.T) {
	svc, _ := setupServiceTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email: "login@example.org", Password: "securepassword123", Name: "L",
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginInput{Email: "login@example.org", Password: "securepassword123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "login@example.org", resp.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "login@example.org", Password: "wrongpassword"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email matches wrong-password error", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.org", Password: "securepassword123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Login_InactiveUser(t *testing.T) {
	svc, _ := setupServiceTest(t)
	ctx := context.Background()

	// First registration takes the bootstrap slot; the second starts inactive.
	_, err := svc.Register(ctx, RegisterInput{
		Email: "admin@example.org", Password: "securepassword123", Name: "A",
	})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{
		Email: "pending@example.org", Password: "securepassword123", Name: "P",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "pending@example.org", Password: "securepassword123"})
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestService_GetUserByID(t *testing.T) {
	svc, _ := setupServiceTest(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterInput{
		Email: "get@example.org", Password: "securepassword123", Name: "G",
	})
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "get@example.org", user.Email)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
