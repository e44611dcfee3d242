package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/authz"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_AdminOnly(t *testing.T) {
	router, db := setupRouter(t)

	jwtService := testutil.CreateTestJWTService()
	user := testutil.CreateTestUser(t, db)
	token := testutil.GenerateTestToken(t, jwtService, user)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/users", nil, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUserHandler_List(t *testing.T) {
	router, db := setupRouter(t)

	jwtService := testutil.CreateTestJWTService()
	admin := testutil.CreateTestAdmin(t, db)
	adminToken := testutil.GenerateTestToken(t, jwtService, admin)
	testutil.CreateTestUser(t, db)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/users", nil, adminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Total int64 `json:"total"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, int64(2), resp.Total)
}

func TestUserHandler_Activate(t *testing.T) {
	router, db := setupRouter(t)

	jwtService := testutil.CreateTestJWTService()
	admin := testutil.CreateTestAdmin(t, db)
	adminToken := testutil.GenerateTestToken(t, jwtService, admin)

	// A self-registered account starts inactive
	rr := register(t, router, "pending@example.com", "securepassword123", "Pending")
	require.Equal(t, http.StatusCreated, rr.Code)

	var pending models.User
	require.NoError(t, db.Where("email = ?", "pending@example.com").First(&pending).Error)
	require.False(t, pending.IsActive)

	t.Run("login blocked before activation", func(t *testing.T) {
		body := map[string]string{"email": "pending@example.com", "password": "securepassword123"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("activation opens the door", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/users/"+pending.ID.String()+"/activate", nil, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		body := map[string]string{"email": "pending@example.com", "password": "securepassword123"}
		loginReq := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, loginReq)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/users/"+uuid.New().String()+"/activate", nil, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserHandler_ResetPassword(t *testing.T) {
	router, db := setupRouter(t)

	jwtService := testutil.CreateTestJWTService()
	admin := testutil.CreateTestAdmin(t, db)
	adminToken := testutil.GenerateTestToken(t, jwtService, admin)
	user := testutil.CreateTestUser(t, db)

	t.Run("direct reset replaces the password", func(t *testing.T) {
		body := map[string]string{"password": "rotatedpassword1"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/users/"+user.ID.String()+"/reset-password", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		login := map[string]string{"email": user.Email, "password": "rotatedpassword1"}
		loginReq := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", login)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, loginReq)
		assert.Equal(t, http.StatusOK, rr.Code)

		login["password"] = "testpassword123"
		loginReq = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", login)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, loginReq)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		body := map[string]string{"password": "rotatedpassword1"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/users/"+uuid.New().String()+"/reset-password", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		body := map[string]string{"password": "short"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/users/"+user.ID.String()+"/reset-password", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUserHandler_Permissions(t *testing.T) {
	router, db := setupRouter(t)

	jwtService := testutil.CreateTestJWTService()
	admin := testutil.CreateTestAdmin(t, db)
	adminToken := testutil.GenerateTestToken(t, jwtService, admin)
	user := testutil.CreateTestUser(t, db)

	t.Run("grant and read back", func(t *testing.T) {
		body := map[string]interface{}{
			"permissions": []map[string]interface{}{
				{"entity_type": models.EntityDonation, "can_create": true, "can_read": true},
				{"entity_type": models.EntityNote, "can_read": true},
			},
		}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/users/"+user.ID.String()+"/permissions", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/users/"+user.ID.String()+"/permissions", nil, adminToken)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var perms map[string]authz.Flags
		testutil.ParseJSONResponse(t, rr, &perms)
		require.Len(t, perms, 2)
		assert.True(t, perms[models.EntityDonation].CanCreate)
		assert.False(t, perms[models.EntityDonation].CanDelete)
		assert.True(t, perms[models.EntityNote].CanRead)
	})

	t.Run("regrant overwrites the existing row", func(t *testing.T) {
		body := map[string]interface{}{
			"permissions": []map[string]interface{}{
				{"entity_type": models.EntityDonation, "can_read": true},
			},
		}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/users/"+user.ID.String()+"/permissions", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/users/"+user.ID.String()+"/permissions", nil, adminToken)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var perms map[string]authz.Flags
		testutil.ParseJSONResponse(t, rr, &perms)
		assert.False(t, perms[models.EntityDonation].CanCreate)
		assert.True(t, perms[models.EntityDonation].CanRead)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		body := map[string]interface{}{
			"permissions": []map[string]interface{}{
				{"entity_type": "spaceship", "can_read": true},
			},
		}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/users/"+user.ID.String()+"/permissions", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
