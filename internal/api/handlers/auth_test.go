package handlers_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hollis/causeconnect/internal/api"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/auth"
	"github.com/hollis/causeconnect/internal/authz"
	"github.com/hollis/causeconnect/internal/testutil"
	"github.com/hollis/causeconnect/pkg/config"
	"github.com/hollis/causeconnect/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupRouter wires the real router against an empty in-memory database
// so registration bootstrap semantics can be observed.
func setupRouter(t *testing.T) (*api.Router, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	jwtService := testutil.CreateTestJWTService()
	authService := auth.NewService(db, jwtService)

	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := api.NewRouter(api.RouterConfig{
		DB:          db,
		Logger:      logger,
		JWTService:  jwtService,
		AuthService: authService,
		Gate:        authz.NewGate(db),
		Encryptor:   encryptor,
		Uploads:     config.UploadConfig{Dir: t.TempDir(), MaxSizeBytes: 10 << 20},
		BaseURL:     "http://localhost:8080",
		Production:  false,
	})

	return router, db
}

func register(t *testing.T, router http.Handler, email, password, name string) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]string{"email": email, "password": password, "name": name}
	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthHandler_Register(t *testing.T) {
	router, _ := setupRouter(t)

	t.Run("first user becomes active admin", func(t *testing.T) {
		rr := register(t, router, "founder@example.com", "securepassword123", "Founder")

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "founder@example.com", resp.User.Email)
		assert.True(t, resp.User.IsActive)
		assert.True(t, resp.User.IsAdmin)
	})

	t.Run("later users start inactive without a session", func(t *testing.T) {
		rr := register(t, router, "volunteer@example.com", "securepassword123", "Volunteer")

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Empty(t, resp.Token)
		assert.False(t, resp.User.IsActive)
		assert.False(t, resp.User.IsAdmin)

		for _, c := range rr.Result().Cookies() {
			assert.NotEqual(t, "token", c.Name)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		rr := register(t, router, "founder@example.com", "securepassword123", "Imposter")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing email", func(t *testing.T) {
		body := map[string]string{"password": "securepassword123", "name": "No Email"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("password too short", func(t *testing.T) {
		rr := register(t, router, "shortpw@example.com", "short", "Short PW")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, _ := setupRouter(t)

	require.Equal(t, http.StatusCreated, register(t, router, "admin@example.com", "securepassword123", "Admin").Code)
	require.Equal(t, http.StatusCreated, register(t, router, "pending@example.com", "securepassword123", "Pending").Code)

	t.Run("successful login", func(t *testing.T) {
		body := map[string]string{"email": "admin@example.com", "password": "securepassword123"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)

		cookies := rr.Result().Cookies()
		var tokenCookie *http.Cookie
		for _, c := range cookies {
			if c.Name == "token" {
				tokenCookie = c
				break
			}
		}
		require.NotNil(t, tokenCookie)
		assert.Equal(t, resp.Token, tokenCookie.Value)
		assert.True(t, tokenCookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{"email": "admin@example.com", "password": "wrongpassword"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-existent user", func(t *testing.T) {
		body := map[string]string{"email": "nobody@example.com", "password": "anypassword123"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		body := map[string]string{"email": "pending@example.com", "password": "securepassword123"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, _ := setupRouter(t)

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	var tokenCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "token" {
			tokenCookie = c
			break
		}
	}
	require.NotNil(t, tokenCookie)
	assert.Empty(t, tokenCookie.Value)
	assert.Equal(t, -1, tokenCookie.MaxAge)
}

func forgotPassword(t *testing.T, router http.Handler, email string) (*httptest.ResponseRecorder, dto.ForgotPasswordResponse) {
	t.Helper()
	body := map[string]string{"email": email}
	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/forgot-password", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp dto.ForgotPasswordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	router, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, register(t, router, "donor@example.com", "securepassword123", "Donor").Code)

	t.Run("known email gets a dev reset link", func(t *testing.T) {
		rr, resp := forgotPassword(t, router, "donor@example.com")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.ResetLink)
		assert.Contains(t, resp.ResetLink, "/reset-password?token=")
	})

	t.Run("unknown email returns the same success", func(t *testing.T) {
		rr, resp := forgotPassword(t, router, "stranger@example.com")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, resp.Success)
		assert.Empty(t, resp.ResetLink)
	})

	t.Run("invalid email format", func(t *testing.T) {
		body := map[string]string{"email": "not-an-email"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/forgot-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// tokenFromLink extracts the token query parameter from a reset link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	router, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, register(t, router, "member@example.com", "oldpassword123", "Member").Code)

	t.Run("full reset flow rotates the credential", func(t *testing.T) {
		_, resp := forgotPassword(t, router, "member@example.com")
		token := tokenFromLink(t, resp.ResetLink)

		body := map[string]string{"token": token, "password": "newpassword456"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		// Old password no longer works
		login := map[string]string{"email": "member@example.com", "password": "oldpassword123"}
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", login)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		// New one does
		login["password"] = "newpassword456"
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", login)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		// The token is single use
		body = map[string]string{"token": token, "password": "thirdpassword789"}
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("a new request invalidates the previous token", func(t *testing.T) {
		_, first := forgotPassword(t, router, "member@example.com")
		_, second := forgotPassword(t, router, "member@example.com")

		body := map[string]string{"token": tokenFromLink(t, first.ResetLink), "password": "anotherpassword1"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		body["token"] = tokenFromLink(t, second.ResetLink)
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		body := map[string]string{"token": "deadbeef", "password": "whatever12345"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("short replacement password", func(t *testing.T) {
		_, resp := forgotPassword(t, router, "member@example.com")

		body := map[string]string{"token": tokenFromLink(t, resp.ResetLink), "password": "short"}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
