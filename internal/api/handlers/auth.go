package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/auth"
	"github.com/hollis/causeconnect/internal/tasks"
)

type AuthHandler struct {
	authService *auth.Service
	asynqClient *asynq.Client
	logger      *slog.Logger
	baseURL     string
	production  bool
}

func NewAuthHandler(authService *auth.Service, asynqClient *asynq.Client, logger *slog.Logger, baseURL string, production bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		asynqClient: asynqClient,
		logger:      logger,
		baseURL:     baseURL,
		production:  production,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resp, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})

	if err != nil {
		switch err {
		case auth.ErrUserExists:
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "User already exists"})
		default:
			h.logger.Error("registration failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Registration failed"})
		}
		return
	}

	if resp.Token != "" {
		setSessionCookie(w, resp.Token)
	}

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token: resp.Token,
		User: dto.UserDTO{
			ID:       resp.User.ID.String(),
			Email:    resp.User.Email,
			Name:     resp.User.Name,
			IsActive: resp.User.IsActive,
			IsAdmin:  resp.User.IsAdmin,
		},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		case auth.ErrInactiveUser:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Account pending activation"})
		default:
			h.logger.Error("login failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	setSessionCookie(w, resp.Token)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User: dto.UserDTO{
			ID:       resp.User.ID.String(),
			Email:    resp.User.Email,
			Name:     resp.User.Name,
			IsActive: resp.User.IsActive,
			IsAdmin:  resp.User.IsAdmin,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Logged out"})
}

// ForgotPassword handles POST /auth/forgot-password. The response is
// byte-identical whether or not the email matches an account; only the
// side effects differ.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	issue, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		// Store failures must not reveal whether the email exists.
		h.logger.Error("password reset request failed", "error", err)
		writeJSON(w, http.StatusOK, dto.ForgotPasswordResponse{Success: true})
		return
	}

	resp := dto.ForgotPasswordResponse{Success: true}

	if issue != nil {
		link := fmt.Sprintf("%s/reset-password?token=%s", h.baseURL, issue.Token)

		if h.asynqClient != nil {
			task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetEmailPayload{
				Email:     issue.User.Email,
				Name:      issue.User.Name,
				ResetLink: link,
			})
			if err == nil {
				_, err = h.asynqClient.EnqueueContext(r.Context(), task)
			}
			if err != nil {
				h.logger.Error("failed to enqueue reset email", "error", err)
			}
		}

		if !h.production {
			resp.ResetLink = link
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	err := h.authService.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		switch err {
		case auth.ErrInvalidResetToken:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired token"})
		case auth.ErrPasswordTooShort:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Password must be at least 8 characters"})
		default:
			h.logger.Error("password reset failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Password reset failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // set true behind HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
}
