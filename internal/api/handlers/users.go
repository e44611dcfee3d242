package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/auth"
	"github.com/hollis/causeconnect/internal/authz"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserHandler covers the admin-only account surface: listing,
// activation, permission grants and direct password resets.
type UserHandler struct {
	db          *gorm.DB
	authService *auth.Service
	gate        *authz.Gate
	logger      *slog.Logger
}

func NewUserHandler(db *gorm.DB, authService *auth.Service, gate *authz.Gate, logger *slog.Logger) *UserHandler {
	return &UserHandler{db: db, authService: authService, gate: gate, logger: logger}
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count users"})
		return
	}

	var users []models.User
	if err := query.
		Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&users).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list users"})
		return
	}

	response := make([]dto.UserDTO, len(users))
	for i, u := range users {
		response[i] = dto.UserDTO{
			ID:       u.ID.String(),
			Email:    u.Email,
			Name:     u.Name,
			IsActive: u.IsActive,
			IsAdmin:  u.IsAdmin,
		}
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Activate handles POST /api/v1/users/{id}/activate
func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get user"})
		return
	}

	if err := h.db.Model(&user).Update("is_active", true).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to activate user"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// ResetPassword handles POST /api/v1/users/{id}/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req dto.AdminResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	err = h.authService.AdminResetPassword(r.Context(), userID, req.Password)
	if err != nil {
		switch err {
		case auth.ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		case auth.ErrPasswordTooShort:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Password must be at least 8 characters"})
		default:
			h.logger.Error("admin password reset failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Password reset failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetPermissions handles GET /api/v1/users/{id}/permissions.
// Raw matrix rows for administrative display; the admin override and
// the read fallback are deliberately absent here.
func (h *UserHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	perms, err := h.gate.UserPermissions(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get permissions"})
		return
	}

	writeJSON(w, http.StatusOK, perms)
}

// UpdatePermissions handles PUT /api/v1/users/{id}/permissions.
// Upserts one row per granted entity type.
func (h *UserHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req dto.UpdatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get user"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, grant := range req.Permissions {
			row := models.UserPermission{
				UserID:     userID,
				EntityType: grant.EntityType,
				CanCreate:  grant.CanCreate,
				CanRead:    grant.CanRead,
				CanUpdate:  grant.CanUpdate,
				CanDelete:  grant.CanDelete,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "entity_type"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"can_create", "can_read", "can_update", "can_delete",
				}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.logger.Error("failed to update permissions", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update permissions"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func totalPages(total int64, perPage int) int {
	pages := int(total) / perPage
	if int(total)%perPage > 0 {
		pages++
	}
	return pages
}
