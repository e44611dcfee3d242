package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/api/middleware"
	"github.com/hollis/causeconnect/internal/api/validation"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
)

type NoteHandler struct {
	db *gorm.DB
}

func NewNoteHandler(db *gorm.DB) *NoteHandler {
	return &NoteHandler{db: db}
}

type NoteRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Body       string `json:"body"`
}

func (r NoteRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Body == "" {
		errors["body"] = "Body is required"
	}
	if !models.IsKnownEntityType(r.EntityType) {
		errors["entity_type"] = "Unknown entity type"
	}
	if !validation.IsValidUUID(r.EntityID) {
		errors["entity_id"] = "Invalid entity ID"
	}

	return errors
}

// List handles GET /api/v1/notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Note{})

	if entityType := r.URL.Query().Get("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID := r.URL.Query().Get("entity_id"); entityID != "" {
		if id, err := uuid.Parse(entityID); err == nil {
			query = query.Where("entity_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count notes"})
		return
	}

	var notes []models.Note
	if err := query.
		Preload("Author").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&notes).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list notes"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       notes,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid note ID"})
		return
	}

	var note models.Note
	if err := h.db.Preload("Author").First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Note not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get note"})
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Create handles POST /api/v1/notes. The author is always the
// authenticated caller, never taken from the payload.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	entityID, _ := uuid.Parse(req.EntityID)
	note := models.Note{
		EntityType: req.EntityType,
		EntityID:   entityID,
		Body:       req.Body,
		AuthorID:   identity.UserID,
	}

	if err := h.db.Create(&note).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create note"})
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// Update handles PUT /api/v1/notes/{id}. Only the body may change; a
// note never migrates between entities.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid note ID"})
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: map[string]string{"body": "Body is required"}})
		return
	}

	var note models.Note
	if err := h.db.First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Note not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get note"})
		return
	}

	note.Body = req.Body

	if err := h.db.Save(&note).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update note"})
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Delete handles DELETE /api/v1/notes/{id}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid note ID"})
		return
	}

	result := h.db.Delete(&models.Note{}, noteID)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete note"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Note not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
