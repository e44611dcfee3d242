package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/api/middleware"
	"github.com/hollis/causeconnect/internal/authz"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/pkg/config"
	"github.com/hollis/causeconnect/pkg/crypto"
	"gorm.io/gorm"
)

// allowedContentTypes limits uploads to document and image formats the
// office actually exchanges. Anything else is rejected up front.
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"text/csv":        true,
	"text/plain":      true,
}

// AttachmentHandler stores uploaded files encrypted on disk. Because an
// attachment belongs to whatever entity it is pinned to, the permission
// check happens here against that entity's type rather than in route
// middleware.
type AttachmentHandler struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	gate      *authz.Gate
	uploads   config.UploadConfig
	logger    *slog.Logger
}

func NewAttachmentHandler(db *gorm.DB, encryptor *crypto.Encryptor, gate *authz.Gate, uploads config.UploadConfig, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{db: db, encryptor: encryptor, gate: gate, uploads: uploads, logger: logger}
}

// requireEntityAccess enforces the caller's permission on the entity an
// attachment belongs to. Returns false after writing the response.
func (h *AttachmentHandler) requireEntityAccess(w http.ResponseWriter, r *http.Request, entityType string, action authz.Action) bool {
	identity := middleware.GetIdentity(r.Context())
	err := h.gate.Require(r.Context(), identity, entityType, action)
	switch {
	case err == nil:
		return true
	case err == authz.ErrNotAuthenticated:
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
	case err == authz.ErrPermissionDenied:
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Permission denied"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
	return false
}

// readableEntityTypes resolves which entity types the caller may read.
// Admins read everything; for anyone else each known type goes through
// the gate, so an explicit row that revokes read keeps that type's
// attachments out of cross-type listings. An empty result is valid and
// yields an empty listing.
func (h *AttachmentHandler) readableEntityTypes(r *http.Request) ([]string, error) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return nil, authz.ErrNotAuthenticated
	}
	if identity.IsAdmin {
		return models.KnownEntityTypes, nil
	}

	readable := make([]string, 0, len(models.KnownEntityTypes))
	for _, entityType := range models.KnownEntityTypes {
		decision, err := h.gate.Check(r.Context(), identity, entityType, authz.ActionRead)
		if err != nil {
			return nil, err
		}
		if decision.Allowed {
			readable = append(readable, entityType)
		}
	}
	return readable, nil
}

// List handles GET /api/v1/attachments
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Attachment{})

	if entityType := r.URL.Query().Get("entity_type"); entityType != "" {
		if !h.requireEntityAccess(w, r, entityType, authz.ActionRead) {
			return
		}
		query = query.Where("entity_type = ?", entityType)
	} else {
		// Without a type filter the listing spans every entity type, so
		// it must honor the same per-type read permission the single
		// attachment endpoints enforce.
		readable, err := h.readableEntityTypes(r)
		switch {
		case err == authz.ErrNotAuthenticated:
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
			return
		}
		query = query.Where("entity_type IN ?", readable)
	}
	if entityID := r.URL.Query().Get("entity_id"); entityID != "" {
		if id, err := uuid.Parse(entityID); err == nil {
			query = query.Where("entity_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count attachments"})
		return
	}

	var attachments []models.Attachment
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&attachments).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list attachments"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       attachments,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Upload handles POST /api/v1/attachments. Multipart form with a "file"
// part plus entity_type and entity_id fields. The file is encrypted
// before it touches disk.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxSizeBytes)
	if err := r.ParseMultipartForm(h.uploads.MaxSizeBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "File too large"})
		return
	}

	entityType := r.FormValue("entity_type")
	if !models.IsKnownEntityType(entityType) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown entity type"})
		return
	}
	if !h.requireEntityAccess(w, r, entityType, authz.ActionCreate) {
		return
	}

	entityID, err := uuid.Parse(r.FormValue("entity_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid entity ID"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Missing file"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		writeJSON(w, http.StatusUnsupportedMediaType, dto.ErrorResponse{Error: "Unsupported file type"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read file"})
		return
	}

	encrypted, err := h.encryptor.Encrypt(data)
	if err != nil {
		h.logger.Error("failed to encrypt attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store file"})
		return
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o750); err != nil {
		h.logger.Error("failed to create upload dir", "dir", h.uploads.Dir, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store file"})
		return
	}

	storagePath := filepath.Join(h.uploads.Dir, uuid.New().String())
	if err := os.WriteFile(storagePath, encrypted, 0o640); err != nil {
		h.logger.Error("failed to write attachment", "path", storagePath, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store file"})
		return
	}

	attachment := models.Attachment{
		EntityType:  entityType,
		EntityID:    entityID,
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		StoragePath: storagePath,
		UploadedBy:  identity.UserID,
	}

	if err := h.db.Create(&attachment).Error; err != nil {
		os.Remove(storagePath)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create attachment"})
		return
	}

	writeJSON(w, http.StatusCreated, attachment)
}

// Download handles GET /api/v1/attachments/{id}/download. Decrypts the
// stored bytes and streams them with the original name and type.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	attachmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid attachment ID"})
		return
	}

	var attachment models.Attachment
	if err := h.db.First(&attachment, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Attachment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get attachment"})
		return
	}

	if !h.requireEntityAccess(w, r, attachment.EntityType, authz.ActionRead) {
		return
	}

	encrypted, err := os.ReadFile(attachment.StoragePath)
	if err != nil {
		h.logger.Error("failed to read attachment", "path", attachment.StoragePath, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to read file"})
		return
	}

	data, err := h.encryptor.Decrypt(encrypted)
	if err != nil {
		h.logger.Error("failed to decrypt attachment", "id", attachment.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to read file"})
		return
	}

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Get handles GET /api/v1/attachments/{id} - metadata only.
func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	attachmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid attachment ID"})
		return
	}

	var attachment models.Attachment
	if err := h.db.First(&attachment, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Attachment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get attachment"})
		return
	}

	if !h.requireEntityAccess(w, r, attachment.EntityType, authz.ActionRead) {
		return
	}

	writeJSON(w, http.StatusOK, attachment)
}

// Delete handles DELETE /api/v1/attachments/{id}. Removes the metadata
// row first; a leftover file on disk is harmless (and unreadable
// without the key), a dangling row is not.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	attachmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid attachment ID"})
		return
	}

	var attachment models.Attachment
	if err := h.db.First(&attachment, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Attachment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get attachment"})
		return
	}

	if !h.requireEntityAccess(w, r, attachment.EntityType, authz.ActionDelete) {
		return
	}

	if err := h.db.Delete(&attachment).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete attachment"})
		return
	}

	if err := os.Remove(attachment.StoragePath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove attachment file", "path", attachment.StoragePath, "error", err)
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
