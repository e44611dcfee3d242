package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/api/validation"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
)

type CertificationHandler struct {
	db *gorm.DB
}

func NewCertificationHandler(db *gorm.DB) *CertificationHandler {
	return &CertificationHandler{db: db}
}

type CertificationRequest struct {
	PersonID  string     `json:"person_id"`
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer"`
	IssuedAt  *time.Time `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r CertificationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.PersonID == "" {
		errors["person_id"] = "Person ID is required"
	} else if !validation.IsValidUUID(r.PersonID) {
		errors["person_id"] = "Invalid person ID"
	}
	if r.IssuedAt != nil && r.ExpiresAt != nil && r.ExpiresAt.Before(*r.IssuedAt) {
		errors["expires_at"] = "Expiry must be after issue date"
	}

	return errors
}

func (r CertificationRequest) apply(c *models.Certification) {
	if id, err := uuid.Parse(r.PersonID); err == nil {
		c.PersonID = id
	}
	c.Name = r.Name
	c.Issuer = r.Issuer
	if r.IssuedAt != nil {
		c.IssuedAt = *r.IssuedAt
	}
	c.ExpiresAt = r.ExpiresAt
}

// List handles GET /api/v1/certifications
func (h *CertificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Certification{})

	if personID := r.URL.Query().Get("person_id"); personID != "" {
		if id, err := uuid.Parse(personID); err == nil {
			query = query.Where("person_id = ?", id)
		}
	}
	if search := r.URL.Query().Get("q"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count certifications"})
		return
	}

	var certifications []models.Certification
	if err := query.
		Order("issued_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&certifications).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list certifications"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       certifications,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/certifications/{id}
func (h *CertificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	certID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid certification ID"})
		return
	}

	var cert models.Certification
	if err := h.db.Preload("Person").First(&cert, certID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Certification not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get certification"})
		return
	}

	writeJSON(w, http.StatusOK, cert)
}

// Create handles POST /api/v1/certifications
func (h *CertificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CertificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var cert models.Certification
	req.apply(&cert)

	if err := h.db.Create(&cert).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create certification"})
		return
	}

	writeJSON(w, http.StatusCreated, cert)
}

// Update handles PUT /api/v1/certifications/{id}
func (h *CertificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	certID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid certification ID"})
		return
	}

	var req CertificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var cert models.Certification
	if err := h.db.First(&cert, certID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Certification not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get certification"})
		return
	}

	req.apply(&cert)

	if err := h.db.Save(&cert).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update certification"})
		return
	}

	writeJSON(w, http.StatusOK, cert)
}

// Delete handles DELETE /api/v1/certifications/{id}
func (h *CertificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	certID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid certification ID"})
		return
	}

	result := h.db.Delete(&models.Certification{}, certID)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete certification"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Certification not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
