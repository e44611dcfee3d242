package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
)

type SchoolHandler struct {
	db *gorm.DB
}

func NewSchoolHandler(db *gorm.DB) *SchoolHandler {
	return &SchoolHandler{db: db}
}

type SchoolRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	Level    string `json:"level"`
	Website  string `json:"website"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

func (r SchoolRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

func (r SchoolRequest) apply(s *models.School) {
	s.Name = r.Name
	s.District = r.District
	s.Level = r.Level
	s.Website = r.Website
	s.Phone = r.Phone
	s.Address = r.Address
	s.City = r.City
	s.State = r.State
	s.Zip = r.Zip
}

// List handles GET /api/v1/schools
func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.School{})

	if search := r.URL.Query().Get("q"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if district := r.URL.Query().Get("district"); district != "" {
		query = query.Where("district = ?", district)
	}
	if level := r.URL.Query().Get("level"); level != "" {
		query = query.Where("level = ?", level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count schools"})
		return
	}

	var schools []models.School
	if err := query.
		Order("name ASC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&schools).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list schools"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       schools,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/schools/{id}
func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid school ID"})
		return
	}

	var school models.School
	if err := h.db.First(&school, schoolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "School not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get school"})
		return
	}

	writeJSON(w, http.StatusOK, school)
}

// Create handles POST /api/v1/schools
func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var school models.School
	req.apply(&school)

	if err := h.db.Create(&school).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create school"})
		return
	}

	writeJSON(w, http.StatusCreated, school)
}

// Update handles PUT /api/v1/schools/{id}
func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid school ID"})
		return
	}

	var req SchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var school models.School
	if err := h.db.First(&school, schoolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "School not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get school"})
		return
	}

	req.apply(&school)

	if err := h.db.Save(&school).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update school"})
		return
	}

	writeJSON(w, http.StatusOK, school)
}

// Delete handles DELETE /api/v1/schools/{id}
func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid school ID"})
		return
	}

	result := h.db.Delete(&models.School{}, schoolID)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete school"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "School not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
