package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/api/validation"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
)

type PersonHandler struct {
	db *gorm.DB
}

func NewPersonHandler(db *gorm.DB) *PersonHandler {
	return &PersonHandler{db: db}
}

type PersonRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	CompanyID *string `json:"company_id"`
	SchoolID  *string `json:"school_id"`
}

func (r PersonRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.FirstName == "" {
		errors["first_name"] = "First name is required"
	}
	if r.LastName == "" {
		errors["last_name"] = "Last name is required"
	}
	if r.Email != "" && !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	if r.CompanyID != nil && !validation.IsValidUUID(*r.CompanyID) {
		errors["company_id"] = "Invalid company ID"
	}
	if r.SchoolID != nil && !validation.IsValidUUID(*r.SchoolID) {
		errors["school_id"] = "Invalid school ID"
	}

	return errors
}

func (r PersonRequest) apply(p *models.Person) {
	p.FirstName = r.FirstName
	p.LastName = r.LastName
	p.Email = r.Email
	p.Phone = r.Phone
	p.Title = r.Title
	p.Address = r.Address
	p.City = r.City
	p.State = r.State
	p.Zip = r.Zip
	p.CompanyID = parseOptionalUUID(r.CompanyID)
	p.SchoolID = parseOptionalUUID(r.SchoolID)
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

// List handles GET /api/v1/people
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Person{})

	if search := r.URL.Query().Get("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}
	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		if id, err := uuid.Parse(companyID); err == nil {
			query = query.Where("company_id = ?", id)
		}
	}
	if schoolID := r.URL.Query().Get("school_id"); schoolID != "" {
		if id, err := uuid.Parse(schoolID); err == nil {
			query = query.Where("school_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count people"})
		return
	}

	var people []models.Person
	if err := query.
		Order("last_name ASC, first_name ASC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&people).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list people"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       people,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/people/{id}
func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid person ID"})
		return
	}

	var person models.Person
	if err := h.db.
		Preload("Company").
		Preload("School").
		First(&person, personID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Person not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get person"})
		return
	}

	writeJSON(w, http.StatusOK, person)
}

// Create handles POST /api/v1/people
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var person models.Person
	req.apply(&person)

	if err := h.db.Create(&person).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create person"})
		return
	}

	writeJSON(w, http.StatusCreated, person)
}

// Update handles PUT /api/v1/people/{id}
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid person ID"})
		return
	}

	var req PersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var person models.Person
	if err := h.db.First(&person, personID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Person not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get person"})
		return
	}

	req.apply(&person)

	if err := h.db.Save(&person).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update person"})
		return
	}

	writeJSON(w, http.StatusOK, person)
}

// Delete handles DELETE /api/v1/people/{id}
func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid person ID"})
		return
	}

	result := h.db.Delete(&models.Person{}, personID)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete person"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Person not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
