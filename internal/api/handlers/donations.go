package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hollis/causeconnect/internal/api/dto"
	"github.com/hollis/causeconnect/internal/api/validation"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/internal/tasks"
	"gorm.io/gorm"
)

type DonationHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	logger      *slog.Logger
}

func NewDonationHandler(db *gorm.DB, asynqClient *asynq.Client, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{db: db, asynqClient: asynqClient, logger: logger}
}

type DonationRequest struct {
	PersonID    *string    `json:"person_id"`
	CompanyID   *string    `json:"company_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	DonatedAt   *time.Time `json:"donated_at"`
	Campaign    string     `json:"campaign"`
	Method      string     `json:"method"`
}

func (r DonationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.AmountCents <= 0 {
		errors["amount_cents"] = "Amount must be positive"
	}
	if r.PersonID == nil && r.CompanyID == nil {
		errors["person_id"] = "A donor (person or company) is required"
	}
	if r.PersonID != nil && !validation.IsValidUUID(*r.PersonID) {
		errors["person_id"] = "Invalid person ID"
	}
	if r.CompanyID != nil && !validation.IsValidUUID(*r.CompanyID) {
		errors["company_id"] = "Invalid company ID"
	}

	return errors
}

func (r DonationRequest) apply(d *models.Donation) {
	d.PersonID = parseOptionalUUID(r.PersonID)
	d.CompanyID = parseOptionalUUID(r.CompanyID)
	d.AmountCents = r.AmountCents
	if r.Currency != "" {
		d.Currency = r.Currency
	} else if d.Currency == "" {
		d.Currency = "USD"
	}
	if r.DonatedAt != nil {
		d.DonatedAt = *r.DonatedAt
	} else if d.DonatedAt.IsZero() {
		d.DonatedAt = time.Now()
	}
	d.Campaign = r.Campaign
	d.Method = r.Method
}

// List handles GET /api/v1/donations
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Donation{})

	if campaign := r.URL.Query().Get("campaign"); campaign != "" {
		query = query.Where("campaign = ?", campaign)
	}
	if personID := r.URL.Query().Get("person_id"); personID != "" {
		if id, err := uuid.Parse(personID); err == nil {
			query = query.Where("person_id = ?", id)
		}
	}
	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		if id, err := uuid.Parse(companyID); err == nil {
			query = query.Where("company_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count donations"})
		return
	}

	var donations []models.Donation
	if err := query.
		Preload("Person").
		Preload("Company").
		Order("donated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&donations).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list donations"})
		return
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       donations,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/donations/{id}
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	donationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid donation ID"})
		return
	}

	var donation models.Donation
	if err := h.db.
		Preload("Person").
		Preload("Company").
		First(&donation, donationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Donation not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get donation"})
		return
	}

	writeJSON(w, http.StatusOK, donation)
}

// Create handles POST /api/v1/donations. When the donor is a person with
// an email on file, a receipt email is queued on the low queue.
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var donation models.Donation
	req.apply(&donation)

	if err := h.db.Create(&donation).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create donation"})
		return
	}

	h.enqueueReceipt(r, donation)

	writeJSON(w, http.StatusCreated, donation)
}

func (h *DonationHandler) enqueueReceipt(r *http.Request, donation models.Donation) {
	if h.asynqClient == nil || donation.PersonID == nil {
		return
	}

	task, err := tasks.NewDonationReceiptTask(tasks.DonationReceiptPayload{
		DonationID: donation.ID,
	})
	if err == nil {
		_, err = h.asynqClient.EnqueueContext(r.Context(), task)
	}
	if err != nil {
		// Receipt delivery is best effort; the donation itself stands.
		h.logger.Error("failed to enqueue donation receipt", "donation_id", donation.ID, "error", err)
	}
}

// Update handles PUT /api/v1/donations/{id}
func (h *DonationHandler) Update(w http.ResponseWriter, r *http.Request) {
	donationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid donation ID"})
		return
	}

	var req DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var donation models.Donation
	if err := h.db.First(&donation, donationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Donation not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get donation"})
		return
	}

	req.apply(&donation)

	if err := h.db.Save(&donation).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update donation"})
		return
	}

	writeJSON(w, http.StatusOK, donation)
}

// Delete handles DELETE /api/v1/donations/{id}
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	donationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid donation ID"})
		return
	}

	result := h.db.Delete(&models.Donation{}, donationID)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete donation"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Donation not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
