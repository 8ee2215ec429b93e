package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
	"github.com/segyhp/emi-ledger/pkg/response"
)

type PurchaseService interface {
	CreatePurchase(ctx context.Context, request *domain.CreatePurchaseRequest) (*domain.CreatePurchaseResponse, error)
	Quote(ctx context.Context, request *domain.QuoteRequest) (*domain.QuoteResponse, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	GetSchedule(ctx context.Context, id uuid.UUID, on time.Time) (*domain.ScheduleResponse, error)
	GetSummary(ctx context.Context, id uuid.UUID, on time.Time) (*domain.PurchaseSummary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, request *domain.UpdateStatusRequest) (*domain.Purchase, error)
}

type PaymentService interface {
	PayInstallment(ctx context.Context, purchaseID uuid.UUID, seq int, request *domain.MakePaymentRequest) (*domain.MakePaymentResponse, error)
	GetPayments(ctx context.Context, purchaseID uuid.UUID) (*domain.PaymentHistoryResponse, error)
	GetCertificate(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error)
}

type PurchaseHandler struct {
	purchases PurchaseService
	payments  PaymentService
	validator *validator.Validate
	location  *time.Location
	logger    *logrus.Logger
	now       func() time.Time
}

func NewPurchaseHandler(purchases PurchaseService, payments PaymentService, location *time.Location, logger *logrus.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		payments:  payments,
		validator: NewValidator(),
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the purchase API on r
func (h *PurchaseHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/purchases", h.CreatePurchase).Methods(http.MethodPost)
	r.HandleFunc("/purchases/{id}", h.GetPurchase).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/schedule", h.GetSchedule).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/summary", h.GetSummary).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/status", h.UpdateStatus).Methods(http.MethodPatch)
	r.HandleFunc("/purchases/{id}/installments/{seq}/pay", h.PayInstallment).Methods(http.MethodPost)
	r.HandleFunc("/purchases/{id}/payments", h.GetPayments).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/certificate", h.GetCertificate).Methods(http.MethodGet)
	r.HandleFunc("/emi/quote", h.Quote).Methods(http.MethodPost)
}

func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var request domain.CreatePurchaseRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.purchases.CreatePurchase(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, result)
}

func (h *PurchaseHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var request domain.QuoteRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.purchases.Quote(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}

	purchase, err := h.purchases.GetPurchase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, purchase)
}

// GetSchedule accepts ?on=YYYY-MM-DD to view the schedule as of another day
func (h *PurchaseHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}
	on, ok := h.asOf(w, r)
	if !ok {
		return
	}

	schedule, err := h.purchases.GetSchedule(r.Context(), id, on)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, schedule)
}

func (h *PurchaseHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}
	on, ok := h.asOf(w, r)
	if !ok {
		return
	}

	summary, err := h.purchases.GetSummary(r.Context(), id, on)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, summary)
}

func (h *PurchaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}

	var request domain.UpdateStatusRequest
	if !h.decode(w, r, &request) {
		return
	}

	purchase, err := h.purchases.UpdateStatus(r.Context(), id, &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, purchase)
}

func (h *PurchaseHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}

	history, err := h.payments.GetPayments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, history)
}

// GetCertificate returns the NOC record; the document itself is rendered elsewhere
func (h *PurchaseHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}

	cert, err := h.payments.GetCertificate(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, cert)
}

func (h *PurchaseHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.purchaseID(w, r)
	if !ok {
		return
	}

	seq, err := strconv.Atoi(mux.Vars(r)["seq"])
	if err != nil || seq <= 0 {
		response.BusinessError(w, customError.WrapInvalidInput("installment sequence must be a positive integer"))
		return
	}

	// The body is optional: an empty POST pays today in cash
	var request domain.MakePaymentRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &request) {
			return
		}
	}

	result, err := h.payments.PayInstallment(r.Context(), id, seq, &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

func (h *PurchaseHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BusinessError(w, customError.WrapInvalidInput("invalid request body: %v", err))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BusinessError(w, customError.WrapInvalidInput("validation failed: %v", err))
		return false
	}
	return true
}

func (h *PurchaseHandler) purchaseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BusinessError(w, customError.WrapInvalidInput("invalid purchase id %q", mux.Vars(r)["id"]))
		return uuid.Nil, false
	}
	return id, true
}

func (h *PurchaseHandler) asOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("on")
	if raw == "" {
		return h.now().In(h.location), true
	}

	on, err := time.ParseInLocation(domain.DateLayout, raw, h.location)
	if err != nil {
		response.BusinessError(w, customError.WrapInvalidInput("on must be a date like 2024-03-10, got %q", raw))
		return time.Time{}, false
	}
	return on, true
}

func (h *PurchaseHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusFor(customError.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	response.BusinessError(w, err)
}
