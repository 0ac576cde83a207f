package payments

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nattawatz/shop-api/internal/domain"
)

type Handler struct {
	repo   *PaymentRepository
	logger *slog.Logger
}

func NewHandler(repo *PaymentRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type createPaymentRequest struct {
	OrderID       int64                `json:"orderID"`
	PaymentMethod string               `json:"paymentMethod"`
	Amount        int64                `json:"amount"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

type createPaymentResponse struct {
	PaymentID int64 `json:"paymentID"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.OrderID <= 0:
		h.writeError(w, http.StatusBadRequest, "orderID is required")
		return
	case strings.TrimSpace(req.PaymentMethod) == "":
		h.writeError(w, http.StatusBadRequest, "paymentMethod is required")
		return
	case req.Amount <= 0:
		h.writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	case !req.PaymentStatus.Valid():
		h.writeError(w, http.StatusBadRequest, "paymentStatus must be one of pending, completed, failed")
		return
	}

	payment := &domain.Payment{
		OrderID:   req.OrderID,
		Method:    req.PaymentMethod,
		Amount:    req.Amount,
		Status:    req.PaymentStatus,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), payment); err != nil {
		h.logger.Error("failed to record payment", "error", err, "order_id", payment.OrderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("payment recorded", "payment_id", payment.ID, "order_id", payment.OrderID, "status", payment.Status)
	h.writeJSON(w, http.StatusOK, createPaymentResponse{PaymentID: payment.ID})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	payments, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list payments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("payments listed", "count", len(payments))
	h.writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
