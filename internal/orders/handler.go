package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nattawatz/shop-api/internal/auth"
	"github.com/nattawatz/shop-api/internal/domain"
	"github.com/nattawatz/shop-api/internal/messaging"
)

type Handler struct {
	repo     *OrderRepository
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(repo *OrderRepository, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

type createOrderRequest struct {
	CustomerID int64              `json:"customerID"`
	OrderDate  string             `json:"orderDate"`
	Products   []domain.OrderItem `json:"products"`
}

type createOrderResponse struct {
	OrderID    int64 `json:"orderID"`
	TotalPrice int64 `json:"totalPrice"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		h.logger.Debug("authenticated request", "customer_id", claims.CustomerID, "email", claims.Email)
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CustomerID <= 0 {
		h.writeError(w, http.StatusBadRequest, "customerID is required")
		return
	}

	orderDate, err := time.Parse(time.DateOnly, req.OrderDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "orderDate must be a YYYY-MM-DD date")
		return
	}

	if len(req.Products) == 0 {
		h.writeError(w, http.StatusBadRequest, "products must be a non-empty list")
		return
	}
	for _, item := range req.Products {
		if item.ProductID <= 0 || item.Quantity <= 0 || item.Price < 0 {
			h.writeError(w, http.StatusBadRequest, "each product needs a productID, a positive quantity and a non-negative price")
			return
		}
	}

	order := &domain.Order{
		CustomerID: req.CustomerID,
		OrderDate:  orderDate,
		Items:      req.Products,
		TotalPrice: computeTotal(req.Products),
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err, "customer_id", order.CustomerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			EventID:    uuid.New().String(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Items:      order.Items,
			TotalPrice: order.TotalPrice,
			Timestamp:  order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), event.EventID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "customer_id", order.CustomerID, "total_price", order.TotalPrice)
	h.writeJSON(w, http.StatusOK, createOrderResponse{OrderID: order.ID, TotalPrice: order.TotalPrice})
}

// computeTotal sums quantity times unit price over the submitted line
// items, in minor currency units.
func computeTotal(items []domain.OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.Price
	}
	return total
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
