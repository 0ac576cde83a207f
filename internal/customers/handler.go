package customers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nattawatz/shop-api/internal/auth"
	"github.com/nattawatz/shop-api/internal/domain"
)

type Handler struct {
	repo   *CustomerRepository
	auth   *auth.Authenticator
	logger *slog.Logger
}

func NewHandler(repo *CustomerRepository, authenticator *auth.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		auth:   authenticator,
		logger: logger,
	}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.FullName == "":
		h.writeError(w, http.StatusBadRequest, "fullName is required")
		return
	case req.Email == "":
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.Password == "":
		h.writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	customer := &domain.Customer{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), customer); err != nil {
		h.logger.Error("failed to register customer", "error", err, "email", req.Email)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer registered", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "customer registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Email == "":
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.Password == "":
		h.writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	customer, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up customer", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Unknown email and wrong password are deliberately indistinguishable.
	if customer == nil || !auth.CheckPassword(req.Password, customer.PasswordHash) {
		h.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.auth.IssueToken(auth.Claims{CustomerID: customer.ID, Email: customer.Email})
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer logged in", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
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
