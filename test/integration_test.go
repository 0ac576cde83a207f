//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nattawatz/shop-api/internal/auth"
	"github.com/nattawatz/shop-api/internal/customers"
	"github.com/nattawatz/shop-api/internal/domain"
	"github.com/nattawatz/shop-api/internal/messaging"
	"github.com/nattawatz/shop-api/internal/orders"
	"github.com/nattawatz/shop-api/internal/payments"
	"github.com/nattawatz/shop-api/internal/products"
)

// newAPI wires the same routes as cmd/server, minus telemetry.
func newAPI(t *testing.T, db *sql.DB) *http.ServeMux {
	t.Helper()

	authenticator, err := auth.New("integration-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	customerHandler := customers.NewHandler(customers.NewCustomerRepository(db), authenticator, logger)
	productHandler := products.NewHandler(products.NewProductRepository(db), logger)
	orderHandler := orders.NewHandler(orders.NewOrderRepository(db), nil, logger)
	paymentHandler := payments.NewHandler(payments.NewPaymentRepository(db), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", customerHandler.HandleRegister)
	mux.HandleFunc("POST /login", customerHandler.HandleLogin)
	mux.HandleFunc("GET /products", authenticator.Require(productHandler.HandleList))
	mux.HandleFunc("POST /orders", authenticator.Require(orderHandler.HandleCreate))
	mux.HandleFunc("POST /payments", authenticator.Require(paymentHandler.HandleCreate))
	mux.HandleFunc("GET /payments", authenticator.Require(paymentHandler.HandleList))

	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, mux *http.ServeMux, fullName, email, password string) {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/register", "",
		fmt.Sprintf(`{"fullName":%q,"email":%q,"password":%q}`, fullName, email, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("register failed with status %d: %s", rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, mux *http.ServeMux, email, password string) string {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/login", "",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected a token in the login response")
	}
	return resp["token"]
}

func TestRegisterAndLogin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	mux := newAPI(t, db)

	register(t, mux, "Jane Doe", "jane@example.com", "s3cret")

	t.Run("duplicate email surfaces as a store error", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/register", "",
			`{"fullName":"Jane Again","email":"jane@example.com","password":"other"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPassword := doJSON(t, mux, http.MethodPost, "/login", "",
			`{"email":"jane@example.com","password":"nope"}`)
		unknownEmail := doJSON(t, mux, http.MethodPost, "/login", "",
			`{"email":"nobody@example.com","password":"nope"}`)

		if wrongPassword.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 for wrong password, got %d", wrongPassword.Code)
		}
		if unknownEmail.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 for unknown email, got %d", unknownEmail.Code)
		}
		if wrongPassword.Body.String() != unknownEmail.Body.String() {
			t.Errorf("expected identical bodies, got %q and %q",
				wrongPassword.Body.String(), unknownEmail.Body.String())
		}
	})

	t.Run("valid login token authorizes protected endpoints", func(t *testing.T) {
		token := login(t, mux, "jane@example.com", "s3cret")

		rec := doJSON(t, mux, http.MethodGet, "/products", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing token is 403", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodGet, "/products", "", "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})
}

func TestListProductsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	mux := newAPI(t, db)
	register(t, mux, "Jane Doe", "jane@example.com", "s3cret")
	token := login(t, mux, "jane@example.com", "s3cret")

	first := doJSON(t, mux, http.MethodGet, "/products", token, "")
	second := doJSON(t, mux, http.MethodGet, "/products", token, "")

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected status 200 twice, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("expected identical product lists on consecutive reads")
	}

	var list []domain.Product
	if err := json.Unmarshal(first.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode products: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected the 3 seeded products, got %d", len(list))
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	mux := newAPI(t, db)
	register(t, mux, "Jane Doe", "jane@example.com", "s3cret")
	token := login(t, mux, "jane@example.com", "s3cret")

	body := `{
		"customerID": 1,
		"orderDate": "2024-01-01",
		"products": [
			{"productID": 1, "quantity": 2, "price": 10},
			{"productID": 2, "quantity": 1, "price": 5}
		]
	}`
	rec := doJSON(t, mux, http.MethodPost, "/orders", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OrderID    int64 `json:"orderID"`
		TotalPrice int64 `json:"totalPrice"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalPrice != 25 {
		t.Errorf("expected total price 25, got %d", resp.TotalPrice)
	}
	if resp.OrderID == 0 {
		t.Fatal("expected a store-assigned order ID")
	}

	repo := orders.NewOrderRepository(db)
	order, err := repo.GetByID(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if order == nil {
		t.Fatal("order not found in database")
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	if order.TotalPrice != 25 {
		t.Errorf("expected stored total price 25, got %d", order.TotalPrice)
	}

	var orderCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 1 {
		t.Errorf("expected exactly one order row, got %d", orderCount)
	}
}

func TestPlaceOrderRollsBackHeaderOnItemFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	mux := newAPI(t, db)
	register(t, mux, "Jane Doe", "jane@example.com", "s3cret")
	token := login(t, mux, "jane@example.com", "s3cret")

	// The first item is fine; the second carries a quantity that passes
	// validation but overflows the INTEGER column, so the line-item insert
	// fails after the header insert succeeded.
	body := `{
		"customerID": 1,
		"orderDate": "2024-01-01",
		"products": [
			{"productID": 1, "quantity": 1, "price": 10},
			{"productID": 2, "quantity": 3000000000, "price": 5}
		]
	}`
	rec := doJSON(t, mux, http.MethodPost, "/orders", token, body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rec.Code, rec.Body.String())
	}

	var orderCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("expected the order header to be rolled back, found %d order rows", orderCount)
	}

	var itemCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items").Scan(&itemCount); err != nil {
		t.Fatalf("failed to count order items: %v", err)
	}
	if itemCount != 0 {
		t.Errorf("expected no line items, found %d rows", itemCount)
	}
}

func TestRecordPayment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	mux := newAPI(t, db)
	register(t, mux, "Jane Doe", "jane@example.com", "s3cret")
	token := login(t, mux, "jane@example.com", "s3cret")

	orderBody := `{"customerID":1,"orderDate":"2024-01-01","products":[{"productID":1,"quantity":1,"price":100}]}`
	rec := doJSON(t, mux, http.MethodPost, "/orders", token, orderBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed to place order: %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("valid payment is recorded", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/payments", token,
			`{"orderID":1,"paymentMethod":"card","amount":100,"paymentStatus":"completed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			PaymentID int64 `json:"paymentID"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.PaymentID == 0 {
			t.Fatal("expected a store-assigned payment ID")
		}
	})

	t.Run("unknown status is rejected and creates no row", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/payments", token,
			`{"orderID":1,"paymentMethod":"card","amount":100,"paymentStatus":"shipped"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments").Scan(&count); err != nil {
			t.Fatalf("failed to count payments: %v", err)
		}
		if count != 1 {
			t.Errorf("expected exactly one payment row, got %d", count)
		}
	})

	t.Run("payment listing is idempotent", func(t *testing.T) {
		first := doJSON(t, mux, http.MethodGet, "/payments", token, "")
		second := doJSON(t, mux, http.MethodGet, "/payments", token, "")

		if first.Code != http.StatusOK || second.Code != http.StatusOK {
			t.Fatalf("expected status 200 twice, got %d and %d", first.Code, second.Code)
		}
		if first.Body.String() != second.Body.String() {
			t.Error("expected identical payment lists on consecutive reads")
		}
	})
}

func TestOrderEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.OrderCreatedTopic)
	defer func() { _ = producer.Close() }()

	sent := domain.OrderCreatedEvent{
		EventID:    "evt-roundtrip",
		OrderID:    42,
		CustomerID: 7,
		Items:      []domain.OrderItem{{ProductID: 1, Quantity: 2, Price: 10}},
		TotalPrice: 20,
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, sent.EventID, sent); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.OrderCreatedTopic, "test-consumer")
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderCreatedEvent, 1)
	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()

	go func() {
		_ = consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
			var event domain.OrderCreatedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return err
			}
			received <- event
			return nil
		})
	}()

	select {
	case event := <-received:
		if event.EventID != sent.EventID {
			t.Errorf("expected event id %q, got %q", sent.EventID, event.EventID)
		}
		if event.OrderID != sent.OrderID || event.TotalPrice != sent.TotalPrice {
			t.Errorf("event mismatch: %+v", event)
		}
	case <-time.After(90 * time.Second):
		t.Fatal("timed out waiting for the order created event")
	}
}
