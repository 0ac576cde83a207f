package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/nattawatz/shop-api/internal/auth"
	"github.com/nattawatz/shop-api/internal/customers"
	"github.com/nattawatz/shop-api/internal/messaging"
	"github.com/nattawatz/shop-api/internal/orders"
	"github.com/nattawatz/shop-api/internal/payments"
	"github.com/nattawatz/shop-api/internal/products"
	"github.com/nattawatz/shop-api/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	tokenTTL := auth.DefaultTokenTTL
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			logger.Error("invalid TOKEN_TTL", "error", err)
			os.Exit(1)
		}
		tokenTTL = parsed
	}

	authenticator, err := auth.New(jwtSecret, tokenTTL)
	if err != nil {
		logger.Error("failed to configure authenticator", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "shop-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("shop-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Fail closed rather than serve requests against a dead connection.
	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer = messaging.NewProducer(strings.Split(kafkaBrokers, ","), messaging.OrderCreatedTopic)
		defer func() { _ = producer.Close() }()
	}

	customerHandler := customers.NewHandler(customers.NewCustomerRepository(db), authenticator, logger)
	productHandler := products.NewHandler(products.NewProductRepository(db), logger)
	orderHandler := orders.NewHandler(orders.NewOrderRepository(db), producer, logger)
	paymentHandler := payments.NewHandler(payments.NewPaymentRepository(db), logger)

	route := telemetry.WithHTTPRoute
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(authenticator.Require(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", route(customerHandler.HandleRegister))
	mux.HandleFunc("POST /login", route(customerHandler.HandleLogin))
	mux.HandleFunc("GET /products", protected(productHandler.HandleList))
	mux.HandleFunc("POST /orders", protected(orderHandler.HandleCreate))
	mux.HandleFunc("POST /payments", protected(paymentHandler.HandleCreate))
	mux.HandleFunc("GET /payments", protected(paymentHandler.HandleList))
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "shop-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting shop-api", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
