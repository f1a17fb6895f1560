package http

import (
	"log/slog"
	"net/http"
	"time"
)

// OrderService is everything the order routes need.
type OrderService interface {
	OrderCreator
	OrderUpdater
	OrderDeleter
	OrderReader
	OrderValidator
	PriceQuoter
	OrderSummarizer
}

// AdminService is everything the settings routes need.
type AdminService interface {
	SlotService
	CapacityConfigService
	ProductLister
}

type RouterConfig struct {
	Orders   OrderService
	Admin    AdminService
	Feed     FeedHub
	DB       Pinger
	Metrics  http.Handler
	Location *time.Location
	Logger   *slog.Logger

	CORSOrigins      []string
	FeedWriteTimeout time.Duration
	FeedPingInterval time.Duration
}

// NewRouter wires every route behind CORS, request logging and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", HealthHandler(cfg.DB))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.Handle("POST /order", HandleCreateOrder(cfg.Orders, loc))
	mux.Handle("GET /order/{id}", HandleGetOrder(cfg.Orders))
	mux.Handle("PUT /order/{id}", HandleUpdateOrder(cfg.Orders, loc))
	mux.Handle("DELETE /order/{id}", HandleDeleteOrder(cfg.Orders))
	mux.Handle("POST /order/price", HandleQuotePrice(cfg.Orders))
	mux.Handle("GET /orders", HandleListOrders(cfg.Orders))
	mux.Handle("GET /orders/summary", HandleOrderSummary(cfg.Orders, loc))
	mux.Handle("POST /validate-order", HandleValidateOrder(cfg.Orders, loc))

	mux.Handle("/slots", HandleSlots(cfg.Admin, loc))
	mux.Handle("/slots/{id}", HandleSlot(cfg.Admin, loc))
	mux.Handle("/config", HandleCapacityConfig(cfg.Admin))
	mux.Handle("GET /products", HandleListProducts(cfg.Admin))

	if cfg.Feed != nil {
		mux.Handle("GET /ws/orders", HandleOrderFeed(cfg.Feed, FeedOptions{
			AllowedOrigins: cfg.CORSOrigins,
			WriteTimeout:   cfg.FeedWriteTimeout,
			PingInterval:   cfg.FeedPingInterval,
		}, cfg.Logger))
	}

	mux.Handle("/", NotFoundHandler())

	return RequestLogger(CORS(cfg.CORSOrigins, Metrics(mux)), cfg.Logger)
}
