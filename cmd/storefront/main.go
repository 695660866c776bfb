package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/admin"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/database"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/imagehost"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/validation"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadStorefront(logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	checkoutOpts := []checkout.Option{
		checkout.WithGuestEmail(cfg.GuestEmail),
		checkout.WithOversellGuard(cfg.RejectOversell),
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
		checkoutOpts = append(checkoutOpts, checkout.WithPublisher(producer))
	} else {
		logger.Warn("KAFKA_BROKERS not set, completed orders will not be published")
	}

	validator := validation.New()
	issuer := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	cookies := cart.Cookies{
		Key:    cfg.CartStorageKey,
		Secret: []byte(cfg.SessionSecret),
		MaxAge: 30 * 24 * time.Hour,
		Secure: cfg.SecureCookies,
	}

	products := catalog.NewProductRepository(db)
	users := accounts.NewUserRepository(db)
	history := orders.NewOrderRepository(db)
	stats := admin.NewStatsRepository(db)
	images := imagehost.NewClient(cfg.ImageUploadURL, cfg.ImageUploadPreset, telemetry.NewHTTPClient(30*time.Second))

	accountService := accounts.NewService(users, validator, logger)
	adminService := admin.NewService(products, validator, logger)
	checkoutService, err := checkout.NewService(db, logger, checkoutOpts...)
	if err != nil {
		logger.Error("failed to create checkout service", "error", err)
		os.Exit(1)
	}

	if cfg.BootstrapAdminEmail != "" {
		if err := accountService.EnsureSuperAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			logger.Error("failed to bootstrap super admin", "error", err)
			os.Exit(1)
		}
	}

	catalogHandler := catalog.NewHandler(products, logger)
	cartHandler := cart.NewHandler(products, cookies, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, products, cookies, logger)
	ordersHandler := orders.NewHandler(history, logger)
	accountsHandler := accounts.NewHandler(accountService, issuer, cfg.SecureCookies, logger)
	adminHandler := admin.NewHandler(adminService, stats, images, logger)

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(auth.RequireAuthenticated(logger, h))
	}
	staff := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(auth.RequireRole(logger, h, domain.RoleAdmin, domain.RoleSuperAdmin))
	}
	superAdmin := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(auth.RequireRole(logger, h, domain.RoleSuperAdmin))
	}
	route := telemetry.WithHTTPRoute

	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", route(catalogHandler.HandleListAvailable))
	mux.HandleFunc("GET /products/{id}", route(catalogHandler.HandleGet))
	mux.HandleFunc("GET /categories", route(catalogHandler.HandleListCategories))

	mux.HandleFunc("GET /cart", route(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", route(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{productId}", route(cartHandler.HandleUpdateQuantity))
	mux.HandleFunc("DELETE /cart/items/{productId}", route(cartHandler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", route(cartHandler.HandleClear))

	mux.HandleFunc("POST /checkout", route(checkoutHandler.HandleCheckout))
	mux.HandleFunc("POST /products/{id}/buy", route(checkoutHandler.HandleBuyNow))

	mux.HandleFunc("GET /orders", authed(ordersHandler.HandleListMine))
	mux.HandleFunc("GET /orders/{id}", authed(ordersHandler.HandleGet))

	mux.HandleFunc("POST /register", route(accountsHandler.HandleRegister))
	mux.HandleFunc("POST /login", route(accountsHandler.HandleLogin))
	mux.HandleFunc("POST /logout", route(accountsHandler.HandleLogout))
	mux.HandleFunc("GET /session", route(accountsHandler.HandleSession))

	mux.HandleFunc("GET /admin/navigation", staff(navigation.HandleList(logger)))
	mux.HandleFunc("GET /admin/dashboard", staff(adminHandler.HandleDashboard))
	mux.HandleFunc("GET /admin/orders", staff(ordersHandler.HandleListAll))
	mux.HandleFunc("GET /admin/products", staff(catalogHandler.HandleListAll))
	mux.HandleFunc("GET /admin/products/{id}", staff(catalogHandler.HandleGet))
	mux.HandleFunc("POST /admin/products", staff(adminHandler.HandleCreateProduct))
	mux.HandleFunc("PUT /admin/products/{id}", staff(adminHandler.HandleUpdateProduct))
	mux.HandleFunc("DELETE /admin/products/{id}", staff(adminHandler.HandleDeleteProduct))
	mux.HandleFunc("POST /admin/images", staff(adminHandler.HandleUploadImage))
	mux.HandleFunc("GET /admin/admins", superAdmin(accountsHandler.HandleListAdmins))
	mux.HandleFunc("POST /admin/admins", superAdmin(accountsHandler.HandleCreateAdmin))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewHTTPHandler(auth.Session(issuer, logger)(mux), serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
