// Package server contains the HTTP and WebSocket surface of the marketplace API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "shaasam/docs" // swagger docs
	"shaasam/internal/cache"
	"shaasam/internal/config"
	"shaasam/internal/database"
	"shaasam/internal/featureflags"
	"shaasam/internal/middleware"
	"shaasam/internal/models"
	"shaasam/internal/notifications"
	"shaasam/internal/payments"
	"shaasam/internal/repository"
	"shaasam/internal/service"
	"shaasam/internal/sms"
	"shaasam/internal/taxonomy"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "shaasam-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.RequestHub
	featureFlags   *featureflags.Manager
	catalog        *taxonomy.Catalog

	matching     *service.MatchingService
	lifecycle    *service.LifecycleService
	settlement   *service.SettlementService
	verification *service.VerificationService
	profiles     *service.ProfileService
	reviews      *service.ReviewService
}

// backends are the external providers a server talks to.
type backends struct {
	processor payments.Processor
	sender    sms.Sender
	callbacks service.CallbackSender
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	s, err := NewServerWithDeps(cfg, db, cache.GetClient())
	if err != nil {
		return nil, err
	}
	s.promMiddleware = middleware.InitMetrics(serviceName)
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limits and the event feed then degrade.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	b := backends{
		callbacks: notifications.NewCallbackDispatcher(time.Duration(cfg.CallbackTimeoutMS) * time.Millisecond),
	}
	if cfg.PaymentsConfigured() {
		b.processor = payments.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}

	sender, err := sms.NewSender(sms.Settings{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		slog.Warn("sms delivery unavailable", slog.String("error", err.Error()))
	} else {
		b.sender = sender
	}

	return newServer(cfg, db, redisClient, b), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, b backends) *Server {
	humanRepo := repository.NewHumanRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)
	requireReview := cfg.ReviewRequired() || flags.Enabled(featureflags.RequireReview, "")

	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		hub:          notifications.NewRequestHub(),
		featureFlags: flags,
		catalog:      taxonomy.Default(),
	}

	var events service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		events = s.notifier
	}

	s.matching = service.NewMatchingService(humanRepo, redisClient, requireReview)
	s.lifecycle = service.NewLifecycleService(requestRepo, humanRepo, auditRepo, events, b.callbacks, flags, requireReview)
	s.settlement = service.NewSettlementService(paymentRepo, requestRepo, humanRepo, auditRepo, b.processor, service.SettlementConfig{
		PlatformFeeBPS:    cfg.PlatformFeeBPS,
		ConnectReturnURL:  cfg.StripeConnectReturnURL,
		ConnectRefreshURL: cfg.StripeConnectRefreshURL,
	})
	s.verification = service.NewVerificationService(verificationRepo, humanRepo, auditRepo, b.sender,
		service.NewSessionIssuer(cfg.AuthSecret), redisClient, cfg.IsProduction())
	s.profiles = service.NewProfileService(humanRepo, auditRepo, s.matching)
	s.reviews = service.NewReviewService(humanRepo, auditRepo, s.matching)
	return s
}

// SetupMiddleware configures the global middleware chain.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request id and human id into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Admin-Key, Stripe-Signature, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Shaasam API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	agent := middleware.APIKeyRequired(s.config.APIKey)
	session := middleware.SessionRequired(s.config.AuthSecret)

	// Agent request intake
	requests := api.Group("/requests", agent)
	requests.Post("/", s.CreateRequest)
	requests.Get("/", s.ListRequests)
	requests.Get("/:id", s.GetRequest)

	// Human directory and the human work view. The session routes are
	// registered before /:id so "requests" is not read as an id.
	humans := api.Group("/humans")
	humans.Get("/requests", session, s.ListHumanRequests)
	humans.Post("/requests/:id", session,
		middleware.RateLimitWithPolicy(s.redis, 60, time.Minute, middleware.FailOpen, middleware.ByHuman, "request_action"),
		s.ActOnRequest)
	humans.Get("/", agent, s.SearchHumans)
	humans.Get("/:id", agent, s.GetHuman)

	// Payments
	pay := api.Group("/payments")
	pay.Post("/connect", session, s.ConnectPayouts)
	pay.Post("/intent", agent,
		middleware.RateLimitWithPolicy(s.redis, 20, time.Minute, middleware.FailClosed, middleware.ByAPIKey, "payment_intent"),
		s.AuthorizePayment)
	pay.Post("/capture", agent, s.CapturePayment)
	pay.Post("/cancel", agent, s.CancelPayment)
	pay.Get("/:id", agent, s.GetPayment)

	api.Post("/webhooks/payment", s.PaymentWebhook)

	// Phone verification
	auth := api.Group("/auth")
	auth.Post("/start", middleware.RateLimit(s.redis, 5, 10*time.Minute, "otp_start"), s.StartVerification)
	auth.Post("/verify", middleware.RateLimit(s.redis, 10, 10*time.Minute, "otp_verify"), s.Verify)
	auth.Post("/logout", s.Logout)

	// Self-service profile
	api.Get("/profile", session, s.GetProfile)
	api.Post("/profile", session, s.UpdateProfile)
	api.Get("/alias", middleware.OptionalSession(s.config.AuthSecret), s.CheckAlias)
	api.Get("/taxonomy", s.GetTaxonomy)

	// Moderation
	admin := api.Group("/admin", middleware.AdminKeyRequired(s.config.AdminKey))
	admin.Get("/users", s.ListUsersForReview)
	admin.Post("/users/:id/review", s.ReviewUser)

	// Realtime request feed
	ws := api.Group("/ws")
	ws.Use(agent)
	ws.Get("/requests", s.WebSocketUpgrade, s.RequestFeed())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// newApp builds the fiber app with middleware and routes attached.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Shaasam API",
		BodyLimit: 1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				slog.Error("failed to start request feed wiring", slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down request hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
