package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pragyanetra/console/internal/cache"
	"github.com/pragyanetra/console/internal/config"
	apierrors "github.com/pragyanetra/console/internal/errors"
	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/middleware"
	"github.com/pragyanetra/console/internal/models"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/payment"
	"github.com/pragyanetra/console/internal/publish"
	"github.com/pragyanetra/console/internal/store"
	"github.com/pragyanetra/console/internal/upload"
	"github.com/pragyanetra/console/internal/wallet"
)

// APIServer exposes the console over HTTP. It owns the single wallet session
// and the workflow coordinators built on top of it.
type APIServer struct {
	config           *config.Config
	router           *gin.Engine
	db               *pgxpool.Pool
	redis            *cache.Redis
	store            *store.Store
	session          *wallet.Session
	node             wallet.Provider
	gate             *payment.Gate
	uploads          *upload.Client
	enricher         publish.Resolver
	coordinator      *publish.Coordinator
	editor           *publish.Editor
	jwtAuthenticator *middleware.JWTAuthenticator
}

// NewAPIServer creates a new API server instance. walletProvider is the
// EIP-1193 bridge to the user's wallet; nil means no wallet is installed and
// every paid operation will fail with a wallet error.
func NewAPIServer(cfg *config.Config, db *pgxpool.Pool, redis *cache.Redis, walletProvider wallet.Provider, enricher publish.Resolver) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	session := wallet.NewSession(walletProvider, wallet.ChainFromConfig(&cfg.Chain))
	gate := payment.NewGate(session, &cfg.Payment)
	guard := publish.NewGuard()
	st := store.New(db)
	uploads := upload.NewClient(&cfg.Upload)

	srv := &APIServer{
		config:           cfg,
		router:           router,
		db:               db,
		redis:            redis,
		store:            st,
		session:          session,
		node:             wallet.NewRPCClient(cfg.Chain.NodeRPCURL),
		gate:             gate,
		uploads:          uploads,
		enricher:         enricher,
		coordinator:      publish.NewCoordinator(gate, uploads, enricher, st, guard),
		editor:           publish.NewEditor(gate, enricher, st, &cfg.Payment, guard),
		jwtAuthenticator: middleware.NewJWTAuthenticator(&cfg.JWT),
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		// Provider onboarding (public)
		providers := v1.Group("/providers")
		{
			providers.GET("/:id/available", s.handleUsernameAvailable)
			providers.POST("/", s.handleCreateProvider)
			providers.GET("/:id", s.handleGetProvider)
		}

		// Wallet session (protected)
		walletGroup := v1.Group("/wallet")
		walletGroup.Use(s.jwtAuthenticator.JWTAuth())
		{
			walletGroup.POST("/connect", s.handleWalletConnect)
			walletGroup.POST("/disconnect", s.handleWalletDisconnect)
			walletGroup.GET("/status", s.handleWalletStatus)
			walletGroup.GET("/balance", s.handleWalletBalance)
			walletGroup.POST("/bind", s.handleBindWallet)
		}

		// Courses (reads public, writes protected)
		courses := v1.Group("/courses")
		{
			courses.GET("/", s.handleListCourses)
			courses.GET("/:id", s.handleGetCourse)
			courses.POST("/", s.jwtAuthenticator.JWTAuth(), s.handlePublishCourse)
			courses.PUT("/:id/videos/:index", s.jwtAuthenticator.JWTAuth(), s.handleEditVideo)
		}

		// Balance recharge (protected)
		v1.POST("/recharge", s.jwtAuthenticator.JWTAuth(), s.handleRecharge)
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}

	if err := s.db.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	if s.redis != nil {
		if err := s.redis.Health(c.Request.Context()); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": s.config.Server.Name,
		"checks":  checks,
	})
}

type createProviderRequest struct {
	Username    string  `json:"username" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	DisplayName string  `json:"display_name" binding:"required"`
	Bio         *string `json:"bio"`
	LinkedIn    *string `json:"linkedin"`
	Twitter     *string `json:"twitter"`
	AvatarURL   string  `json:"avatar_url"`
}

// handleUsernameAvailable reports whether a username is free to claim
func (s *APIServer) handleUsernameAvailable(c *gin.Context) {
	id := c.Param("id")
	available, err := s.store.UsernameAvailable(c.Request.Context(), id)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": id, "available": available})
}

// handleCreateProvider registers a new provider profile
func (s *APIServer) handleCreateProvider(c *gin.Context) {
	var req createProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	p := &models.Provider{
		ID:          req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		LinkedIn:    req.LinkedIn,
		Twitter:     req.Twitter,
		AvatarURL:   req.AvatarURL,
	}
	if err := s.store.CreateProvider(c.Request.Context(), p); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			respondError(c, apierrors.ErrUsernameTakenError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, p)
}

// handleGetProvider returns a provider's public profile
func (s *APIServer) handleGetProvider(c *gin.Context) {
	p, err := s.store.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrProviderNotFound) {
			respondError(c, apierrors.ErrProviderNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleListCourses returns every published course
func (s *APIServer) handleListCourses(c *gin.Context) {
	if providerID := c.Query("provider"); providerID != "" {
		courses, err := s.store.ListCoursesByProvider(c.Request.Context(), providerID)
		if err != nil {
			respondError(c, apierrors.ErrInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": courses})
		return
	}

	courses, err := s.store.ListCourses(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// handleGetCourse returns a single course with its video list
func (s *APIServer) handleGetCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid course id"))
		return
	}

	course, err := s.store.GetCourse(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			respondError(c, apierrors.ErrCourseNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}
	c.JSON(http.StatusOK, course)
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	reqID := middleware.GetRequestIDFromContext(c)
	corrID, _ := c.Get("correlation_id")
	corrIDStr, _ := corrID.(string)
	if corrIDStr == "" {
		corrIDStr = reqID
	}

	c.JSON(err.HTTPStatus, apierrors.NewErrorResponse(
		err,
		reqID,
		corrIDStr,
		c.Request.URL.Path,
		c.Request.Method,
	))
}
