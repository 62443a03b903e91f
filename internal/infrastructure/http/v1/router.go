package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"bibliolab/internal/domain/analysis"
	"bibliolab/internal/domain/auth"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/domain/reading"
	"bibliolab/internal/domain/study"
	"bibliolab/internal/infrastructure/http/v1/dto"
	"bibliolab/internal/infrastructure/http/v1/handlers"
	"bibliolab/internal/infrastructure/http/v1/middleware"
	"bibliolab/pkg/logger"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth        *auth.Service
	Users       *auth.UserService
	Authors     *author.Service
	Books       *book.Service
	Genres      *genre.Service
	Experiments *experiment.Service
	People      *person.Service
	Studies     *study.Service
	Reading     *reading.Service
	Analysis    *analysis.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// ServiceName names the otel HTTP spans
	ServiceName string

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// CORSOrigins lists the allowed browser origins
	CORSOrigins []string

	// TrustedProxies may supply X-Forwarded-For; empty trusts no proxy
	TrustedProxies []string

	// AnonymousLimiter and UserLimiter throttle requests; nil disables throttling
	AnonymousLimiter middleware.Limiter
	UserLimiter      middleware.Limiter

	// HealthChecks are run by /health/ready
	HealthChecks map[string]handlers.Check

	// Clock drives computed fields; defaults to time.Now
	Clock func() time.Time

	Services Services
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler(cfg.Clock)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(cfg.JWTValidator))
	if cfg.AnonymousLimiter != nil && cfg.UserLimiter != nil {
		v1.Use(middleware.RateLimit(cfg.AnonymousLimiter, cfg.UserLimiter))
	}
	{
		registerAuthRoutes(v1, base, cfg.Services)

		protected := v1.Group("")
		protected.Use(middleware.RequireAuth())

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())

		registerCatalogRoutes(protected, admin, base, cfg.Services)
		registerLabRoutes(protected, admin, base, cfg.Services)
		registerUserRoutes(protected, admin, base, cfg.Services)
		registerReadingRoutes(protected, base, cfg.Services)
	}

	return router, nil
}

func registerAuthRoutes(v1 *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	h := handlers.NewAuthHandler(base, s.Auth)

	public := v1.Group("/auth")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/refresh", h.Refresh)
		public.POST("/verify", h.Verify)
	}

	private := v1.Group("/auth")
	private.Use(middleware.RequireAuth())
	{
		private.POST("/logout", h.Logout)
		private.GET("/me", h.Me)
	}
}

func registerCatalogRoutes(protected, admin *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	books := handlers.NewBookHandler(base, s.Books)
	authors := handlers.NewAuthorHandler(base, s.Authors, books)
	genres := handlers.NewGenreHandler(base, s.Genres)

	bookGroup := protected.Group("/books")
	{
		bookGroup.GET("/popular", books.Popular)
		bookGroup.GET("/recent", books.Recent)
		bookGroup.GET("/by-price-range", books.ByPriceRange)
		bookGroup.GET("/top-rated", books.TopRated)
		bookGroup.GET("/by-genre", books.ByGenre)
		bookGroup.PUT("/:id/genres", books.SetGenres)
	}
	RegisterLifecycleRoutes(bookGroup, admin.Group("/books"), books)

	authorGroup := protected.Group("/authors")
	{
		authorGroup.GET("/prolific", authors.Prolific)
		authorGroup.GET("/:id/books", authors.Books)
	}
	RegisterLifecycleRoutes(authorGroup, admin.Group("/authors"), authors)

	protected.GET("/genres", genres.List)
	protected.POST("/genres", middleware.RequireAdmin(), genres.Create)
}

func registerLabRoutes(protected, admin *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	experiments := handlers.NewExperimentHandler(base, s.Experiments)
	people := handlers.NewPersonHandler(base, s.People)
	studies := handlers.NewStudyHandler(base, s.Studies)

	experimentGroup := protected.Group("/experiments")
	experimentGroup.GET("/by-status", experiments.ByStatus)
	RegisterLifecycleRoutes(experimentGroup, admin.Group("/experiments"), experiments)

	peopleGroup := protected.Group("/people")
	peopleGroup.GET("/adults", people.Adults)
	RegisterLifecycleRoutes(peopleGroup, admin.Group("/people"), people)

	studyGroup := protected.Group("/studies")
	{
		studyGroup.GET("/active", studies.Active)
		studyGroup.GET("/ongoing", studies.Ongoing)
		studyGroup.GET("/by-duration", studies.ByDuration)
	}
	RegisterLifecycleRoutes(studyGroup, admin.Group("/studies"), studies)
}

func registerUserRoutes(protected, admin *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	h := handlers.NewUserHandler(base, s.Users)

	users := protected.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.PATCH("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
		users.POST("/:id/soft-delete", h.Delete)
		users.POST("/:id/restore", h.Restore)
	}
	admin.DELETE("/users/:id", h.HardDelete)
}

func registerReadingRoutes(protected *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	profiles := handlers.NewProfileHandler(base, s.Reading)
	analysisHandler := handlers.NewAnalysisHandler(base, s.Analysis)

	group := protected.Group("/profiles/:user_id")
	{
		group.GET("", profiles.Get)
		group.PUT("/favorite-genres", profiles.SetFavoriteGenres)
		group.POST("/reading-history", profiles.AddHistory)
		group.GET("/recommendations", profiles.Recommendations)
		group.POST("/recommendations", middleware.RequireAdmin(), profiles.Recommend)
	}

	protected.GET("/complex-analysis", analysisHandler.Run)
}
