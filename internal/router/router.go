package router

import (
	"net/http"
	"time"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/config"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/handler"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/infra"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/middleware"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/repository"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB, with Redis as an
// optional read-through cache in front of single-product reads.
// rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var cache service.ProductCache
	if rdb != nil {
		cache = infra.NewProductCache(rdb, cfg.CacheTTL)
	}
	productSvc := service.NewProductService(productRepo, cache, nil)
	healthSvc := service.NewHealthService(productRepo, cfg.AppName, cfg.AppVersion)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	health := handler.Health(healthSvc)

	r.GET("/health", health)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/health", health)

		products := api.Group("/products")
		products.POST("", productsH.Create)
		products.GET("", productsH.List)
		products.GET("/:id", productsH.Get)
		products.PUT("/:id", productsH.Update)
		products.DELETE("/:id", productsH.Deactivate)
	}

	// Swagger UI only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
		})
	}

	return r
}
