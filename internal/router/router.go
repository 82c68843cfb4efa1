package router

import (
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/config"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/handler"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/middleware"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, channelCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)
	deduper := infra.NewRedisDeduper(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	companySvc := service.NewCompanyService(companyRepo)
	documentSvc := service.NewDocumentService(companyRepo, documentRepo, dispatcher, cfg.PDFStoragePath)
	resolver := service.NewTenantResolver(companyRepo)
	inboundSvc := service.NewInboundService(messageRepo, companyRepo, resolver, documentSvc, deduper, dispatcher)

	// Billing: map configured Stripe price IDs to plans. Unset prices are
	// skipped so a deploy without billing still boots.
	priceToPlan := make(map[string]model.Plan, 3)
	for price, plan := range map[string]model.Plan{
		cfg.StripePriceStarter:  model.PlanStarter,
		cfg.StripePricePro:      model.PlanPro,
		cfg.StripePriceBusiness: model.PlanBusiness,
	} {
		if price != "" {
			priceToPlan[price] = plan
		}
	}
	billingSvc := service.NewBillingService(companyRepo, priceToPlan)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	companyH := handler.NewCompanyHandler(companySvc)
	documentsH := handler.NewDocumentsHandler(documentSvc)
	messagesH := handler.NewMessagesHandler(inboundSvc)
	billingH := handler.NewBillingHandler(billingSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, channelCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Channel gateway webhook — shared-token auth, no JWT. The gateway is a
	// machine client; per-user auth happens by resolving the sender phone.
	r.POST("/v1/messages/inbound", middleware.WebhookAuth(cfg.ChannelWebhookToken), messagesH.Inbound)

	// Billing webhook (Stripe events forwarded by the billing sidecar)
	r.POST("/v1/billing/events", middleware.WebhookAuth(cfg.BillingWebhookToken), billingH.Events)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		v1.GET("/company", companyH.Get)
		v1.PUT("/company", companyH.Update)

		docs := v1.Group("/documents")
		{
			docs.POST("", documentsH.Create)
			docs.GET("", documentsH.List)
			docs.GET("/:id", documentsH.Get)
			docs.PUT("/:id", documentsH.Update)
			docs.PATCH("/:id/status", documentsH.UpdateStatus)
			docs.GET("/:id/pdf", documentsH.DownloadPDF)
			docs.POST("/:id/send", documentsH.Send)
		}

		// Inbound message audit log
		v1.GET("/messages", messagesH.List)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
