package router

import (
	"time"

	_ "github.com/ech/backend/docs"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/interfaces/http/handler"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers are the endpoints served by the API
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Caisse        *handler.CaisseHandler
	Debt          *handler.DebtHandler
	Project       *handler.ProjectHandler
	Revenue       *handler.RevenueHandler
	Document      *handler.DocumentHandler
	Notifications *handler.NotificationHandler
}

// Options configures the route level middleware
type Options struct {
	Authenticator middleware.Authenticator
	// IdempotencyStore guards the financial POSTs; nil disables replay
	IdempotencyStore shared.IdempotencyStore
	IdempotencyTTL   time.Duration
	// AuthLimiter throttles login and refresh; nil disables it
	AuthLimiter *middleware.RateLimiter
	// RequestTimeout bounds API requests; the websocket is exempt
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Mount registers every route on engine: /health, /swagger and /ws/caisse at
// the root, the rest under BasePath behind JWT authentication.
func Mount(engine *gin.Engine, h Handlers, opts Options) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authn := middleware.JWTAuth(middleware.JWTAuthConfig{
		Authenticator: opts.Authenticator,
		Public:        []string{BasePath + "/auth/login", BasePath + "/auth/refresh", BasePath + "/health"},
		Logger:        log,
	})
	gate := func(groups ...string) gin.HandlerFunc {
		return middleware.RequireGroupsWithConfig(middleware.PermissionConfig{Logger: log}, groups...)
	}
	idempotent := middleware.Idempotency(middleware.IdempotencyMiddlewareConfig{
		Store:  opts.IdempotencyStore,
		TTL:    opts.IdempotencyTTL,
		Logger: log,
	})
	finance := []gin.HandlerFunc{gate(middleware.GroupAdmin, middleware.GroupComptable), idempotent}
	office := gate(middleware.GroupAdmin, middleware.GroupGestionnaire)
	admin := gate(middleware.GroupAdmin)
	var throttle []gin.HandlerFunc
	if opts.AuthLimiter != nil {
		throttle = append(throttle, middleware.AuthRateLimit(opts.AuthLimiter))
	}

	engine.GET("/health", h.Health.Health)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.Notifications != nil {
		engine.GET("/ws/caisse", authn, h.Notifications.Serve)
	}

	api := engine.Group(BasePath, middleware.Timeout(opts.RequestTimeout), authn)
	api.GET("/health", h.Health.Health)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", chain(throttle, h.Auth.Login)...)
	authRoutes.POST("/refresh", chain(throttle, h.Auth.RefreshToken)...)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.GetCurrentUser)
	authRoutes.PUT("/password", h.Auth.ChangePassword)
	users := authRoutes.Group("/users", admin)
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.PATCH("/:id/active", h.User.SetActive)
	users.PUT("/:id/groups", h.User.SetGroups)

	caisse := api.Group("/caisse")
	caisse.GET("", h.Caisse.Balance)
	caisse.POST("/encaissement", chain(finance, h.Caisse.Credit)...)
	caisse.POST("/decaissement", chain(finance, h.Caisse.Debit)...)
	caisse.POST("/adjust", admin, idempotent, h.Caisse.Adjust)
	caisse.GET("/operations", h.Caisse.ListOperations)
	caisse.GET("/operations/:id", h.Caisse.GetOperation)
	caisse.GET("/operations/:id/pdf", h.Caisse.OperationPDF)
	caisse.GET("/history", h.Caisse.ListHistory)
	caisse.GET("/history/pdf", h.Caisse.HistoryPDF)
	caisse.GET("/history/export", h.Caisse.HistoryExport)
	caisse.GET("/history/:id", h.Caisse.GetHistoryEntry)
	caisse.GET("/history/:id/pdf", h.Caisse.HistoryEntryPDF)

	api.GET("/dashboard", h.Caisse.Dashboard)

	dettes := api.Group("/dettes")
	dettes.POST("/create", chain(finance, h.Debt.Create)...)
	dettes.GET("", h.Debt.List)
	dettes.GET("/:id", h.Debt.Get)
	dettes.POST("/:id/payment", chain(finance, h.Debt.Pay)...)
	dettes.GET("/:id/journal/pdf", h.Debt.JournalPDF)

	projects := api.Group("/projects")
	projects.POST("", office, h.Project.Create)
	projects.GET("", h.Project.List)
	projects.POST("/finance-report", h.Project.FinanceReport)
	projects.GET("/:id", h.Project.Get)
	projects.PUT("/:id", office, h.Project.Update)
	projects.DELETE("/:id", office, h.Project.Delete)
	projects.GET("/:id/pdf", h.Project.PDF)
	projects.GET("/:id/revenus", h.Revenue.ListByProject)

	revenus := api.Group("/revenus")
	revenus.POST("", chain(finance, h.Revenue.Create)...)
	revenus.GET("/:id", h.Revenue.Get)
	revenus.DELETE("/:id", gate(middleware.GroupAdmin, middleware.GroupComptable), h.Revenue.Delete)

	deliveryNotes := api.Group("/bons-livraison")
	deliveryNotes.POST("", office, h.Document.CreateDeliveryNote)
	deliveryNotes.GET("", h.Document.ListDeliveryNotes)
	deliveryNotes.GET("/:id", h.Document.GetDeliveryNote)
	deliveryNotes.PUT("/:id", office, h.Document.UpdateDeliveryNote)
	deliveryNotes.DELETE("/:id", office, h.Document.DeleteDeliveryNote)
	deliveryNotes.POST("/:id/pdf", office, h.Document.GenerateDeliveryNotePDF)
	deliveryNotes.GET("/:id/pdf", h.Document.DownloadDeliveryNotePDF)
	deliveryNotes.GET("/:id/history", h.Document.DeliveryNoteHistory)

	purchaseOrders := api.Group("/bons-commande")
	purchaseOrders.POST("", office, h.Document.CreatePurchaseOrder)
	purchaseOrders.GET("", h.Document.ListPurchaseOrders)
	purchaseOrders.GET("/:id", h.Document.GetPurchaseOrder)
	purchaseOrders.GET("/:id/pdf", h.Document.PurchaseOrderPDF)

	missionOrders := api.Group("/ordres-mission")
	missionOrders.POST("", office, h.Document.CreateMissionOrder)
	missionOrders.GET("", h.Document.ListMissionOrders)
	missionOrders.GET("/:id", h.Document.GetMissionOrder)
	missionOrders.GET("/:id/pdf", h.Document.MissionOrderPDF)

	handleUnmatched(engine)
}
