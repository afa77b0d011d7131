package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/controllers"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB          *gorm.DB
	Orders      *services.OrderService
	Phases      *services.PhaseService
	Materials   *services.MaterialService
	Problems    *services.ProblemService
	Notes       *services.NoteService
	Dashboard   *services.DashboardService
	Uploads     *services.UploadService
	Users       *services.UserService
	Hub         *events.Hub
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewDeps builds every service on db. publisher receives domain events after
// each committed mutation.
func NewDeps(db *gorm.DB, publisher events.Publisher, store services.FileStore, userInfo services.UserInfoProvider, hub *events.Hub, logger *zap.Logger) *Deps {
	return &Deps{
		DB:        db,
		Orders:    services.NewOrderService(db, publisher, logger),
		Phases:    services.NewPhaseService(db, publisher, logger),
		Materials: services.NewMaterialService(db, publisher, logger),
		Problems:  services.NewProblemService(db, publisher, logger),
		Notes:     services.NewNoteService(db, publisher, logger),
		Dashboard: services.NewDashboardService(db, logger),
		Uploads:   services.NewUploadService(db, store, logger),
		Users:     services.NewUserService(db, userInfo, logger),
		Hub:       hub,
		Logger:    logger,
	}
}

// Setup registers the API on router. auth validates the bearer token and
// sets the token subject; production passes middleware.EnsureValidToken.
func Setup(router *gin.Engine, deps *Deps, auth gin.HandlerFunc) {
	utils.RegisterBindingValidators()

	orders := controllers.NewOrderController(deps.Orders, deps.Logger)
	phases := controllers.NewPhaseController(deps.Phases, deps.Logger)
	materials := controllers.NewMaterialController(deps.Materials, deps.Logger)
	problems := controllers.NewProblemController(deps.Problems, deps.Logger)
	notes := controllers.NewNoteController(deps.Notes, deps.Logger)
	dashboard := controllers.NewDashboardController(deps.Dashboard, deps.Logger)
	uploads := controllers.NewUploadController(deps.Uploads, deps.Logger)
	users := controllers.NewUserController(deps.Users, deps.Logger)

	office := middleware.RequireRole(models.RoleOffice)
	operator := middleware.RequireRole(models.RoleOperator)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(deps.DB, deps.Logger))

		// Profile creation runs before a profile exists.
		v1.POST("/users", auth, users.Register)

		api := v1.Group("", auth, middleware.LoadActor(deps.Users, deps.Logger))

		api.GET("/users/me", users.Me)
		api.PUT("/users/me", users.UpdateMe)
		api.GET("/users", office, users.List)
		api.PATCH("/users/:id", office, users.Update)

		api.GET("/orders", orders.List)
		api.GET("/orders/export", office, orders.Export)
		api.GET("/orders/:id", orders.Get)
		api.POST("/orders", office, orders.Create)
		api.PATCH("/orders/:id", office, orders.Update)
		api.DELETE("/orders/:id", office, orders.Delete)
		api.POST("/orders/:id/subframe/prepared", operator, orders.MarkSubframePrepared)
		api.POST("/orders/:id/subframe/delivered", office, orders.MarkSubframeDelivered)
		api.POST("/orders/:id/document", office, uploads.AttachDocument)
		api.GET("/orders/:id/phases", phases.ListForOrder)
		api.GET("/orders/:id/materials", materials.ListForOrder)
		api.GET("/orders/:id/notes", notes.List)
		api.POST("/orders/:id/notes", notes.Add)

		api.GET("/phases/mine", operator, phases.ListMine)
		api.POST("/phases/:id/complete", operator, phases.Complete)

		api.GET("/materials/to-order", office, materials.ListToOrder)
		api.GET("/materials/:id", materials.Get)
		api.GET("/materials/:id/delivery-suggestion", materials.SuggestDelivery)
		api.PATCH("/materials/:id", office, materials.Update)
		api.POST("/materials/:id/order", office, materials.Order)
		api.POST("/materials/:id/arrived", materials.Receive)

		api.GET("/problems", problems.List)
		api.GET("/problems/:id", problems.Get)
		api.POST("/problems", problems.Report)
		api.POST("/problems/:id/resolve", problems.Resolve)

		api.GET("/dashboard/stats", office, dashboard.Stats)
		api.GET("/dashboard/alerts", office, dashboard.Alerts)

		api.POST("/uploads", uploads.Upload)
		api.GET("/uploads/url", uploads.URL)
	}

	if deps.Hub != nil {
		ws := controllers.NewEventsController(deps.Hub, deps.CORSOrigins, deps.Logger)
		router.GET("/api/v1/ws", middleware.TokenFromQuery(), auth, middleware.LoadActor(deps.Users, deps.Logger), ws.Connect)
	}
}
