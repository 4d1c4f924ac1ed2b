package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/handler"
	"github.com/noah-isme/edufund-api/internal/middleware"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	"github.com/noah-isme/edufund-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edufund-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edufund-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Students    *handler.StudentHandler
	Campaigns   *handler.CampaignHandler
	Moderation  *handler.ModerationHandler
	Donations   *handler.DonationHandler
	Donors      *handler.DonorHandler
	Users       *handler.UserHandler
	Withdrawals *handler.WithdrawalHandler
	Dashboard   *handler.DashboardHandler
	Reports     *handler.ReportHandler
	Metrics     *handler.MetricsHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	UploadsDir     string
	UploadsPath    string
	EnableDocs     bool
	Tokens         middleware.TokenValidator
	Metrics        *service.MetricsService
	Audit          service.AuditWriter
	Logger         *zap.Logger
}

// New builds the gin engine with every route registered.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.UploadsDir != "" && opts.UploadsPath != "" {
		r.Static(opts.UploadsPath, opts.UploadsDir)
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)

	authRequired := middleware.JWT(opts.Tokens)
	optionalAuth := middleware.OptionalJWT(opts.Tokens)
	student := middleware.RequireRoles(models.RoleStudent)
	donor := middleware.RequireRoles(models.RoleDonor)
	admin := middleware.RequireRoles(models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, opts.Logger, action, resource)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", authRequired, h.Auth.Logout)
		auth.POST("/change-password", authRequired, h.Auth.ChangePassword)
		auth.GET("/me", authRequired, h.Auth.Me)
	}

	students := api.Group("/students", authRequired)
	{
		students.GET("/profile", student, h.Students.GetProfile)
		students.POST("/profile", student, h.Students.SubmitProfile)
		students.GET("", admin, h.Students.List)
		students.PATCH("/:id/verify", admin, audit("profile.decide", "student_profile"), h.Students.Verify)
	}

	campaigns := api.Group("/campaigns")
	{
		campaigns.GET("", h.Campaigns.List)
		campaigns.GET("/verified", h.Campaigns.List)
		campaigns.GET("/user/my-campaigns", authRequired, student, h.Campaigns.Mine)
		campaigns.GET("/:id", optionalAuth, h.Campaigns.Get)
		campaigns.POST("", authRequired, student, h.Campaigns.Create)
		campaigns.PUT("/:id", authRequired, student, h.Campaigns.Update)
		campaigns.POST("/:id/updates", authRequired, student, h.Campaigns.PostUpdate)
		campaigns.POST("/:id/withdrawals", authRequired, student, h.Campaigns.RequestWithdrawal)
		campaigns.PUT("/:id/verify", authRequired, admin, audit("campaign.verify", "campaign"), h.Moderation.Verify)
	}

	donations := api.Group("/donations")
	{
		donations.GET("/campaign/:campaignId", h.Donations.ForCampaign)
		donations.POST("", authRequired, h.Donations.Create)
		donations.GET("/my-donations", authRequired, h.Donations.Mine)
		donations.GET("/stats", authRequired, h.Donations.Stats)
	}

	donors := api.Group("/donors", authRequired, donor)
	{
		donors.GET("/profile", h.Donors.Profile)
		donors.PUT("/profile", h.Donors.UpdateProfile)
		donors.GET("/donations", h.Donors.Donations)
		donors.PUT("/preferences", h.Donors.UpdatePreferences)
	}

	api.POST("/payments/webhook", h.Donations.Webhook)

	adminGroup := api.Group("/admin", authRequired, admin)
	{
		adminGroup.GET("/dashboard", h.Dashboard.Admin)

		adminGroup.GET("/campaigns", h.Moderation.List)
		adminGroup.GET("/campaigns/review", h.Moderation.Queue)
		adminGroup.PUT("/campaigns/:id/verify", audit("campaign.review", "campaign"), h.Moderation.Review)
		adminGroup.POST("/campaigns/:id/flags", audit("campaign.flag", "campaign"), h.Moderation.Flag)
		adminGroup.PATCH("/campaigns/:id/flags/:flagId/resolve", audit("campaign.flag_resolve", "campaign"), h.Moderation.ResolveFlag)

		adminGroup.GET("/withdrawals", h.Withdrawals.List)
		adminGroup.PATCH("/withdrawals/:id", audit("withdrawal.process", "withdrawal"), h.Withdrawals.Process)

		adminGroup.GET("/users", h.Users.List)
		adminGroup.GET("/users/:id", h.Users.Get)
		adminGroup.PATCH("/users/:id", audit("user.update", "user"), h.Users.Update)
		adminGroup.POST("/users/:id/suspend", audit("user.suspend", "user"), h.Users.Suspend)
		adminGroup.POST("/users/:id/flags", audit("user.flag", "user"), h.Users.Flag)

		adminGroup.PATCH("/donations/:id/status", audit("donation.status", "donation"), h.Donations.UpdateStatus)

		adminGroup.GET("/reports/download/:token", h.Reports.Download)
		adminGroup.GET("/reports/:type", h.Reports.Export)
	}

	return r
}
