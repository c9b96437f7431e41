package router

import (
	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/config"
	adminhandlers "github.com/polbel-next/internal/http/handlers/admin"
	gatewayhandlers "github.com/polbel-next/internal/http/handlers/gateway"
	publichandlers "github.com/polbel-next/internal/http/handlers/public"
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/provider"
	"github.com/polbel-next/internal/schema"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		if cfg.Server.Mode == "release" {
			gin.SetMode(gin.ReleaseMode)
		} else {
			gin.SetMode(gin.DebugMode)
		}
	}
	r := gin.New()

	// 初始化 Handler
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	gatewayHandler := gatewayhandlers.New(c)
	redisClient := cache.Client()
	loginRule := LoginRateLimitRule(cfg.Security.LoginRateLimit)
	publicRule := PublicRateLimitRule(cfg.Security.PublicRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))
	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "not found")
	})

	// 所有已注册路由都经过身份解析与 casbin 授权
	root := r.Group("")
	root.Use(OptionalAdminMiddleware(c.AuthService))
	root.Use(AccessMiddleware(c.AuthzService))

	root.GET("/health", publicHandler.Health)

	api := root.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/register-admin", AdminGuardMiddleware(), adminHandler.RegisterAdmin)
			auth.GET("/me", AdminGuardMiddleware(), adminHandler.GetCurrentAdmin)
		}

		api.GET("/captcha", publicHandler.GetImageCaptcha)

		dashboard := api.Group("/dashboard")
		dashboard.Use(AdminGuardMiddleware())
		{
			dashboard.GET("/stats", adminHandler.GetDashboardStats)
			dashboard.GET("/order-statuses", adminHandler.GetOrderStatuses)
		}

		// 实体网关：每个注册实体一组通用路由
		guestWrites := guestOnly(RateLimitMiddleware(redisClient, publicRule, KeyByIP))
		for _, def := range schema.All() {
			entity := api.Group("/" + def.Name())
			entity.Use(gatewayhandlers.BindEntity(def.Entity))
			{
				entity.GET("", gatewayHandler.List)
				entity.GET("/:id", gatewayHandler.Get)
				entity.POST("", guestWrites, gatewayHandler.Create)
				entity.PUT("/:id", gatewayHandler.Update)
				entity.DELETE("/:id", gatewayHandler.Delete)
			}
			if def.Entity == schema.EntityPost {
				entity.POST("/:id/view", guestWrites, gatewayHandler.IncrementPostView)
			}
		}
	}

	return r
}

// guestOnly 仅对游客执行给定中间件
func guestOnly(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handlershared.GetActor(c).IsAdmin() {
			c.Next()
			return
		}
		next(c)
	}
}
