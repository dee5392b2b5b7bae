package router

import (
	"fbadmin/internal/handlers"
	"fbadmin/internal/middleware"
	"fbadmin/pkg/config"

	"github.com/gin-gonic/gin"
)

// Dependencies 路由所需的中间件与处理器
type Dependencies struct {
	Config      *config.Config
	Auth        *middleware.AuthMiddleware
	AuthHandler *handlers.AuthHandler
	Dept        *handlers.DeptHandler
	Permission  *handlers.PermissionHandler
	LoginLog    *handlers.LoginLogHandler
	WebSocket   *handlers.WebSocketHandler
	System      *handlers.SystemHandler
}

// SetupRouter 设置路由
func SetupRouter(deps *Dependencies) *gin.Engine {
	handlers.RegisterValidators()

	router := gin.New()

	// 中间件
	router.Use(middleware.AccessLog())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(deps.Config.CORS))

	registerRoutes(router, deps)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, deps *Dependencies) {
	auth := deps.Auth

	api := router.Group(deps.Config.Server.APIPrefix)
	{
		api.GET("/health", deps.System.Health)

		// 认证
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/captcha", deps.AuthHandler.GetCaptcha)
			authGroup.POST("/login", deps.AuthHandler.Login)
			authGroup.POST("/token/new", deps.AuthHandler.RefreshToken)
			authGroup.POST("/logout", auth.RequireLogin(), deps.AuthHandler.Logout)
			authGroup.GET("/me", auth.RequireLogin(), deps.AuthHandler.Me)
		}

		sys := api.Group("/sys", auth.RequireLogin())
		{
			// 侧边栏只需登录
			sys.GET("/menus/sidebar", deps.Permission.GetSidebar)

			sys.GET("/depts/tree", auth.RequireAuthorization(), auth.RequirePermission("sys:dept:list"), deps.Dept.GetTree)
		}

		logs := api.Group("/logs", auth.RequireLogin(), auth.RequireAuthorization())
		{
			logs.GET("/login", auth.RequirePermission("log:login:list"), deps.LoginLog.List)
		}

		// 令牌通过查询参数传递，由处理器自行校验
		api.GET("/ws/session", deps.WebSocket.Session)
	}
}
