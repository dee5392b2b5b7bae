package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fbadmin/internal/database"
	"fbadmin/internal/handlers"
	"fbadmin/internal/middleware"
	"fbadmin/internal/router"
	"fbadmin/internal/services"
	"fbadmin/pkg/config"
	"fbadmin/pkg/jwt"
	"fbadmin/pkg/logger"
	"fbadmin/pkg/tree"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting admin server...")

	buildType, err := tree.ParseBuildType(cfg.Tree.BuildType)
	if err != nil {
		appLogger.Fatalf("Invalid tree build type: %v", err)
	}

	// 初始化数据库
	db, err := database.Connect(cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := seedData(db, cfg); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	// 初始化Redis
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := database.OpenSessionStore(startCtx, cfg.Redis)
	cancelStart()
	if err != nil {
		appLogger.Fatalf("Failed to initialize redis: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	codec, err := jwt.NewManager(cfg.Token.SecretKey, cfg.Token.Algorithm)
	if err != nil {
		appLogger.Fatalf("Failed to initialize token codec: %v", err)
	}

	// 存储层
	userService := services.NewUserService(db)
	roleService := services.NewRoleService(db)
	deptService := services.NewDeptService(db)
	permissionService := services.NewPermissionService(db)
	policyService := services.NewPolicyService(db)
	loginLogService := services.NewLoginLogService(db)

	// 登录审计
	recorder := services.NewLoginLogRecorder(loginLogService, cfg.Audit.QueueSize, cfg.Audit.Workers)
	recorder.Start()

	cleaner := services.NewLoginLogCleaner(loginLogService, cfg.Audit.RetentionDays, cfg.Audit.CleanupSpec)
	if err := cleaner.Start(); err != nil {
		// 不影响主服务启动
		appLogger.Errorf("Failed to start login log cleaner: %v", err)
	}

	// 认证与鉴权
	eventBus := services.NewSessionEventBus(store.GetClient(), cfg.Token.AccessPrefix)
	tokenService := services.NewTokenService(store, codec, cfg.Token, eventBus)
	captchaService := services.NewCaptchaService(store, cfg.Captcha)
	authService := services.NewAuthService(
		services.NewCredentialVerifier(userService),
		captchaService,
		tokenService,
		userService,
		recorder,
	)
	resolver := services.NewPermissionResolver(roleService, deptService)
	authorizer, err := services.NewAuthorizer(cfg.Permission, resolver, policyService)
	if err != nil {
		appLogger.Fatalf("Failed to initialize authorizer: %v", err)
	}
	appLogger.Infof("Permission mode: %s", cfg.Permission.Mode)

	gin.SetMode(cfg.Server.Mode)

	r := router.SetupRouter(&router.Dependencies{
		Config:      cfg,
		Auth:        middleware.NewAuthMiddleware(authService, authorizer, resolver, cfg),
		AuthHandler: handlers.NewAuthHandler(authService, captchaService, resolver, cfg),
		Dept:        handlers.NewDeptHandler(deptService, buildType),
		Permission:  handlers.NewPermissionHandler(permissionService, buildType),
		LoginLog:    handlers.NewLoginLogHandler(loginLogService),
		WebSocket:   handlers.NewWebSocketHandler(authService, eventBus, cfg.CORS.AllowOrigins),
		System:      handlers.NewSystemHandler(db, store),
	})

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	cleaner.Stop()
	if err := recorder.Stop(ctx); err != nil {
		appLogger.Warnf("Login log queue not fully drained: %v", err)
	}
	appLogger.Info("Server exited")
}
