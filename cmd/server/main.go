// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexaid-go/internal/config"
	"lexaid-go/internal/handler"
	"lexaid-go/internal/middleware"
	"lexaid-go/internal/model"
	"lexaid-go/internal/repository"
	"lexaid-go/internal/service"
	"lexaid-go/pkg/database"
	"lexaid-go/pkg/llm"
	"lexaid-go/pkg/log"
	"lexaid-go/pkg/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	blacklist := repository.NewTokenBlacklist(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireDays)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepo, blacklist, jwtManager)
	conversationService := service.NewConversationService(conversationRepo)
	adviceService := service.NewAdviceService(llmClient, conversationRepo)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())
	// 前端与后端跨域部署（UI :3000 / API :5000）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// 7. 注册路由
	authRequired := middleware.AuthMiddleware(jwtManager, userService, blacklist)

	auth := r.Group("/api/auth")
	{
		authHandler := handler.NewAuthHandler(userService)
		// 无需认证的路由 (公开访问)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		// 需要认证的路由 (仅限登录用户访问)
		authed := auth.Group("/")
		authed.Use(authRequired)
		{
			authed.GET("/me", authHandler.GetMe)
			authed.POST("/logout", authHandler.Logout)
		}
	}

	conversations := r.Group("/api/conversations")
	conversations.Use(authRequired)
	{
		conversationHandler := handler.NewConversationHandler(conversationService)
		conversations.GET("", conversationHandler.List)
		conversations.POST("", conversationHandler.Create)
		conversations.GET("/:id", conversationHandler.Get)
		conversations.DELETE("/:id", conversationHandler.Delete)
	}

	// 咨询流式转发端点
	r.POST("/legal-advice", authRequired, handler.NewAdviceHandler(adviceService).Stream)

	// 静态单页前端
	r.StaticFile("/", "./web/index.html")
	r.StaticFile("/app.js", "./web/app.js")
	r.StaticFile("/styles.css", "./web/styles.css")

	// 8. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
