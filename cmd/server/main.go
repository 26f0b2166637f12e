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

	"github.com/gin-gonic/gin"

	"docuseek-go/internal/config"
	"docuseek-go/internal/handler"
	"docuseek-go/internal/index"
	"docuseek-go/internal/middleware"
	"docuseek-go/internal/pipeline"
	"docuseek-go/internal/repository"
	"docuseek-go/internal/service"
	"docuseek-go/pkg/database"
	"docuseek-go/pkg/embedding"
	"docuseek-go/pkg/es"
	"docuseek-go/pkg/kafka"
	"docuseek-go/pkg/llm"
	"docuseek-go/pkg/log"
	"docuseek-go/pkg/storage"
	"docuseek-go/pkg/tika"
	"docuseek-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储、Elasticsearch 与 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	segmentRepo := repository.NewSegmentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	searchRepo := repository.NewSearchRepository(es.ESClient, cfg.Elasticsearch.DocumentIndex, cfg.Elasticsearch.SegmentIndex)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	segmenter := index.NewSegmenter(embeddingClient)

	userService := service.NewUserService(userRepo, jwtManager)
	adminService := service.NewAdminService(userRepo, docRepo)
	documentService := service.NewDocumentService(docRepo)
	categoryService := service.NewCategoryService(embeddingClient, cfg.Category)
	searchService := service.NewSearchService(embeddingClient, searchRepo, docRepo, service.SearchOptions{
		DistanceThreshold:   cfg.Search.DistanceThreshold,
		MaxResults:          cfg.Search.MaxResults,
		DefaultContextRange: cfg.Search.DefaultContextRange,
	})
	conversationService := service.NewConversationService(conversationRepo)
	chatService := service.NewChatService(searchService, llmClient, conversationRepo)

	// 6. 初始化文档处理管道 (Processor)
	processor := pipeline.NewProcessor(
		tikaClient,
		segmenter,
		categoryService,
		cfg.Elasticsearch,
		cfg.MinIO,
		cfg.Embedding,
		docRepo,
		segmentRepo,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// Document 路由组，需要认证
		documents := apiV1.Group("/documents")
		documents.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			documentHandler := handler.NewDocumentHandler(documentService)
			documents.POST("/upload", documentHandler.Upload)
			documents.POST("/bulk-upload", documentHandler.BulkUpload)
			documents.GET("", documentHandler.List)
			documents.GET("/:id", documentHandler.GetMetadata)
			documents.GET("/:id/download", documentHandler.Download)
			documents.DELETE("/:id", documentHandler.Delete)
		}

		// Search 路由组
		search := apiV1.Group("/search")
		search.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			searchHandler := handler.NewSearchHandler(searchService)
			search.GET("", searchHandler.FullTextSearch)
			search.GET("/contextual", searchHandler.ContextualSearch)
		}

		// Category 路由组
		categories := apiV1.Group("/categories")
		categories.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			categories.GET("", handler.NewCategoryHandler(categoryService).ListCategories)
		}

		// Conversation 路由组
		conversation := apiV1.Group("/users/conversation")
		conversation.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			conversationHandler := handler.NewConversationHandler(conversationService)
			conversation.GET("", conversationHandler.GetHistory)
			conversation.DELETE("", conversationHandler.Reset)
		}

		// Chat 路由 (WebSocket)
		chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)
		chatGroup := apiV1.Group("/chat")
		{
			chatGroup.GET("/websocket-token", chatHandler.GetWebsocketStopToken)
		}
		r.GET("/chat/:token", chatHandler.Handle)

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(adminService)
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.GET("/documents/list", adminHandler.ListDocuments)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
