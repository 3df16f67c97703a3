package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/handler"
	"rag-chat-go/internal/loader"
	"rag-chat-go/internal/middleware"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/pipeline"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/service"
	"rag-chat-go/internal/splitter"
	"rag-chat-go/pkg/database"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/heygen"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tasks"
	"rag-chat-go/pkg/tika"
	"rag-chat-go/pkg/token"
	"rag-chat-go/pkg/vectorstore"
)

func main() {
	// .env 仅在本地开发存在，缺失不是错误
	_ = godotenv.Load()

	config.Init("./configs/config.yaml")
	cfg := &config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Infof("%s v%s 启动中...", cfg.App.Name, cfg.App.Version)

	// 基础设施
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.DocumentRecord{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	store, err := vectorstore.NewStore(cfg.Elasticsearch)
	if err != nil {
		log.Fatal("初始化向量库失败", err)
	}

	// 管道组件
	sp, err := splitter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal("初始化切分器失败", err)
	}
	ld := loader.New(tika.NewClient(cfg.Tika))
	embedder := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	heygenClient := heygen.NewClient(cfg.HeyGen)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireMinutes)

	// 数据访问层与业务层
	docRepo := repository.NewDocumentRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.RDB)
	ingestService := service.NewIngestService(sp, ld, embedder, store, docRepo, cfg.Upload)
	chatService := service.NewChatService(embedder, store, llmClient, convRepo, cfg.RAG)
	documentService := service.NewDocumentService(store, docRepo)
	conversationService := service.NewConversationService(convRepo)

	documentHandler := handler.NewDocumentHandler(ingestService, documentService, cfg.Upload, cfg.MinIO, cfg.App.Version)
	chatHandler := handler.NewChatHandler(chatService, jwtManager)
	conversationHandler := handler.NewConversationHandler(conversationService)
	avatarHandler := handler.NewAvatarHandler(heygenClient, cfg.HeyGen)

	// 后台任务：异步摄取消费者与启动期批量导入
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	processor := pipeline.NewProcessor(cfg.MinIO, ingestService)
	go kafka.StartConsumer(ctx, cfg.Kafka, processor)
	if cfg.Seed.Dir != "" {
		go seedImport(ctx, cfg.Seed.Dir, cfg.MinIO.BucketName, cfg.Upload.AllowedFileTypes)
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/health", documentHandler.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/chat", chatHandler.Chat)
		api.GET("/chat/ws-token", chatHandler.GetWSToken)

		api.POST("/ingest/text", documentHandler.IngestText)
		api.POST("/ingest/file", documentHandler.IngestFile)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/count", documentHandler.CountDocuments)
		api.DELETE("/documents", middleware.AdminAuth(cfg.Admin.TokenHash), documentHandler.ClearDocuments)

		api.GET("/conversations/:id", conversationHandler.GetHistory)

		api.POST("/avatar/token", avatarHandler.CreateToken)
		api.GET("/avatar/avatars", avatarHandler.ListAvatars)
		api.GET("/avatar/voices", avatarHandler.ListVoices)
		api.GET("/avatar/config", avatarHandler.GetConfig)
	}
	r.GET("/chat/ws/:token", chatHandler.HandleWS)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("HTTP 服务已启动, 监听端口 %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP 服务异常退出", err)
		}
	}()

	// 等待退出信号后优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号, 正在关闭服务...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("服务关闭失败", err)
	}
	log.Info("服务已退出")
}

// seedImport 扫描种子目录，把允许类型的文件上传到对象存储并投递异步摄取任务。
// 用于首次部署时批量灌入知识库，失败的单个文件不影响其余文件。
func seedImport(ctx context.Context, dir, bucketName string, allowedTypes []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("[Seed] 读取种子目录 %s 失败: %v", dir, err)
		return
	}

	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	queued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warnf("[Seed] 读取文件 %s 失败: %v", entry.Name(), err)
			continue
		}
		objectName, err := storage.PutUpload(ctx, bucketName, entry.Name(), content)
		if err != nil {
			log.Warnf("[Seed] 上传文件 %s 失败: %v", entry.Name(), err)
			continue
		}
		if err := kafka.ProduceIngestTask(ctx, tasks.IngestTask{
			ObjectName: objectName,
			Filename:   entry.Name(),
		}); err != nil {
			log.Warnf("[Seed] 投递摄取任务 %s 失败: %v", entry.Name(), err)
			continue
		}
		queued++
	}
	log.Infof("[Seed] 种子导入完成, 已投递 %d 个摄取任务", queued)
}
