// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boxseek-go/internal/config"
	"boxseek-go/internal/handler"
	"boxseek-go/internal/middleware"
	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"
	"boxseek-go/internal/service"
	"boxseek-go/pkg/database"
	"boxseek-go/pkg/es"
	"boxseek-go/pkg/kafka"
	"boxseek-go/pkg/log"
	"boxseek-go/pkg/storage"
	"boxseek-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MinIO、ES 和 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 迁移表结构
	if err := database.DB.AutoMigrate(&model.Location{}, &model.Box{}, &model.QrCode{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 5. 初始化 Repository
	locationRepo := repository.NewLocationRepository(database.DB)
	boxRepo := repository.NewBoxRepository(database.DB)
	qrRepo := repository.NewQrCodeRepository(database.DB)
	scanCache := repository.NewScanCache(database.RDB, time.Duration(cfg.Scan.CacheTTLMinutes)*time.Minute)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret)
	publisher := &kafkaPublisher{}
	objectStore := &minioStore{bucket: cfg.MinIO.BucketName}
	indexer := service.NewBoxIndexer(cfg.Elasticsearch.IndexName)

	minter := service.NewMinter(boxRepo, qrRepo)
	locationService := service.NewLocationService(database.DB, locationRepo, boxRepo)
	qrCodeService := service.NewQrCodeService(database.DB, qrRepo, boxRepo, minter, scanCache, publisher)
	boxService := service.NewBoxService(database.DB, boxRepo, locationRepo, qrCodeService, minter, indexer, objectStore, scanCache, publisher)
	searchService := service.NewSearchService(es.ESClient, cfg.Elasticsearch.IndexName)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), middleware.Metrics(), gin.Recovery())

	// Prometheus 指标端点不走认证
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8. 注册路由，所有业务接口都要求工作区令牌
	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.WorkspaceAuth(jwtManager, middleware.AllowAllGate{}))
	{
		locations := apiV1.Group("/locations")
		{
			locationHandler := handler.NewLocationHandler(locationService)
			locations.POST("", locationHandler.Create)
			locations.GET("/tree", locationHandler.GetTree)
			locations.GET("/:id", locationHandler.Get)
			locations.PUT("/:id", locationHandler.Rename)
			locations.PUT("/:id/move", locationHandler.Move)
			locations.DELETE("/:id", locationHandler.Delete)
			locations.GET("/:id/breadcrumb", locationHandler.Breadcrumb)
		}

		boxes := apiV1.Group("/boxes")
		{
			boxHandler := handler.NewBoxHandler(boxService)
			boxes.POST("", boxHandler.Create)
			boxes.GET("", boxHandler.List)
			boxes.GET("/:id", boxHandler.Get)
			boxes.PUT("/:id", boxHandler.Update)
			boxes.DELETE("/:id", boxHandler.Delete)
			boxes.POST("/:id/photo", boxHandler.UploadPhoto)
			boxes.GET("/:id/photo-url", boxHandler.PhotoURL)
		}

		qrcodes := apiV1.Group("/qrcodes")
		{
			qrCodeHandler := handler.NewQrCodeHandler(qrCodeService)
			qrcodes.POST("/batch", qrCodeHandler.GenerateBatch)
			qrcodes.GET("", qrCodeHandler.List)
			qrcodes.PUT("/:id/printed", qrCodeHandler.MarkPrinted)
		}

		apiV1.GET("/scan/:shortId", handler.NewQrCodeHandler(qrCodeService).Resolve)
		apiV1.GET("/search", handler.NewSearchHandler(searchService).SearchBoxes)
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
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

// kafkaPublisher 把领域事件适配到 Kafka 生产者。
type kafkaPublisher struct{}

func (p *kafkaPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	return kafka.Publish(ctx, key, event)
}

// minioStore 把箱子照片存取适配到 MinIO。
type minioStore struct {
	bucket string
}

func (s *minioStore) Put(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) error {
	return storage.PutObject(ctx, s.bucket, objectName, contentType, reader, size)
}

func (s *minioStore) PresignedURL(objectName string, expiry time.Duration) (string, error) {
	return storage.GetPresignedURL(s.bucket, objectName, expiry)
}
