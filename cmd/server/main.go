package main

import (
	"context"
	"log"
	"wichty-checkin/config"
	"wichty-checkin/internal/cache"
	"wichty-checkin/internal/connectivity"
	"wichty-checkin/internal/database"
	"wichty-checkin/internal/handler"
	"wichty-checkin/internal/queue"
	"wichty-checkin/internal/repository"
	"wichty-checkin/internal/service"
	"wichty-checkin/internal/store"
	"wichty-checkin/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	kv, err := store.NewSQLiteStore(cfg.Offline.StorePath)
	if err != nil {
		log.Fatalf("Failed to open offline store: %v", err)
	}
	defer kv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	offlineCache := cache.NewOfflineEventCache(kv)
	// 行程重啟後載回上次的快照與待同步紀錄
	if err := offlineCache.LoadActive(); err != nil {
		log.Printf("Failed to restore offline state: %v", err)
	}
	ticketRepo := repository.NewTicketRepository(pool)
	logRepo := repository.NewCheckinLogRepository(pool)

	noticeQueue, err := queue.NewRedisStreamNoticeQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize notice queue: %v", err)
	}

	monitor := connectivity.NewPingMonitor(pool, cfg.Offline.PingInterval)
	monitor.Start(ctx)

	checkinService := service.NewCheckinService(offlineCache, ticketRepo, logRepo, noticeQueue, monitor)
	checkinService.StartAutoSync(ctx)

	noticeWorker := worker.NewNoticeWorker(checkinService, noticeQueue)
	if err := noticeWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start notice worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	checkinHandler := handler.NewCheckinHandler(checkinService, cfg.Offline.DefaultLang)
	checkinHandler.RegisterRoutes(router)

	router.Run()
}
