package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velomarket/rental-api/internal/config"
	api "github.com/velomarket/rental-api/internal/http"
	"github.com/velomarket/rental-api/internal/log"
	"github.com/velomarket/rental-api/internal/metrics"
	"github.com/velomarket/rental-api/internal/queue"
	"github.com/velomarket/rental-api/internal/repo"
	"github.com/velomarket/rental-api/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Errorf("mongo connect: %v", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	if err := store.EnsureUserIndexes(ctx); err != nil {
		log.Errorf("user indexes: %v", err)
		os.Exit(1)
	}

	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	var sessions session.Store
	if cfg.RedisAddr != "" {
		rds := session.NewRedis(cfg.RedisAddr, ttl)
		if err := rds.Ping(ctx); err != nil {
			log.Errorf("redis connect: %v", err)
			os.Exit(1)
		}
		defer rds.Close()
		sessions = rds
	} else {
		log.Infof("REDIS_ADDR empty, sessions held in memory")
		sessions = session.NewMemory(ttl)
	}

	pub := queue.Publisher(queue.NewNoop())
	if cfg.RabbitURL != "" {
		p, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			log.Errorf("rabbit connect: %v", err)
			os.Exit(1)
		}
		pub = p
	}
	defer pub.Close()

	h := api.NewHandler(store, sessions, pub, cfg.CookieName, cfg.CookieSecure, ttl)
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	log.Infof("rental-api listening on :%s", cfg.Port)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("signal: %s, shutting down", s)
	case err := <-srvErr:
		log.Errorf("server error: %v", err)
	}
}
