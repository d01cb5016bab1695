package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-task-manager/internal/config"
	"go-task-manager/internal/database"
	"go-task-manager/internal/logger"
	"go-task-manager/internal/ratelimit"
	"go-task-manager/internal/routes"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx := context.Background()
	db, err := database.InitDB(ctx, cfg.DB)
	if err != nil {
		log.Error("failed to connect to database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		return 1
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate database", zap.Error(err))
		db.Close()
		return 1
	}

	deps := routes.Deps{
		DB:           db,
		JWT:          cfg.JWT,
		AllowOrigins: cfg.AllowOrigins,
		Logger:       log,
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		// 接続できなくても起動は続ける (制限はフェイルオープン)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable, login rate limiting will fail open", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		deps.LoginLimiter = ratelimit.NewRedisLimiter(rdb, "ratelimit:", cfg.Redis.LoginLimit, cfg.Redis.LoginWindow)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ポートの確保に失敗した場合はシグナルを待たずに終了する
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("failed to listen", zap.String("addr", cfg.Addr), zap.Error(err))
		db.Close()
		return 1
	}
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			log.Info("graceful shutdown initiated")
			return srv.Shutdown(ctx)
		},
	})

	// 処理中のリクエストが終わってから接続を閉じる
	exitCode := <-wait
	if err := db.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	log.Info("application exited", zap.Int("code", exitCode))
	return exitCode
}
