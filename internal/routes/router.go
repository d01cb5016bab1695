// Package routesはroutingを行います。
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"go-task-manager/internal/config"
	"go-task-manager/internal/handlers"
	"go-task-manager/internal/ratelimit"
	"go-task-manager/internal/repositories"
	"go-task-manager/internal/services"
)

// Deps はルーターの構築に必要な依存関係です。
type Deps struct {
	DB           *sqlx.DB
	JWT          config.JWTConfig
	AllowOrigins []string
	Logger       *zap.Logger
	// LoginLimiter が nil ならログインのレート制限は行いません。
	LoginLimiter ratelimit.Limiter
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = deps.AllowOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{requestIDHeader, "Retry-After"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// リポジトリ
	userRepo := repositories.NewUserRepository(deps.DB)
	taskRepo := repositories.NewTaskRepository(deps.DB)

	// サービス
	jwtService := services.NewJWTService(deps.JWT)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo)

	// ハンドラー
	authHandler := handlers.NewAuthHandler(userService, jwtService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	taskHandler := handlers.NewTaskHandler(taskService, log)

	// ルーティング
	r.GET("/api/health", func(c *gin.Context) {
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			log.Error("database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.RegisterHandler)
		if deps.LoginLimiter != nil {
			auth.POST("/login", ratelimit.Middleware(deps.LoginLimiter, "login", log, ratelimit.ResetOnSuccess()), authHandler.LoginHandler)
		} else {
			auth.POST("/login", authHandler.LoginHandler)
		}
		auth.GET("/validate", authHandler.ValidateHandler)
		auth.POST("/logout", authHandler.LogoutHandler)
	}

	authorized := r.Group("/api")
	authorized.Use(AuthMiddleware(jwtService, log))
	{
		tasks := authorized.Group("/tasks")
		tasks.GET("", taskHandler.ListTasksHandler)
		tasks.POST("", taskHandler.CreateTaskHandler)
		tasks.GET("/week", taskHandler.ListWeekHandler)
		tasks.GET("/month", taskHandler.ListMonthHandler)
		tasks.GET("/period", taskHandler.ListByPeriodHandler)
		tasks.GET("/search", taskHandler.SearchHandler)
		tasks.GET("/stats", taskHandler.StatsHandler)
		tasks.GET("/date/:date", taskHandler.ListByDateHandler)
		tasks.GET("/status/:completed", taskHandler.ListByStatusHandler)
		tasks.GET("/priority/:priority", taskHandler.ListByPriorityHandler)
		tasks.GET("/category/:category", taskHandler.ListByCategoryHandler)
		tasks.GET("/:id", taskHandler.GetTaskHandler)
		tasks.PUT("/:id", taskHandler.UpdateTaskHandler)
		tasks.PATCH("/:id/toggle", taskHandler.ToggleTaskHandler)
		tasks.DELETE("/:id", taskHandler.DeleteTaskHandler)

		users := authorized.Group("/users")
		users.GET("", userHandler.ListUsersHandler)
		users.GET("/search", userHandler.SearchUsersHandler)
		users.GET("/count", userHandler.CountUsersHandler)
		users.GET("/profile", userHandler.ProfileHandler)
		users.GET("/:id", userHandler.GetUserHandler)
		users.PUT("/:id", userHandler.UpdateUserHandler)
		users.PUT("/:id/password", userHandler.UpdatePasswordHandler)
		users.DELETE("/:id", userHandler.DeleteUserHandler)
	}

	return r
}
