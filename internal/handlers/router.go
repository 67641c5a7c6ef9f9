package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	_ "github.com/yukikurage/taskwave-api/internal/docs"
	"github.com/yukikurage/taskwave-api/internal/middleware"
	"github.com/yukikurage/taskwave-api/internal/services"
)

// RouterDeps are the collaborators the HTTP layer needs.
type RouterDeps struct {
	Tokens        middleware.TokenValidator
	Users         *services.UserService
	Tasks         *services.TaskService
	FocusSessions *services.FocusSessionService
	OTP           *services.OTPService
	HealthChecks  map[string]HealthCheck
	CORSOrigins   []string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))

	userHandler := NewUserHandler(deps.Users)
	taskHandler := NewTaskHandler(deps.Tasks)
	sessionHandler := NewFocusSessionHandler(deps.FocusSessions)
	otpHandler := NewOTPHandler(deps.OTP)
	healthHandler := NewHealthHandler(deps.HealthChecks)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/docs/*any", gin.WrapH(httpSwagger.Handler(
		httpSwagger.URL("/api/docs/doc.json"),
		httpSwagger.DocExpansion("list"),
	)))

	requireAuth := middleware.RequireAuth(deps.Tokens)

	// API routes
	api := r.Group("/api")
	{
		// User routes
		user := api.Group("/user")
		{
			user.POST("/signup", userHandler.Signup)
			user.POST("/signin", userHandler.Signin)
			user.GET("/profile", requireAuth, userHandler.GetProfile)
			user.PUT("/profile", requireAuth, userHandler.UpdateProfile)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		// Focus session routes (protected)
		sessions := api.Group("/focus-session")
		sessions.Use(requireAuth)
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.POST("", sessionHandler.CreateSession)
			sessions.PUT("/:id", sessionHandler.UpdateSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
			sessions.POST("/:id/complete", sessionHandler.CompleteSession)
		}

		// OTP routes (protected)
		otp := api.Group("/otp")
		otp.Use(requireAuth)
		{
			otp.POST("/send", otpHandler.Send)
			otp.POST("/verify", otpHandler.Verify)
		}
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
