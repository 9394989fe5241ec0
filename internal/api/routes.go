package api

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth           service.AuthService
	Gyms           service.GymService
	Equipment      service.EquipmentService
	Workouts       service.WorkoutService
	Recommendation service.RecommendationService
}

// RouterOptions holds the HTTP-level settings.
type RouterOptions struct {
	CORSOrigins   []string
	MaxImageBytes int64
}

// NewRouter builds a gin engine with the standard middleware stack and all routes.
func NewRouter(svc Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), Metrics())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.MaxImageBytes > 0 {
		router.MaxMultipartMemory = opts.MaxImageBytes
	}

	SetupRoutes(router, svc, opts.MaxImageBytes)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func SetupRoutes(router *gin.Engine, svc Services, maxImageBytes int64) {
	registerValidators()

	authHandler := NewAuthHandler(svc.Auth)
	gymHandler := NewGymHandler(svc.Gyms)
	equipmentHandler := NewEquipmentHandler(svc.Equipment, maxImageBytes)
	workoutHandler := NewWorkoutHandler(svc.Workouts, svc.Recommendation)

	authMiddleware := AuthMiddleware(svc.Auth)
	managerOnly := RoleMiddleware(domain.RoleManager)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// --- Public reads ---
		apiV1.GET("/gyms", gymHandler.ListGyms)
		apiV1.GET("/gyms/:id", gymHandler.GetGym)
		apiV1.GET("/equipment/gyms/:gymId", equipmentHandler.ListEquipment)
		apiV1.GET("/equipment/gyms/:gymId/search", equipmentHandler.SearchEquipment)
		apiV1.GET("/equipment/:id", equipmentHandler.GetEquipment)
		apiV1.GET("/equipment/:id/images/:index/url", equipmentHandler.GetEquipmentImageURL)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/users/me", authHandler.Me)

		// --- Gym Routes (managers; ownership checked per gym) ---
		gymGroup := protected.Group("/gyms")
		gymGroup.Use(managerOnly)
		{
			gymGroup.POST("", gymHandler.CreateGym)
			gymGroup.PUT("/:id", gymHandler.UpdateGym)
			gymGroup.DELETE("/:id", gymHandler.DeleteGym)
			gymGroup.POST("/:id/managers/:userId", gymHandler.AddManager)
		}

		// --- Equipment Routes ---
		equipmentGroup := protected.Group("/equipment")
		equipmentGroup.Use(managerOnly)
		{
			equipmentGroup.POST("/gyms/:gymId", equipmentHandler.CreateEquipment)
			equipmentGroup.POST("/gyms/:gymId/with-image", equipmentHandler.CreateEquipmentWithImage)
			equipmentGroup.POST("/gyms/:gymId/auto-add", equipmentHandler.AutoAddEquipment)
			equipmentGroup.PUT("/:id", equipmentHandler.UpdateEquipment)
			equipmentGroup.PATCH("/:id/status", equipmentHandler.UpdateEquipmentStatus)
			equipmentGroup.DELETE("/:id", equipmentHandler.DeleteEquipment)
			equipmentGroup.DELETE("/:id/images/:index", equipmentHandler.DeleteEquipmentImage)
		}

		// --- Workout & Recommendation Routes (any authenticated user) ---
		protected.POST("/workouts", workoutHandler.LogWorkout)
		protected.GET("/workouts/me", workoutHandler.GetMyWorkouts)
		protected.GET("/workouts/me/advice", workoutHandler.GetMyWorkoutAdvice)
		protected.GET("/recommend/me", workoutHandler.GetMyRecommendations)
	}
}
