package router

import (
	"net/http"

	"writerid-portal/internal/config"
	"writerid-portal/internal/handler"
	"writerid-portal/internal/middleware"
	"writerid-portal/internal/queue"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/service"
	"writerid-portal/internal/storage"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config     *config.Config
	Logger     *logrus.Logger
	JWTManager *utils.JWTManager
	UnitOfWork *repository.UnitOfWork
	Store      storage.BlobStore
	Queue      queue.Sender
	Predictor  service.Predictor
}

// SetupRouter wires services and handlers and registers every route.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Writer identification portal API",
			"version": Version,
			"status":  "ok",
		})
	})

	authService := service.NewAuthService(deps.UnitOfWork, deps.JWTManager, deps.Logger)
	datasetService := service.NewDatasetService(deps.UnitOfWork, deps.Store, deps.Queue, deps.Logger)
	modelService := service.NewModelService(deps.UnitOfWork, deps.Store, deps.Queue, deps.Logger)
	taskService := service.NewTaskService(deps.UnitOfWork, deps.Store, deps.Queue, deps.Predictor, deps.Logger)
	dashboardService := service.NewDashboardService(deps.UnitOfWork)

	authHandler := handler.NewAuthHandler(authService, deps.Logger)
	datasetHandler := handler.NewDatasetHandler(datasetService, deps.Logger)
	modelHandler := handler.NewModelHandler(modelService, deps.Logger)
	taskHandler := handler.NewTaskHandler(taskService, deps.Logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, deps.Logger)
	externalHandler := handler.NewExternalHandler(datasetService, modelService, taskService, deps.Logger)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(deps.JWTManager), authHandler.Me)

		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(deps.JWTManager))
		{
			datasets := authorized.Group("/datasets")
			datasets.POST("", datasetHandler.Create)
			datasets.GET("", datasetHandler.List)
			datasets.GET("/:id", datasetHandler.Get)
			datasets.POST("/:id/analyze", datasetHandler.Analyze)
			datasets.GET("/:id/analysis-results", datasetHandler.AnalysisResults)
			datasets.POST("/:id/upload-access", datasetHandler.RefreshUploadAccess)
			datasets.DELETE("/:id", datasetHandler.Delete)

			modelsGroup := authorized.Group("/models")
			modelsGroup.POST("", modelHandler.Create)
			modelsGroup.GET("", modelHandler.List)
			modelsGroup.GET("/:id", modelHandler.Get)
			modelsGroup.POST("/:id/train", modelHandler.Train)
			modelsGroup.GET("/:id/training-results", modelHandler.TrainingResults)
			modelsGroup.DELETE("/:id", modelHandler.Delete)

			tasks := authorized.Group("/tasks")
			tasks.GET("/dataset/:datasetId/analysis", taskHandler.DatasetAnalysis)
			tasks.POST("", taskHandler.Create)
			tasks.GET("", taskHandler.List)
			tasks.GET("/:id", taskHandler.Get)
			tasks.POST("/:id/execute", taskHandler.Execute)
			tasks.GET("/:id/results", taskHandler.Results)
			tasks.DELETE("/:id", taskHandler.Delete)

			authorized.GET("/dashboard/stats", dashboardHandler.Stats)
		}
	}

	external := r.Group("/api/external")
	external.Use(middleware.APIKeyAuth(cfg.ExternalAPI.Header, cfg.ExternalAPI.APIKey))
	{
		external.PUT("/datasets/status", externalHandler.UpdateDatasetStatus)
		external.GET("/datasets/:id/status", externalHandler.DatasetStatus)
		external.PUT("/models/status", externalHandler.UpdateModelStatus)
		external.GET("/models/:id/status", externalHandler.ModelStatus)
		external.PUT("/tasks/status", externalHandler.UpdateTaskStatus)
		external.GET("/tasks/:id/status", externalHandler.TaskStatus)
		external.GET("/tasks/:id/execution-info", externalHandler.TaskExecutionInfo)
		external.POST("/tasks/:id/prediction", externalHandler.SubmitPrediction)
	}

	return r
}
