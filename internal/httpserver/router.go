package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skraps68/planner-sub000/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	phaseHandler *handler.PhaseHandler,
	assignmentHandler *handler.AssignmentHandler,
	actualHandler *handler.ActualHandler,
	rateHandler *handler.RateHandler,
	reportHandler *handler.ReportHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/projects", projectHandler.Create)
		auth.GET("/projects/:id", projectHandler.Get)
		auth.PATCH("/projects/:id", projectHandler.Update)
		auth.DELETE("/projects/:id", projectHandler.Delete)
		auth.GET("/programs/:id/projects", projectHandler.ListByProgram)

		auth.POST("/projects/:id/phases", phaseHandler.Create)
		auth.PUT("/projects/:id/phases", phaseHandler.Replace)
		auth.GET("/projects/:id/phases/for-date", phaseHandler.ForDate)
		auth.GET("/projects/:id/phases/gaps", phaseHandler.Gaps)
		auth.PATCH("/phases/:id", phaseHandler.Update)
		auth.DELETE("/phases/:id", phaseHandler.Delete)
		auth.GET("/phases/:id/assignments", phaseHandler.Assignments)

		auth.POST("/assignments", assignmentHandler.Create)
		auth.GET("/assignments/:id", assignmentHandler.Get)
		auth.PATCH("/assignments/:id", assignmentHandler.Update)
		auth.DELETE("/assignments/:id", assignmentHandler.Delete)
		auth.GET("/resources/:id/conflicts", assignmentHandler.Conflicts)

		auth.POST("/actuals", actualHandler.Create)
		auth.GET("/actuals/:id", actualHandler.Get)
		auth.DELETE("/actuals/:id", actualHandler.Delete)
		auth.POST("/actuals/validate-import", actualHandler.ValidateImport)
		auth.GET("/workers/:id/conflicts", actualHandler.Conflicts)

		auth.POST("/worker-types/:id/rates", rateHandler.Create)
		auth.GET("/worker-types/:id/rates", rateHandler.List)
		auth.GET("/worker-types/:id/rates/active", rateHandler.Active)

		auth.GET("/phases/:id/cost", reportHandler.PhaseCost)
		auth.GET("/phases/:id/forecast", reportHandler.PhaseForecast)
		auth.GET("/projects/:id/cost", reportHandler.ProjectCost)
		auth.GET("/programs/:id/cost", reportHandler.ProgramCost)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
