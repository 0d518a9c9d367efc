package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type ReportHandler struct {
	forecasts *service.ForecastService
	logger    *zap.Logger
}

func NewReportHandler(forecasts *service.ForecastService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{forecasts: forecasts, logger: logger}
}

// PhaseCost handles GET /phases/:id/cost?as_of=YYYY-MM-DD
func (h *ReportHandler) PhaseCost(c *gin.Context) {
	phaseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := queryDateDefault(c, "as_of", dates.Today())
	if !ok {
		return
	}

	report, err := h.forecasts.CalculatePhaseCost(c.Request.Context(), phaseID, asOf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PhaseForecast handles GET /phases/:id/forecast?as_of=YYYY-MM-DD
func (h *ReportHandler) PhaseForecast(c *gin.Context) {
	phaseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := queryDateDefault(c, "as_of", dates.Today())
	if !ok {
		return
	}

	report, err := h.forecasts.CalculatePhaseForecast(c.Request.Context(), phaseID, asOf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ProjectCost handles GET /projects/:id/cost?as_of=YYYY-MM-DD
func (h *ReportHandler) ProjectCost(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := queryDateDefault(c, "as_of", dates.Today())
	if !ok {
		return
	}

	report, err := h.forecasts.CalculateProjectCost(c.Request.Context(), projectID, asOf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ProgramCost handles GET /programs/:id/cost?as_of=YYYY-MM-DD
func (h *ReportHandler) ProgramCost(c *gin.Context) {
	programID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := queryDateDefault(c, "as_of", dates.Today())
	if !ok {
		return
	}

	report, err := h.forecasts.CalculateProgramCost(c.Request.Context(), programID, asOf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
