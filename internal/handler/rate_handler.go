package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type RateHandler struct {
	rates  *service.RateService
	logger *zap.Logger
}

func NewRateHandler(rates *service.RateService, logger *zap.Logger) *RateHandler {
	return &RateHandler{rates: rates, logger: logger}
}

// Create handles POST /worker-types/:id/rates
func (h *RateHandler) Create(c *gin.Context) {
	workerTypeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		DailyRate     decimal.Decimal `json:"daily_rate"`
		StartDate     dates.Date      `json:"start_date"`
		EndDate       *dates.Date     `json:"end_date"`
		ClosePrevious bool            `json:"close_previous"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rate, err := h.rates.Create(c.Request.Context(), service.CreateRateInput{
		WorkerTypeID:  workerTypeID,
		DailyRate:     req.DailyRate,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		ClosePrevious: req.ClosePrevious,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}

// List handles GET /worker-types/:id/rates
func (h *RateHandler) List(c *gin.Context) {
	workerTypeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rates, err := h.rates.ListByWorkerType(c.Request.Context(), workerTypeID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rates": rates})
}

// Active handles GET /worker-types/:id/rates/active?as_of=YYYY-MM-DD
// as_of defaults to today.
func (h *RateHandler) Active(c *gin.Context) {
	workerTypeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := queryDateDefault(c, "as_of", dates.Today())
	if !ok {
		return
	}

	rate, err := h.rates.GetActiveRate(c.Request.Context(), workerTypeID, asOf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if rate == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rate in effect on " + asOf.String()})
		return
	}
	c.JSON(http.StatusOK, rate)
}
