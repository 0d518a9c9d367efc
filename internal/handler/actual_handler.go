package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type ActualHandler struct {
	actuals *service.ActualService
	logger  *zap.Logger
}

func NewActualHandler(actuals *service.ActualService, logger *zap.Logger) *ActualHandler {
	return &ActualHandler{actuals: actuals, logger: logger}
}

type actualRequest struct {
	ProjectID         int             `json:"project_id"`
	ExternalWorkerID  string          `json:"external_worker_id"`
	WorkerName        string          `json:"worker_name"`
	ActualDate        dates.Date      `json:"actual_date"`
	AllocationPercent decimal.Decimal `json:"allocation_percentage"`
	ActualCost        decimal.Decimal `json:"actual_cost"`
	CapitalAmount     decimal.Decimal `json:"capital_amount"`
	ExpenseAmount     decimal.Decimal `json:"expense_amount"`
}

func (r actualRequest) toInput() service.CreateActualInput {
	return service.CreateActualInput{
		ProjectID:         r.ProjectID,
		ExternalWorkerID:  r.ExternalWorkerID,
		WorkerName:        r.WorkerName,
		ActualDate:        r.ActualDate,
		AllocationPercent: r.AllocationPercent,
		ActualCost:        r.ActualCost,
		CapitalAmount:     r.CapitalAmount,
		ExpenseAmount:     r.ExpenseAmount,
	}
}

// Create handles POST /actuals
func (h *ActualHandler) Create(c *gin.Context) {
	var req actualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.actuals.Create(c.Request.Context(), req.toInput())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Actual recorded",
		zap.Int("actual_id", a.ID),
		zap.String("worker_id", a.ExternalWorkerID),
		zap.String("date", a.ActualDate.String()),
	)
	c.JSON(http.StatusCreated, a)
}

// Get handles GET /actuals/:id
func (h *ActualHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.actuals.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /actuals/:id
func (h *ActualHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.actuals.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Conflicts handles GET /workers/:id/conflicts?start=...&end=...
// The :id here is the external worker id, an opaque string.
func (h *ActualHandler) Conflicts(c *gin.Context) {
	workerID := c.Param("id")
	if workerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return
	}
	start, ok := queryDate(c, "start")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end")
	if !ok {
		return
	}

	conflicts, err := h.actuals.CheckConflicts(c.Request.Context(), workerID, start, end)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

// ValidateImport handles POST /actuals/validate-import. Nothing is
// persisted; the response lists every candidate that would break a
// worker's daily ceiling.
func (h *ActualHandler) ValidateImport(c *gin.Context) {
	var req struct {
		Actuals []actualRequest `json:"actuals"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	candidates := make([]service.CreateActualInput, len(req.Actuals))
	for i, a := range req.Actuals {
		candidates[i] = a.toInput()
	}

	conflicts, err := h.actuals.ValidateImport(c.Request.Context(), candidates)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Import batch validated",
		zap.Int("candidates", len(candidates)),
		zap.Int("conflicts", len(conflicts)),
	)
	c.JSON(http.StatusOK, gin.H{
		"valid":     len(conflicts) == 0,
		"conflicts": conflicts,
	})
}
