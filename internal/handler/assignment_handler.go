package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type AssignmentHandler struct {
	assignments *service.AssignmentService
	logger      *zap.Logger
}

func NewAssignmentHandler(assignments *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, logger: logger}
}

// Create handles POST /assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req struct {
		ResourceID        int             `json:"resource_id"`
		ProjectID         int             `json:"project_id"`
		AssignmentDate    dates.Date      `json:"assignment_date"`
		AllocationPercent decimal.Decimal `json:"allocation_percentage"`
		CapitalPercent    decimal.Decimal `json:"capital_percentage"`
		ExpensePercent    decimal.Decimal `json:"expense_percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.assignments.Create(c.Request.Context(), service.CreateAssignmentInput{
		ResourceID:        req.ResourceID,
		ProjectID:         req.ProjectID,
		AssignmentDate:    req.AssignmentDate,
		AllocationPercent: req.AllocationPercent,
		CapitalPercent:    req.CapitalPercent,
		ExpensePercent:    req.ExpensePercent,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Assignment created",
		zap.Int("assignment_id", a.ID),
		zap.Int("resource_id", a.ResourceID),
		zap.String("date", a.AssignmentDate.String()),
	)
	c.JSON(http.StatusCreated, a)
}

// Get handles GET /assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.assignments.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Update handles PATCH /assignments/:id
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		AssignmentDate    *dates.Date      `json:"assignment_date"`
		AllocationPercent *decimal.Decimal `json:"allocation_percentage"`
		CapitalPercent    *decimal.Decimal `json:"capital_percentage"`
		ExpensePercent    *decimal.Decimal `json:"expense_percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.assignments.Update(c.Request.Context(), id, service.UpdateAssignmentInput{
		AssignmentDate:    req.AssignmentDate,
		AllocationPercent: req.AllocationPercent,
		CapitalPercent:    req.CapitalPercent,
		ExpensePercent:    req.ExpensePercent,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.assignments.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Conflicts handles GET /resources/:id/conflicts?start=...&end=...
func (h *AssignmentHandler) Conflicts(c *gin.Context) {
	resourceID, ok := pathID(c, "id")
	if !ok {
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

	conflicts, err := h.assignments.CheckConflicts(c.Request.Context(), resourceID, start, end)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}
