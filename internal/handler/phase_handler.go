package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type PhaseHandler struct {
	phases *service.PhaseService
	logger *zap.Logger
}

func NewPhaseHandler(phases *service.PhaseService, logger *zap.Logger) *PhaseHandler {
	return &PhaseHandler{phases: phases, logger: logger}
}

type phaseRequest struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	StartDate     dates.Date      `json:"start_date"`
	EndDate       dates.Date      `json:"end_date"`
	CapitalBudget decimal.Decimal `json:"capital_budget"`
	ExpenseBudget decimal.Decimal `json:"expense_budget"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
}

// Create handles POST /projects/:id/phases
func (h *PhaseHandler) Create(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req phaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	phase, err := h.phases.CreatePhase(c.Request.Context(), service.CreatePhaseInput{
		ProjectID:     projectID,
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CapitalBudget: req.CapitalBudget,
		ExpenseBudget: req.ExpenseBudget,
		TotalBudget:   req.TotalBudget,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Phase created",
		zap.Int("phase_id", phase.ID),
		zap.Int("project_id", projectID),
	)
	c.JSON(http.StatusCreated, phase)
}

// Update handles PATCH /phases/:id
func (h *PhaseHandler) Update(c *gin.Context) {
	phaseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name            *string          `json:"name"`
		Description     *string          `json:"description"`
		StartDate       *dates.Date      `json:"start_date"`
		EndDate         *dates.Date      `json:"end_date"`
		CapitalBudget   *decimal.Decimal `json:"capital_budget"`
		ExpenseBudget   *decimal.Decimal `json:"expense_budget"`
		TotalBudget     *decimal.Decimal `json:"total_budget"`
		ExpectedVersion *int             `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	phase, err := h.phases.UpdatePhase(c.Request.Context(), phaseID, service.UpdatePhaseInput{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CapitalBudget:   req.CapitalBudget,
		ExpenseBudget:   req.ExpenseBudget,
		TotalBudget:     req.TotalBudget,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, phase)
}

// Replace handles PUT /projects/:id/phases with the full phase set.
func (h *PhaseHandler) Replace(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Phases []phaseRequest `json:"phases"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	items := make([]service.PhaseItem, len(req.Phases))
	for i, p := range req.Phases {
		items[i] = service.PhaseItem{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			StartDate:     p.StartDate,
			EndDate:       p.EndDate,
			CapitalBudget: p.CapitalBudget,
			ExpenseBudget: p.ExpenseBudget,
			TotalBudget:   p.TotalBudget,
		}
	}

	phases, err := h.phases.ReplaceProjectPhases(c.Request.Context(), projectID, items)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Project phases replaced",
		zap.Int("project_id", projectID),
		zap.Int("phase_count", len(phases)),
	)
	c.JSON(http.StatusOK, gin.H{"phases": phases})
}

// Delete handles DELETE /phases/:id
func (h *PhaseHandler) Delete(c *gin.Context) {
	phaseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.phases.DeletePhase(c.Request.Context(), phaseID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ForDate handles GET /projects/:id/phases/for-date?date=YYYY-MM-DD
func (h *PhaseHandler) ForDate(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	day, ok := queryDate(c, "date")
	if !ok {
		return
	}

	phase, err := h.phases.GetPhaseForDate(c.Request.Context(), projectID, day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if phase == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no phase covers " + day.String()})
		return
	}
	c.JSON(http.StatusOK, phase)
}

// Assignments handles GET /phases/:id/assignments
func (h *PhaseHandler) Assignments(c *gin.Context) {
	phaseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignments, err := h.phases.GetAssignmentsForPhase(c.Request.Context(), phaseID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// Gaps handles GET /projects/:id/phases/gaps
func (h *PhaseHandler) Gaps(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	gaps, err := h.phases.FindTimelineGaps(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gaps": gaps})
}
