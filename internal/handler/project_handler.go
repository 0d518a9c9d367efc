package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type ProjectHandler struct {
	projects *service.ProjectService
	logger   *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type projectRequest struct {
	ProgramID      int        `json:"program_id"`
	Name           string     `json:"name"`
	StartDate      dates.Date `json:"start_date"`
	EndDate        dates.Date `json:"end_date"`
	CostCenterCode string     `json:"cost_center_code"`
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	project, err := h.projects.Create(c.Request.Context(), service.CreateProjectInput{
		ProgramID:      req.ProgramID,
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CostCenterCode: req.CostCenterCode,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Project created",
		zap.Int("project_id", project.ID),
		zap.String("cost_center", project.CostCenterCode),
	)
	c.JSON(http.StatusCreated, project)
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update handles PATCH /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name            *string     `json:"name"`
		StartDate       *dates.Date `json:"start_date"`
		EndDate         *dates.Date `json:"end_date"`
		CostCenterCode  *string     `json:"cost_center_code"`
		ExpectedVersion *int        `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	project, err := h.projects.Update(c.Request.Context(), id, service.UpdateProjectInput{
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CostCenterCode:  req.CostCenterCode,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Info("Project deleted", zap.Int("project_id", id))
	c.Status(http.StatusNoContent)
}

// ListByProgram handles GET /programs/:id/projects
func (h *ProjectHandler) ListByProgram(c *gin.Context) {
	programID, ok := pathID(c, "id")
	if !ok {
		return
	}
	projects, err := h.projects.ListByProgram(c.Request.Context(), programID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}
