// Package handler holds the gin handlers. Handlers bind and translate;
// every rule lives in the services, and service errors map onto HTTP
// status codes in exactly one place.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/alloclock"
	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// writeError maps the service error taxonomy onto HTTP. Validation keeps
// its full error list so clients see every violated rule at once.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Errors})
		return
	}

	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}

	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   conflict.Error(),
			"current": conflict.Current,
		})
		return
	}

	if errors.Is(err, alloclock.ErrLockUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "allocation check is busy, retry shortly"})
		return
	}

	logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pathID reads a positive integer path parameter, replying 400 itself when
// the value is malformed.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryDate reads a required YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (dates.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " required"})
		return dates.Date{}, false
	}
	d, err := dates.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD"})
		return dates.Date{}, false
	}
	return d, true
}

// queryDateDefault reads an optional date query parameter, falling back to
// the given default.
func queryDateDefault(c *gin.Context, name string, fallback dates.Date) (dates.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	d, err := dates.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD"})
		return dates.Date{}, false
	}
	return d, true
}
