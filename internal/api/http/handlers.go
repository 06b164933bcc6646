// Package http exposes the daemon's read-only snapshot and the manual
// suspend/resume entry points to external collaborators.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/headroom-sh/headroom/internal/governor"
	"github.com/headroom-sh/headroom/internal/logging"
	"github.com/headroom-sh/headroom/internal/scoring"
)

// Handlers wires the governor into HTTP endpoints.
type Handlers struct {
	gov    *governor.Governor
	logger *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(gov *governor.Governor, logger *logging.Logger) *Handlers {
	return &Handlers{gov: gov, logger: logger}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Snapshot returns the full read-only state view.
func (h *Handlers) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.gov.Snapshot())
}

// Events returns the intervention history, oldest first.
func (h *Handlers) Events(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.gov.Events()})
}

// SetMode switches the intent mode, which also runs an eager pressure
// check.
func (h *Handlers) SetMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}

	mode, ok := scoring.ParseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode: " + req.Mode})
		return
	}

	h.gov.SetMode(mode)
	c.JSON(http.StatusOK, gin.H{"mode": mode.String()})
}

// Suspend manually suspends one process. The response always reports
// success with the tier that held.
func (h *Handlers) Suspend(c *gin.Context) {
	pid, ok := parsePID(c)
	if !ok {
		return
	}

	out := h.gov.ManualSuspend(pid)
	c.JSON(http.StatusOK, gin.H{
		"pid":               out.PID,
		"tier":              out.Tier.String(),
		"already_suspended": out.AlreadySuspended,
	})
}

// Resume manually resumes one process. Resuming an untracked PID is a
// successful no-op.
func (h *Handlers) Resume(c *gin.Context) {
	pid, ok := parsePID(c)
	if !ok {
		return
	}

	tracked := h.gov.ManualResume(pid)
	c.JSON(http.StatusOK, gin.H{
		"pid":     pid,
		"tracked": tracked,
	})
}

func parsePID(c *gin.Context) (int32, bool) {
	raw := c.Param("pid")
	pid, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || pid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pid: " + raw})
		return 0, false
	}
	return int32(pid), true
}
