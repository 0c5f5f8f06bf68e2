package analysis

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zovida/core/internal/models"
	"github.com/zovida/core/internal/pkg/response"
)

type captureDTO struct {
	Image string `json:"image" binding:"required"`
}

type analyzeDTO struct {
	Medications   []string `json:"medications" binding:"required,min=1"`
	CaregiverMode bool     `json:"caregiverMode"`
}

// Handler exposes the scan session over HTTP.
type Handler struct {
	session *Session
}

func NewHandler(session *Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/scan")
	g.POST("/capture", h.capture)
	g.POST("/analyze", h.analyze)
	g.POST("/reset", h.reset)
	g.GET("/result", h.currentResult)
	g.PUT("/result", h.setResult)
	g.DELETE("/result", h.clearResult)
	g.GET("/state", h.state)
}

// POST /scan/capture
func (h *Handler) capture(c *gin.Context) {
	var dto captureDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.session.Capture(dto.Image)
	response.OK(c, gin.H{"state": h.session.State()})
}

// POST /scan/analyze
func (h *Handler) analyze(c *gin.Context) {
	var dto analyzeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	source := SourceManual
	if h.session.CapturedImage() != "" {
		source = SourceScan
	}
	systemPrompt, prompt := BuildAnalysisPrompt(dto.Medications, source, dto.CaregiverMode, h.session.now())

	outcome, err := h.session.Submit(c.Request.Context(), systemPrompt, prompt)
	if err != nil {
		switch {
		case errors.Is(err, ErrInFlight):
			response.Conflict(c, "an analysis is already running")
		case errors.Is(err, ErrStale):
			response.Conflict(c, "the scan session was reset")
		case errors.Is(err, ErrOracle):
			response.BadGateway(c, MsgUnavailable)
		default:
			response.UnprocessableEntity(c, err.Error())
		}
		return
	}
	response.OK(c, outcome)
}

// POST /scan/reset
func (h *Handler) reset(c *gin.Context) {
	h.session.Reset()
	response.NoContent(c)
}

// GET /scan/result
func (h *Handler) currentResult(c *gin.Context) {
	result := h.session.CurrentResult()
	if result == nil {
		response.NotFoundMsg(c, "no current result")
		return
	}
	response.OK(c, result)
}

// PUT /scan/result — adopt a full result (e.g. re-opened from history).
func (h *Handler) setResult(c *gin.Context) {
	var result models.AnalysisResult
	if err := c.ShouldBindJSON(&result); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if result.ID == "" || !result.OverallRisk.Valid() {
		response.BadRequest(c, "result must carry an id and a valid overallRisk")
		return
	}
	if err := h.session.SetResult(c.Request.Context(), &result); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, &result)
}

// DELETE /scan/result
func (h *Handler) clearResult(c *gin.Context) {
	h.session.ClearResult()
	response.NoContent(c)
}

// GET /scan/state
func (h *Handler) state(c *gin.Context) {
	state := h.session.State()
	payload := gin.H{"state": state}
	if state == StateFailed {
		payload["error"] = h.session.Failure()
	}
	response.OK(c, payload)
}
