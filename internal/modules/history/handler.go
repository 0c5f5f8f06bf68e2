package history

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zovida/core/internal/pkg/response"
)

// Handler exposes the history store over HTTP.
type Handler struct {
	store *Store
	now   func() time.Time
}

func NewHandler(store *Store, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{store: store, now: now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/history")
	g.GET("", h.list)
	g.GET("/grouped", h.grouped)
	g.GET("/stats", h.stats)
	g.DELETE("", h.clear)
	g.DELETE("/:id", h.remove)
}

// GET /history?query=&risk=
func (h *Handler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, Filter(list, c.Query("query"), c.Query("risk")))
}

// GET /history/grouped?query=&risk=
func (h *Handler) grouped(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	filtered := Filter(list, c.Query("query"), c.Query("risk"))
	response.OK(c, GroupByDay(filtered, h.now()))
}

// GET /history/stats
func (h *Handler) stats(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, ComputeStats(list))
}

// DELETE /history
func (h *Handler) clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// DELETE /history/:id
func (h *Handler) remove(c *gin.Context) {
	if err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
