// Package handler exposes the board engine over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/board/service"
	"leadboard_backend/internal/board/transport"
	"leadboard_backend/internal/notify"
	"leadboard_backend/platform/httpkit"
	"leadboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc    *service.Service
	poller *service.Poller
	feed   *notify.Feed
	val    *validator.Validator
}

func New(svc *service.Service, poller *service.Poller, feed *notify.Feed, val *validator.Validator) *Handler {
	return &Handler{svc: svc, poller: poller, feed: feed, val: val}
}

// RegisterRoutes mounts the board surface on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	boardGroup := rg.Group("/board")
	boardGroup.GET("/leads", h.ListLeads)
	boardGroup.POST("/refresh", h.Refresh)
	boardGroup.PUT("/search", h.Search)
	boardGroup.GET("/summary", h.Summary)
	boardGroup.GET("/platforms", h.Platforms)
	boardGroup.POST("/selection/mode", h.SelectionMode)
	boardGroup.POST("/selection/toggle", h.ToggleSelection)
	boardGroup.POST("/selection/select-all", h.SelectAll)
	boardGroup.POST("/selection/clear", h.ClearSelection)
	boardGroup.POST("/selection/bulk-delete", h.BulkDelete)
	boardGroup.POST("/import", h.Import)

	leadsGroup := rg.Group("/leads")
	leadsGroup.DELETE("/:id", h.Delete)
	leadsGroup.POST("/:id/transition", h.BeginTransition)
	leadsGroup.POST("/:id/transition/commit", h.CommitTransition)
	leadsGroup.DELETE("/:id/transition", h.CancelTransition)
	leadsGroup.GET("/:id/history", h.History)
	leadsGroup.GET("/:id/conversations", h.Conversations)
	leadsGroup.POST("/:id/messages", h.SendMessage)
	leadsGroup.PUT("/:id/follow-up", h.SetFollowUp)

	rg.GET("/notifications", h.Notifications)
	rg.POST("/session/logout", h.Logout)
}

// =============================================================================
// Board view
// =============================================================================

// ListLeads returns the filtered view. Filter axes arrive as query params;
// a changed status or platform axis triggers a reconcile fetch before the
// view is built, so the response never mixes filter states.
func (h *Handler) ListLeads(c *gin.Context) {
	if hasFilterParams(c) {
		changed := h.svc.SetFilter(
			c.Query("status"),
			c.Query("platform"),
			domain.ParseDateRange(c.Query("dateRange")),
		)
		if query, ok := c.GetQuery("search"); ok {
			h.poller.SearchChanged(query)
		}
		if changed {
			if _, err := h.svc.Sync(c.Request.Context(), false); err != nil {
				httpkit.HandleError(c, err)
				return
			}
		}
	}

	snap := h.svc.Store().Snapshot()
	leads := h.svc.View()
	httpkit.OK(c, transport.BoardResponse{
		Leads:     leads,
		Count:     len(leads),
		Filter:    h.svc.Filter(),
		FetchedAt: snap.FetchedAt,
	})
}

func hasFilterParams(c *gin.Context) bool {
	for _, key := range []string{"status", "platform", "dateRange", "search"} {
		if _, ok := c.GetQuery(key); ok {
			return true
		}
	}
	return false
}

// Refresh runs a user-initiated fetch.
func (h *Handler) Refresh(c *gin.Context) {
	result, err := h.svc.Sync(c.Request.Context(), true)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.RefreshResponse{LeadCount: result.LeadCount, NewLeads: result.NewLeadIDs})
}

// Search feeds the debounced search input. The fetch happens after the
// debounce window, not within this request.
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	h.poller.SearchChanged(req.Query)
	httpkit.JSON(c, http.StatusAccepted, gin.H{"query": req.Query})
}

// Summary returns per-status column counts.
func (h *Handler) Summary(c *gin.Context) {
	counts := h.svc.Summary()

	resp := transport.SummaryResponse{Columns: make([]transport.SummaryColumn, 0, len(counts))}
	for _, status := range domain.AllStatuses() {
		resp.Columns = append(resp.Columns, transport.SummaryColumn{Status: status, Count: counts[status]})
		resp.Total += counts[status]
	}
	httpkit.OK(c, resp)
}

// Platforms returns the presentation legend for every known source platform.
func (h *Handler) Platforms(c *gin.Context) {
	platforms := domain.AllPlatforms()
	descriptors := make([]domain.PlatformDescriptor, len(platforms))
	for i, p := range platforms {
		descriptors[i] = domain.DescriptorFor(p)
	}
	httpkit.OK(c, gin.H{"platforms": descriptors})
}

// =============================================================================
// Per-lead operations
// =============================================================================

func (h *Handler) BeginTransition(c *gin.Context) {
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leadID := c.Param("id")
	pending, err := h.svc.Workflow().Begin(leadID, domain.LeadStatus(req.Target))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if req.Remarks != "" {
		if err := h.svc.Workflow().SetRemarks(leadID, req.Remarks); err != nil {
			httpkit.HandleError(c, err)
			return
		}
		pending.Remarks = req.Remarks
	}

	httpkit.OK(c, pending)
}

func (h *Handler) CommitTransition(c *gin.Context) {
	lead, err := h.svc.Workflow().Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) CancelTransition(c *gin.Context) {
	h.svc.Workflow().Cancel(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"history": entries})
}

func (h *Handler) Conversations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	conversations, err := h.svc.Conversations(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"conversations": conversations})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), req.Content, domain.MessageType(req.Type)); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetFollowUp(c *gin.Context) {
	var req transport.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.SetFollowUp(c.Request.Context(), c.Param("id"), req.At); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Selection and bulk actions
// =============================================================================

func (h *Handler) SelectionMode(c *gin.Context) {
	var req transport.SelectionModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if req.Active {
		h.svc.Selection().EnterMode()
	} else {
		h.svc.Selection().ExitMode()
	}
	httpkit.OK(c, transport.NewSelectionResponse(h.svc.Selection()))
}

func (h *Handler) ToggleSelection(c *gin.Context) {
	var req transport.ToggleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.Selection().Toggle(req.LeadID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.NewSelectionResponse(h.svc.Selection()))
}

// SelectAll selects every lead in the current filtered view, never leads the
// active filters hide.
func (h *Handler) SelectAll(c *gin.Context) {
	view := h.svc.View()
	ids := make([]string, len(view))
	for i, lead := range view {
		ids[i] = lead.ID
	}

	if err := h.svc.Selection().SelectAll(ids); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.NewSelectionResponse(h.svc.Selection()))
}

func (h *Handler) ClearSelection(c *gin.Context) {
	h.svc.Selection().DeselectAll()
	httpkit.OK(c, transport.NewSelectionResponse(h.svc.Selection()))
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.BulkDeleteSelected(c.Request.Context(), req.Confirm)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, result)
}

// =============================================================================
// Import, notifications, session
// =============================================================================

func (h *Handler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file upload", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	summary, err := h.svc.ImportCSV(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, summary)
}

// Notifications drains the notice feed: each notice is delivered once.
func (h *Handler) Notifications(c *gin.Context) {
	httpkit.OK(c, gin.H{"notifications": h.feed.Drain()})
}

func (h *Handler) Logout(c *gin.Context) {
	userID, _ := httpkit.UserID(c)
	h.svc.EndSession(c.Request.Context(), userID.String())
	c.Status(http.StatusNoContent)
}
