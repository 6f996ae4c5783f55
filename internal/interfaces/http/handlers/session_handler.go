package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
)

// SessionHandler serves per-session group selection and visibility.
type SessionHandler struct {
	svc appmatrix.Service
}

func NewSessionHandler(svc appmatrix.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ToggleBody is the body of POST /sessions/:sessionID/selection/toggle.
type ToggleBody struct {
	ClientID int64 `json:"client_id"`
	Year     int   `json:"year"`
	GroupID  int64 `json:"group_id"`
}

// VisibilityBody is the body of POST /sessions/:sessionID/visibility.
type VisibilityBody struct {
	ClientID    int64 `json:"client_id"`
	Year        int   `json:"year"`
	GroupID     int64 `json:"group_id"`
	ShowInTable bool  `json:"show_in_table"`
}

// CommitBody is the body of POST /sessions/:sessionID/visibility/commit.
type CommitBody struct {
	ClientID int64 `json:"client_id"`
	Year     int   `json:"year"`
}

// GetSelection handles GET /api/v1/sessions/:sessionID/selection.
func (h *SessionHandler) GetSelection(c *gin.Context) {
	clientID, year, ok := sessionDashboardKey(c)
	if !ok {
		return
	}
	view, err := h.svc.GetSelection(c.Request.Context(), c.Param("sessionID"), clientID, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Toggle handles POST /api/v1/sessions/:sessionID/selection/toggle.
func (h *SessionHandler) Toggle(c *gin.Context) {
	var body ToggleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid toggle request body", err)
		return
	}
	view, err := h.svc.ToggleGroup(c.Request.Context(), &appmatrix.ToggleRequest{
		SessionID: c.Param("sessionID"),
		ClientID:  body.ClientID,
		Year:      body.Year,
		GroupID:   body.GroupID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetVisibility handles POST /api/v1/sessions/:sessionID/visibility.
func (h *SessionHandler) SetVisibility(c *gin.Context) {
	var body VisibilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid visibility request body", err)
		return
	}
	view, err := h.svc.SetGroupVisibility(c.Request.Context(), &appmatrix.VisibilityRequest{
		SessionID:   c.Param("sessionID"),
		ClientID:    body.ClientID,
		Year:        body.Year,
		GroupID:     body.GroupID,
		ShowInTable: body.ShowInTable,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CommitVisibility handles POST /api/v1/sessions/:sessionID/visibility/commit.
func (h *SessionHandler) CommitVisibility(c *gin.Context) {
	var body CommitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid commit request body", err)
		return
	}
	res, err := h.svc.CommitVisibility(c.Request.Context(), c.Param("sessionID"), body.ClientID, body.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
