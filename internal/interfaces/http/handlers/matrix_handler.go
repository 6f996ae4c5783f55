package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
)

// MatrixHandler serves the stateless pipeline, dashboards and exports.
type MatrixHandler struct {
	svc appmatrix.Service
}

func NewMatrixHandler(svc appmatrix.Service) *MatrixHandler {
	return &MatrixHandler{svc: svc}
}

// AggregateRequest is the body of POST /matrix/aggregate.
type AggregateRequest struct {
	QuestionResponse materiality.QuestionResponse `json:"question_response"`
}

// Aggregate handles POST /api/v1/matrix/aggregate.
func (h *MatrixHandler) Aggregate(c *gin.Context) {
	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid aggregate request body", err)
		return
	}
	out, err := h.svc.Aggregate(c.Request.Context(), req.QuestionResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AggregateRequest{QuestionResponse: out})
}

// Build handles POST /api/v1/matrix/build.
func (h *MatrixHandler) Build(c *gin.Context) {
	// Options decode over the service defaults, so a partial options object
	// only changes the fields it names.
	defaults := h.svc.DefaultOptions()
	req := appmatrix.BuildRequest{Options: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid build request body", err)
		return
	}
	out, err := h.svc.Build(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetDashboard handles GET /api/v1/dashboards/:clientID/:year.
func (h *MatrixHandler) GetDashboard(c *gin.Context) {
	clientID, year, ok := dashboardKey(c)
	if !ok {
		return
	}
	stored, err := h.svc.GetDashboard(c.Request.Context(), clientID, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// PutDashboard handles PUT /api/v1/dashboards/:clientID/:year.  The body's
// client id and year default to the path and must agree with it.
func (h *MatrixHandler) PutDashboard(c *gin.Context) {
	clientID, year, ok := dashboardKey(c)
	if !ok {
		return
	}
	var payload materiality.DashboardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid dashboard payload", err)
		return
	}
	if payload.Client.ID == 0 {
		payload.Client.ID = clientID
	}
	if payload.Year == 0 {
		payload.Year = year
	}
	if payload.Client.ID != clientID || payload.Year != year {
		badRequest(c, "payload client and year must match the path", nil)
		return
	}

	version, err := h.svc.SaveDashboard(c.Request.Context(), &payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "year": year, "version": version})
}

// SessionMatrix handles GET /api/v1/dashboards/:clientID/:year/matrix.
func (h *MatrixHandler) SessionMatrix(c *gin.Context) {
	clientID, year, ok := dashboardKey(c)
	if !ok {
		return
	}
	opts, ok := h.optionsFromQuery(c)
	if !ok {
		return
	}
	view, err := h.svc.BuildForSession(c.Request.Context(), c.Query("session"), clientID, year, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateSnapshot handles POST /api/v1/dashboards/:clientID/:year/snapshots.
func (h *MatrixHandler) CreateSnapshot(c *gin.Context) {
	clientID, year, ok := dashboardKey(c)
	if !ok {
		return
	}
	opts, ok := h.optionsFromQuery(c)
	if !ok {
		return
	}
	res, err := h.svc.ExportSnapshot(c.Request.Context(), &appmatrix.ExportRequest{
		ClientID:  clientID,
		Year:      year,
		SessionID: c.Query("session"),
		Options:   &opts,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListSnapshots handles GET /api/v1/dashboards/:clientID/:year/snapshots.
func (h *MatrixHandler) ListSnapshots(c *gin.Context) {
	clientID, year, ok := dashboardKey(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequest(c, "limit must be a non-negative integer", nil)
			return
		}
		limit = v
	}
	snaps, err := h.svc.ListSnapshots(c.Request.Context(), clientID, year, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// optionsFromQuery applies jitter, quadrant_labels and title query
// overrides to the service defaults.
func (h *MatrixHandler) optionsFromQuery(c *gin.Context) (materiality.PlotOptions, bool) {
	jitter, ok := parseOptionalFloat(c, "jitter")
	if !ok {
		return materiality.PlotOptions{}, false
	}
	labels, ok := parseOptionalBool(c, "quadrant_labels")
	if !ok {
		return materiality.PlotOptions{}, false
	}
	var title *string
	if t, present := c.GetQuery("title"); present && t != "" {
		title = &t
	}
	o := appmatrix.Overrides{JitterAmount: jitter, ShowQuadrantLabels: labels, Title: title}
	return o.Apply(h.svc.DefaultOptions()), true
}
