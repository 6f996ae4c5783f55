package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/middleware"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError maps err to its HTTP status.  Server-side failures are
// masked; client errors carry their message and detail.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{Code: string(code), RequestID: middleware.GetRequestID(c)}

	var appErr *errors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	} else {
		if code == errors.CodeUnknown {
			resp.Code = string(errors.ErrCodeInternal)
			status = http.StatusInternalServerError
		}
		resp.Message = errors.DefaultMessageForCode(errors.ErrorCode(resp.Code))
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	appErr := errors.New(errors.ErrCodeBadRequest, msg)
	if err != nil {
		appErr = appErr.WithDetail(err.Error())
	}
	respondError(c, appErr)
}

// dashboardKey parses the :clientID and :year path parameters.
func dashboardKey(c *gin.Context) (int64, int, bool) {
	clientID, err := strconv.ParseInt(c.Param("clientID"), 10, 64)
	if err != nil || clientID <= 0 {
		badRequest(c, "client id must be a positive integer", nil)
		return 0, 0, false
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, "year must be an integer", nil)
		return 0, 0, false
	}
	return clientID, year, true
}

// sessionDashboardKey parses the client and year query parameters of
// session routes.
func sessionDashboardKey(c *gin.Context) (int64, int, bool) {
	clientID, err := strconv.ParseInt(c.Query("client"), 10, 64)
	if err != nil || clientID <= 0 {
		badRequest(c, "client query parameter must be a positive integer", nil)
		return 0, 0, false
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		badRequest(c, "year query parameter must be an integer", nil)
		return 0, 0, false
	}
	return clientID, year, true
}

func parseOptionalFloat(c *gin.Context, name string) (*float64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequest(c, name+" must be a number", err)
		return nil, false
	}
	return &v, true
}

func parseOptionalBool(c *gin.Context, name string) (*bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name+" must be a boolean", err)
		return nil, false
	}
	return &v, true
}
