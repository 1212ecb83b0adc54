package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"abstat/app"
	"abstat/internal/errors"
)

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// significanceResponse wraps the outcome; HTML is set when ?format=html
type significanceResponse struct {
	*app.SignificanceOutcome
	HTML string `json:"html,omitempty"`
}

type sampleSizeResponse struct {
	*app.SampleSizeOutcome
	HTML string `json:"html,omitempty"`
}

func (s *Server) handleDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Defaults())
}

func (s *Server) handleSignificance(c *gin.Context) {
	var req app.SignificanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidInput(err.Error()))
		return
	}

	out, err := s.service.AnalyzeSignificance(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := significanceResponse{SignificanceOutcome: out}
	if wantsHTML(c) {
		resp.HTML = out.Report.HTML()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSampleSize(c *gin.Context) {
	var req app.SampleSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidInput(err.Error()))
		return
	}

	out, err := s.service.PlanSampleSize(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := sampleSizeResponse{SampleSizeOutcome: out}
	if wantsHTML(c) {
		resp.HTML = out.Report.HTML()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("calculation failed", zap.String("request_id", c.GetString("requestID")), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error: err.Error(),
		Code:  errors.GetCode(err),
		Field: errors.GetField(err),
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidParameter, errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeDivisionByZero:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func wantsHTML(c *gin.Context) bool {
	return c.Query("format") == "html"
}
