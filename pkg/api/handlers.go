package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/health"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/normalize"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/scantext"
)

// Response headers set on generated reports.
const (
	HeaderReportID     = "X-Report-Id"
	HeaderGenerationID = "X-Generation-Id"
	HeaderPages        = "X-Report-Pages"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Success      bool                     `json:"success"`
	Error        string                   `json:"error"`
	Message      string                   `json:"message"`
	GenerationID string                   `json:"generationId,omitempty"`
	Log          *events.GenerationRecord `json:"log,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		c.Data(http.StatusInternalServerError, defaults.ContentTypeJSON,
			[]byte(`{"success":false,"error":"encode response","message":"Internal server error"}`))
		return
	}
	c.Data(status, defaults.ContentTypeJSON, data)
}

func writeError(c *gin.Context, status int, err, message string) {
	writeJSON(c, status, ErrorBody{Error: err, Message: message})
}

// readBody reads the request body, answering 413 or 400 itself on error.
func readBody(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, err.Error(), "Request body too large")
		} else {
			writeError(c, http.StatusBadRequest, err.Error(), "Could not read request body")
		}
		return nil, false
	}
	return data, true
}

func (s *Server) handleReport(c *gin.Context) {
	data, ok := readBody(c)
	if !ok {
		return
	}

	res := s.opts.Generator.Generate(c.Request.Context(), data)
	if !res.Success {
		log := res.Log
		writeJSON(c, http.StatusUnprocessableEntity, ErrorBody{
			Error:        res.Error,
			Message:      res.Message,
			GenerationID: res.GenerationID,
			Log:          &log,
		})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	c.Header(HeaderReportID, res.Log.ReportID)
	c.Header(HeaderGenerationID, res.GenerationID)
	c.Header(HeaderPages, strconv.Itoa(res.Pages))
	c.Data(http.StatusOK, defaults.ContentTypePDF, res.PDF)
}

// handleParse accepts scan text as the raw body, or as the "text" or
// "raw_output" member of a JSON object.
func (s *Server) handleParse(c *gin.Context) {
	data, ok := readBody(c)
	if !ok {
		return
	}

	text := string(data)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		root, err := jsonutil.DecodeLoose(data)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error(), "Request body is not valid JSON")
			return
		}
		text = normalize.Text(root, "", normalize.Path("text"), normalize.Path("raw_output"))
		if text == "" {
			writeError(c, http.StatusBadRequest, "missing text", `Expected a "text" or "raw_output" string`)
			return
		}
	}

	writeJSON(c, http.StatusOK, scantext.Parse(text))
}

func (s *Server) handleHealth(c *gin.Context) {
	rep := s.opts.Health.Run(c.Request.Context())
	status := http.StatusOK
	if rep.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(c, status, rep)
}
