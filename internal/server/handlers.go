// File: internal/server/handlers.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/reporting"
	"github.com/mobilesec-ms/reportgen/internal/service"
	"github.com/mobilesec-ms/reportgen/internal/upstream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServiceName is reported by the health endpoint.
const ServiceName = "reportgen"

// maxRequestBytes bounds the POST /generate body.
const maxRequestBytes = 1 << 20

// ReportGenerator is the part of service.Generator the handlers need.
type ReportGenerator interface {
	Generate(ctx context.Context, req service.Request) (*service.Result, error)
}

// Handlers serves the report API.
type Handlers struct {
	log       *zap.Logger
	generator ReportGenerator
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, generator ReportGenerator) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		log:       logger.Named("handlers"),
		generator: generator,
	}
}

// RegisterRoutes mounts the API on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealthCheck)
	r.Post("/generate", h.HandleGenerate)
}

// HandleHealthCheck never touches the scanners.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}

// HandleGenerate builds a report for the posted job ids. The format comes from
// the body, or from the "format" query parameter when the body has none.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req schemas.GenerateRequest
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	// An empty body is treated as {} so validation reports the missing job id.
	if len(bytes.TrimSpace(data)) > 0 {
		if !json.Valid(data) {
			h.respondWithError(w, http.StatusBadRequest, "invalid request body: malformed JSON")
			return
		}
		if err := json.Unmarshal(data, &req); err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	formatName := req.Format
	if formatName == "" {
		formatName = r.URL.Query().Get("format")
	}
	format := reporting.ParseFormat(formatName)

	res, err := h.generator.Generate(r.Context(), service.Request{JobIDs: req.JobIDs, Format: format})
	if err != nil {
		status := statusFor(err)
		h.log.Warn("Report generation failed.",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err))
		h.respondWithError(w, status, err.Error())
		return
	}

	out := res.Output
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.Header().Set("X-Report-ID", res.Report.Metadata.ReportID)
	if out.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", out.Filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		h.log.Debug("Client went away while writing report.", zap.Error(err))
	}
}

// statusFor maps the generation error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *service.ValidationError
		mandatory  *upstream.MandatoryUpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &mandatory):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError sends a {"error": message} JSON body.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]string{"error": message})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
