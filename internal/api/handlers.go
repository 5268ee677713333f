// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ivadomed/ivadoconf/internal/config"
	"github.com/ivadomed/ivadoconf/internal/validate"
)

// maxDocumentSize bounds validation request bodies. Training configs are a
// few KB; anything near the limit is abuse.
const maxDocumentSize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.holder.Get() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no configuration loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleConfig returns the effective configuration with secrets masked.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.MaskSecrets(*s.holder.Get()))
}

// handleSnapshot returns the effective configuration plus derived runtime
// values, the exact structure handed to the training engine.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := config.NewSnapshot(s.holder.Get())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap.Masked())
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validateResponse struct {
	Valid  bool         `json:"valid"`
	Errors []fieldError `json:"errors,omitempty"`
}

// handleValidate runs the full load pipeline on the posted document and
// reports every violation. 422 means the document parsed but is semantically
// invalid; 400 means it could not be parsed at all.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		validationRequests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	format := "json"
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = "yaml"
	}

	_, err = config.NewLoader("", s.version).LoadBytes(body, format)
	if err == nil {
		validationRequests.WithLabelValues("valid").Inc()
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
		return
	}

	var verr validate.ValidationError
	if errors.As(err, &verr) {
		fields := make([]fieldError, 0, len(verr.Errors()))
		for _, e := range verr.Errors() {
			fields = append(fields, fieldError{Field: e.Field, Message: e.Message})
		}
		validationRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: fields})
		return
	}

	validationRequests.WithLabelValues("error").Inc()
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

type reloadResponse struct {
	config.ChangeSummary
	Status string `json:"status"`
}

// handleReload re-runs the load pipeline on the watched file. On failure the
// previous configuration stays active and the error is returned.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	summary, err := s.holder.Reload()
	if err != nil {
		configReloads.WithLabelValues("failure").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": "previous configuration retained",
			"error":  err.Error(),
		})
		return
	}

	configReloads.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, reloadResponse{ChangeSummary: summary, Status: "reloaded"})
}
