package screening

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/neuroscreen-ai/platform/pkg/common/logger"
	"github.com/neuroscreen-ai/platform/pkg/common/models"
	"github.com/neuroscreen-ai/platform/pkg/gateway/auth"
)

type HTTPHandler struct {
	service *Service
	authn   *auth.Authenticator
}

func NewHTTPHandler(service *Service, authn *auth.Authenticator) *HTTPHandler {
	return &HTTPHandler{service: service, authn: authn}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/cases", h.handleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/cases", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/cases/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/cases/{id}", h.handleHide).Methods(http.MethodDelete)
	router.HandleFunc("/cases/{id}/retry", h.handleRetry).Methods(http.MethodPost)
	router.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub models.CaseSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		logger.Log.WithError(err).Warn("invalid case submission payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		logger.Log.WithError(err).Error("failed to process case submission")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list cases")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		logger.Log.WithError(err).Error("failed to fetch case")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *HTTPHandler) handleHide(w http.ResponseWriter, r *http.Request) {
	subject := h.authn.Subject(r.Context(), r)
	if !h.authn.IsAdmin(subject) {
		writeError(w, http.StatusForbidden, "admin privileges required")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.service.Hide(r.Context(), id, subject); err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		logger.Log.WithError(err).Error("failed to hide case")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.service.Retry(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		// Prediction and no-job failures surface as a structured 400.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"case_record": record,
	})
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.StorageStatus(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to fetch storage status")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
