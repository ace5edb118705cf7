// Package httpapi implements the HTTP surface for declarative object
// creation: PUT /v1/<typePlural>/<fullName>, backed by the object-config
// service.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// CreateObjectService is the narrow seam onto internal/objectconfig.Service
// this handler depends on.
type CreateObjectService interface {
	CreateObject(typeName, fullName string, templates []string, attrs map[string]any) (ok bool, errs []error)
}

// Handlers holds the object-config HTTP handlers and the type-plural ->
// type-name lookup PUT requests address objects by.
type Handlers struct {
	service CreateObjectService
	plurals map[string]string // lowercased plural -> registry type name
	logger  *slog.Logger
}

// NewHandlers constructs Handlers. plurals maps each lowercased plural
// route segment (e.g. "hosts") to its registry type name (e.g. "Host").
func NewHandlers(service CreateObjectService, plurals map[string]string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, plurals: plurals, logger: logger.With("component", "httpapi")}
}

// Register mounts the object-config routes on r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/v1/{typePlural}/{fullName:.+}", h.handleCreate).Methods(http.MethodPut)
}

// createRequest is the PUT body: {templates?: [string], attrs?: object}.
type createRequest struct {
	Templates []string       `json:"templates"`
	Attrs     map[string]any `json:"attrs"`
}

// result is one entry of the response's "results" array.
type result struct {
	Code   int      `json:"code"`
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

type createResponse struct {
	Results []result `json:"results"`
}

func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	typePlural := vars["typePlural"]
	fullName := vars["fullName"]

	typeName, ok := h.plurals[typePlural]
	if !ok {
		h.writeSingle(w, http.StatusNotFound, "unknown object type: "+typePlural, nil)
		return
	}

	var req createRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeSingle(w, http.StatusBadRequest, "invalid request body", []string{err.Error()})
			return
		}
	}

	ok, errs := h.service.CreateObject(typeName, fullName, req.Templates, req.Attrs)
	if ok {
		h.writeSingle(w, http.StatusOK, "success", nil)
		return
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	h.logger.Warn("CreateObject failed", "type", typeName, "name", fullName, "errors", msgs)
	h.writeSingle(w, http.StatusInternalServerError, "failure", msgs)
}

func (h *Handlers) writeSingle(w http.ResponseWriter, httpStatus int, status string, errs []string) {
	resp := createResponse{Results: []result{{Code: httpStatus, Status: status, Errors: errs}}}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}
