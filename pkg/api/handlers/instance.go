package handlers

import (
	"context"
	"net/http"

	"github.com/marmos91/ordo/pkg/instance"
)

// Instance is the lifecycle surface served by the API. *instance.Admin
// implements it.
type Instance interface {
	State(ctx context.Context) (instance.State, error)
	Status(ctx context.Context) (*instance.Status, error)
	Initialize(ctx context.Context, opts instance.InitOptions) error
	Remove(ctx context.Context, opts ...instance.RemoveOption) error
}

// InstanceHandler handles the lifecycle endpoints.
type InstanceHandler struct {
	instance Instance
}

// NewInstanceHandler creates a new InstanceHandler.
func NewInstanceHandler(inst Instance) *InstanceHandler {
	return &InstanceHandler{instance: inst}
}

// InitializeRequest is the body of POST /api/v1/instance/initialize.
type InitializeRequest struct {
	ClearCoordinationState bool `json:"clear_coordination_state"`
	ClearTable             bool `json:"clear_table"`
}

// RemoveRequest is the body of POST /api/v1/instance/remove.
type RemoveRequest struct {
	KeepTable bool `json:"keep_table"`
}

// Status handles GET /api/v1/instance.
func (h *InstanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.instance.Status(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(st))
}

// Initialize handles POST /api/v1/instance/initialize.
func (h *InstanceHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	err := h.instance.Initialize(r.Context(), instance.InitOptions{
		ClearCoordinationState: req.ClearCoordinationState,
		ClearTable:             req.ClearTable,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	h.Status(w, r)
}

// Remove handles POST /api/v1/instance/remove.
func (h *InstanceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	var opts []instance.RemoveOption
	if req.KeepTable {
		opts = append(opts, instance.KeepTable())
	}
	if err := h.instance.Remove(r.Context(), opts...); err != nil {
		WriteError(w, err)
		return
	}
	h.Status(w, r)
}
