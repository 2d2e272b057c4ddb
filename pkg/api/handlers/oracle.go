package handlers

import (
	"net/http"

	"github.com/marmos91/ordo/pkg/config"
	"github.com/marmos91/ordo/pkg/oracle"
)

// OracleHandler serves the oracle launch spec.
type OracleHandler struct {
	cfg     *config.Config
	planner *oracle.Planner
}

// NewOracleHandler creates a new OracleHandler for cfg.
func NewOracleHandler(cfg *config.Config) *OracleHandler {
	return &OracleHandler{cfg: cfg, planner: oracle.NewPlanner()}
}

// LaunchSpec handles GET /api/v1/oracle/launch-spec. The spec is rebuilt
// from configuration on every request.
func (h *OracleHandler) LaunchSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := h.planner.Build(h.cfg)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(spec))
}
