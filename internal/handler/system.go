package handler

import (
	"net/http"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
)

// SystemHandler serves GET /api/systemInfo.
type SystemHandler struct {
	info dto.SystemInfo
}

// NewSystemHandler creates a SystemHandler. loginURL is empty when
// Google login is disabled.
func NewSystemHandler(loginURL, sourceRepo, environment string) *SystemHandler {
	return &SystemHandler{info: dto.SystemInfo{
		OAuthLogin:  loginURL,
		SourceRepo:  sourceRepo,
		Environment: environment,
	}}
}

// SystemInfo handles GET /api/systemInfo. It is public.
func (h *SystemHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}
