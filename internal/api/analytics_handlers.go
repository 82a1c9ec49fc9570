// Package api provides HTTP handlers for the AppSight API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/veldra/appsight/internal/analytics"
	"github.com/veldra/appsight/internal/apps"
	"github.com/veldra/appsight/internal/middleware"
)

// AnalyticsHandlers holds dependencies for the analytics HTTP handlers.
type AnalyticsHandlers struct {
	service *analytics.Service
}

// NewAnalyticsHandlers creates a new AnalyticsHandlers instance.
func NewAnalyticsHandlers(service *analytics.Service) *AnalyticsHandlers {
	return &AnalyticsHandlers{service: service}
}

// Route dispatches requests under /apps/{appID}/... to the matching handler.
// Register it on the mux with the "/apps/" prefix.
func (h *AnalyticsHandlers) Route(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/apps/"), "/")
	if len(pathParts) != 2 || pathParts[0] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}
	appID := pathParts[0]

	switch pathParts[1] {
	case "analytics":
		h.GetAnalytics(w, r, appID)
	case "sessions":
		h.GetSessions(w, r, appID)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
	}
}

// GetAnalytics handles GET /apps/{appID}/analytics - returns the full
// analytics report for the requested range.
func (h *AnalyticsHandlers) GetAnalytics(w http.ResponseWriter, r *http.Request, appID string) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.requireUser(w, r) {
		return
	}

	query := analytics.Query{
		Range:        r.URL.Query().Get("range"),
		ActiveWindow: r.URL.Query().Get("activeWindow"),
	}

	report, err := h.service.Report(r.Context(), appID, query)
	if err != nil {
		h.writeServiceError(w, r, appID, err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

// GetSessions handles GET /apps/{appID}/sessions - returns the live session
// feed for the requested heartbeat window.
func (h *AnalyticsHandlers) GetSessions(w http.ResponseWriter, r *http.Request, appID string) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.requireUser(w, r) {
		return
	}

	feed, err := h.service.LiveSessions(r.Context(), appID, r.URL.Query().Get("windowSeconds"))
	if err != nil {
		h.writeServiceError(w, r, appID, err)
		return
	}

	writeJSON(w, r, http.StatusOK, feed)
}

// requireUser ensures the auth middleware resolved a user; otherwise writes
// a 401 and reports false.
func (h *AnalyticsHandlers) requireUser(w http.ResponseWriter, r *http.Request) bool {
	if middleware.GetUserID(r.Context()) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return false
	}
	return true
}

func (h *AnalyticsHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, appID string, err error) {
	switch {
	case errors.Is(err, apps.ErrAppNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "App not found")
	case errors.Is(err, analytics.ErrUpstreamFetch):
		slog.ErrorContext(r.Context(), "analytics fetch failed", "error", err, "app_id", appID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeUpstreamFailed)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeUpstreamFailed, "Failed to load analytics data")
	case errors.Is(err, analytics.ErrDependentLookup):
		slog.ErrorContext(r.Context(), "trial conversion lookup failed", "error", err, "app_id", appID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeDependentLookupFailed)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeDependentLookupFailed, "Failed to resolve trial conversions")
	default:
		slog.ErrorContext(r.Context(), "analytics request failed", "error", err, "app_id", appID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
