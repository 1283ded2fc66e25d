/*
Package handler provides the HTTP handlers and routing setup for the
collaboration server.

This file contains the read-only project statistics endpoint, useful for
dashboards and smoke checks. It never creates project state.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"slidesync/internal/pkg/errs"
	"slidesync/internal/pkg/randx"
	"slidesync/internal/pkg/resp"
)

// ProjectStats is the response body for the project stats endpoint.
type ProjectStats struct {
	ProjectID    string `json:"projectId"`
	Users        int    `json:"users"`
	Slides       int    `json:"slides"`
	Comments     int    `json:"comments"`
	LastActivity int64  `json:"lastActivity"`
}

// HandleProjectStats returns counts for one active project.
func HandleProjectStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		if !randx.IsValidProjectID(projectID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrProjectIDInvalid))
			return
		}

		proj := deps.Registry.Get(projectID)
		if proj == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrProjectNotFound))
			return
		}

		stats := ProjectStats{
			ProjectID:    projectID,
			Users:        proj.UserCount(),
			Slides:       proj.SlideCount(),
			Comments:     proj.CommentCount(),
			LastActivity: proj.LastActivity().UnixMilli(),
		}

		resp.RespondSuccess(w, r, stats)
	}
}
