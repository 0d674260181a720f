package api

import (
	"errors"
	"net/http"

	"github.com/stashbot/stash/internal/selection"
)

// SessionsHandler exposes interactive selection sessions to the gateway,
// which forwards each button press as one input request.
type SessionsHandler struct {
	Sessions *selection.Manager
}

type sessionInputRequest struct {
	UserID int64  `json:"user_id"`
	Action string `json:"action"`
	Step   int    `json:"step"`
}

// Get handles GET /api/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.Sessions.Get(r.PathValue("id"))
	if session == nil {
		jsonError(w, http.StatusNotFound, "session not found")
		return
	}
	jsonResponse(w, http.StatusOK, session.Snapshot())
}

// Input handles POST /api/sessions/{id}/input.
func (h *SessionsHandler) Input(w http.ResponseWriter, r *http.Request) {
	session := h.Sessions.Get(r.PathValue("id"))
	if session == nil {
		jsonError(w, http.StatusNotFound, "session not found")
		return
	}

	var req sessionInputRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch req.Action {
	case "toggle":
		err = session.ToggleCursor(req.UserID)
	case "next":
		err = session.MoveCursor(req.UserID, 1)
	case "previous":
		err = session.MoveCursor(req.UserID, -1)
	case "move":
		err = session.MoveCursor(req.UserID, req.Step)
	case "select_all":
		err = session.SelectAll(req.UserID)
	case "clear":
		err = session.ClearSelection(req.UserID)
	case "confirm":
		err = session.Confirm(r.Context(), req.UserID)
	case "cancel":
		err = session.Cancel(r.Context(), req.UserID)
	default:
		jsonError(w, http.StatusBadRequest, "unknown action")
		return
	}

	switch {
	case errors.Is(err, selection.ErrNotOwner):
		jsonError(w, http.StatusForbidden, "session belongs to another user")
		return
	case errors.Is(err, selection.ErrFinished):
		h.Sessions.Remove(r.PathValue("id"))
		jsonError(w, http.StatusConflict, "session is no longer active")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to apply selection")
		return
	}

	snapshot := session.Snapshot()
	if snapshot.State != selection.StateBrowsing {
		h.Sessions.Remove(snapshot.SessionID)
	}
	jsonResponse(w, http.StatusOK, snapshot)
}
