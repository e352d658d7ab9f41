package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/rankboard/internal/api/respond"
	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/standings"
)

// NotificationView is the renderer's view of the transient result slot.
type NotificationView struct {
	Active      bool          `json:"active"`
	Event       *notify.Event `json:"event,omitempty"`
	Description string        `json:"description,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
}

// ScoreboardView is everything a renderer needs in one response.
type ScoreboardView struct {
	*standings.Board
	Leader       string           `json:"leader"`
	Notification NotificationView `json:"notification"`
}

// ActiveSessionView reports the live session, or waiting when none.
type ActiveSessionView struct {
	Status  session.Status   `json:"status"`
	Session *session.Session `json:"session"`
}

func (h *Handler) notificationView() NotificationView {
	e, ok := h.Notifications.Current()
	if !ok {
		return NotificationView{}
	}
	exp := h.Notifications.ExpiresAt()
	return NotificationView{Active: true, Event: &e, Description: e.Description(), ExpiresAt: &exp}
}

// GetScoreboard returns standings for the active session.
// @Summary Live scoreboard
// @Description Team and player win/loss counts for the active session, the leading team and the current new-result notification. With no active session the board status is "waiting".
// @Tags scoreboard
// @Produce json
// @Success 200 {object} ScoreboardView
// @Success 304 "Not modified"
// @Failure 500 {object} respond.ErrorResponse
// @Router /scoreboard [get]
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Active(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", "Failed to load active session", err.Error())
		return
	}
	board, err := h.Boards.Build(r.Context(), s)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "BOARD_FAILED", "Failed to build scoreboard", err.Error())
		return
	}
	view := ScoreboardView{
		Board:        board,
		Leader:       board.Leader(),
		Notification: h.notificationView(),
	}
	// built_at and remaining_seconds change on every build; the deadline
	// carries the countdown.
	validator := struct {
		Status       standings.Status
		Session      *session.Session
		Teams        []standings.TeamLine
		Deadline     *time.Time
		Notification NotificationView
	}{board.Status, board.Session, board.Teams, board.Deadline, view.Notification}
	respond.WriteCachedBy(w, r, view, validator, 0)
}

// GetActiveSession returns the live session.
// @Summary Active session
// @Description Returns the most recent session that has not ended. Status is "waiting" with a null session when there is none.
// @Tags sessions
// @Produce json
// @Success 200 {object} ActiveSessionView
// @Failure 500 {object} respond.ErrorResponse
// @Router /sessions/active [get]
func (h *Handler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Active(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", "Failed to load active session", err.Error())
		return
	}
	view := ActiveSessionView{Status: "waiting", Session: s}
	if s != nil {
		view.Status = s.Status()
	}
	respond.WriteCached(w, r, view, 0)
}

// GetRoster returns the roster of a session.
// @Summary Session roster
// @Description Roster entries ordered by team then display name.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} session.RosterEntry
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /sessions/{id}/roster [get]
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.Sessions.Roster(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "ROSTER_FAILED", "Failed to load roster", err.Error())
		return
	}
	if entries == nil {
		entries = []session.RosterEntry{}
	}
	respond.WriteCached(w, r, entries, 0)
}

// GetSession returns one session by id.
// @Summary Session detail
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Session
// @Failure 404 {object} respond.ErrorResponse
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", "Failed to load session", err.Error())
		return
	}
	respond.WriteCached(w, r, s, 0)
}

// GetNotification returns the transient new-result notification.
// @Summary New-result notification
// @Description The latest newly recorded result while it is still within its display window.
// @Tags scoreboard
// @Produce json
// @Success 200 {object} NotificationView
// @Router /notification [get]
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.notificationView())
}
