package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

const dateLayout = "2006-01-02"

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	// A session scopes the listing to its user; without one all entries
	// are visible.
	userID, _ := s.sessionUser(r)
	list, err := s.deps.Store.ListSchedules(r.Context(), userID)
	if err != nil {
		s.log.Error("list schedules failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch schedules")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTodaySchedules(w http.ResponseWriter, r *http.Request) {
	date := s.deps.Now().In(s.deps.Loc).Format(dateLayout)
	list, err := s.deps.Store.SchedulesOn(r.Context(), date)
	if err != nil {
		s.log.Error("today schedules failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch today's schedules")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTomorrowSchedules(w http.ResponseWriter, r *http.Request) {
	date := s.deps.Now().In(s.deps.Loc).AddDate(0, 0, 1).Format(dateLayout)
	list, err := s.deps.Store.SchedulesOn(r.Context(), date)
	if err != nil {
		s.log.Error("tomorrow schedules failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch tomorrow's schedules")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpcomingSchedules(w http.ResponseWriter, r *http.Request) {
	// Upcoming includes today.
	date := s.deps.Now().In(s.deps.Loc).Format(dateLayout)
	list, err := s.deps.Store.UpcomingSchedules(r.Context(), date)
	if err != nil {
		s.log.Error("upcoming schedules failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch upcoming schedules")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sc, err := s.deps.Store.GetSchedule(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeMessage(w, http.StatusNotFound, "Schedule not found")
			return
		}
		s.log.Error("get schedule failed", logx.Int64("id", id), logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch schedule")
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var n storage.NewSchedule
	if err := decodeJSON(r, &n); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid schedule data")
		return
	}
	if userID, ok := s.sessionUser(r); ok && n.UserID == 0 {
		n.UserID = userID
	}

	sc, err := s.deps.Store.CreateSchedule(r.Context(), n)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidEntry) {
			s.writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("create schedule failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to create schedule")
		return
	}
	s.writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var upd storage.ScheduleUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid schedule data")
		return
	}

	sc, err := s.deps.Store.UpdateSchedule(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.writeMessage(w, http.StatusNotFound, "Schedule not found")
		case errors.Is(err, storage.ErrInvalidEntry):
			s.writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error("update schedule failed", logx.Int64("id", id), logx.Err(err))
			s.writeMessage(w, http.StatusInternalServerError, "Failed to update schedule")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteSchedule(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeMessage(w, http.StatusNotFound, "Schedule not found")
			return
		}
		s.log.Error("delete schedule failed", logx.Int64("id", id), logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid ID format")
		return 0, false
	}
	return id, true
}
