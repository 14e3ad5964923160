package server

import (
	"net/http"
	"strconv"

	"github.com/meonghae/profile-service/server/schedule"
	"github.com/meonghae/profile-service/server/storage"
)

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sched, err := s.service.GetSchedule(r.Context(), id, owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScheduleResponse(*sched))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	previews, err := s.service.GetUpcomingPreview(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPreviewResponses(previews))
}

// handleDayView serves /schedules/day?date=2024-01-31&id=1&id=2
func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := s.parseDate(q.Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ids := make([]int64, 0, len(q["id"]))
	for _, raw := range q["id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, schedule.ErrInvalidRequest)
			return
		}
		ids = append(ids, id)
	}

	schedules, err := s.service.GetDayView(r.Context(), date, owner(r), ids)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScheduleResponses(schedules))
}

func (s *Server) handleMonthGrouping(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	grouping, err := s.service.GetMonthGrouping(r.Context(), date, owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newMonthResponses(grouping))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.service.SearchSchedules(r.Context(), r.URL.Query().Get("key"), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScheduleResponses(schedules))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ics, err := s.service.ExportCalendar(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(headerContentType, mimeTypeCalendar)
	w.Header().Set("Content-Disposition", `attachment; filename="schedules.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(ics)); err != nil {
		s.logger.Error("failed to write calendar", "error", err)
	}
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var body scheduleRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.service.CreateSchedule(r.Context(), req, owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newScheduleResponse(*created))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body scheduleRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := s.service.GetSchedule(ctx, id, owner(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.UpdateSchedule(ctx, id, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.service.GetSchedule(ctx, id, owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScheduleResponse(*updated))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.service.GetSchedule(r.Context(), id, owner(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.DeleteSchedule(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteOwnerSchedules(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.DeleteOwnerSchedules(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	var body petRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	pet := &storage.Pet{Name: body.Name, Species: body.Species}
	if body.BirthDate != "" {
		birth, err := s.parseDate(body.BirthDate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		pet.BirthDate = &birth
	}
	if err := s.service.CreatePet(r.Context(), pet, owner(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newPetResponse(*pet))
}

func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pet, err := s.service.GetPet(r.Context(), id, owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPetResponse(*pet))
}
