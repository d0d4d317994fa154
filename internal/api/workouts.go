package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
)

const maxBodyBytes = 1 << 16

type workoutListResponse struct {
	Workouts []*core.Workout `json:"workouts"`
	Count    int             `json:"count"`
}

type positionRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type locationRequest struct {
	positionRequest
	Error string `json:"error,omitempty"`
}

type pendingResponse struct {
	Pending     bool                    `json:"pending"`
	Interaction *controller.Interaction `json:"interaction,omitempty"`
}

type formResponse struct {
	controller.Form
	Values map[string]string `json:"values"`
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, _ *http.Request) {
	ws := s.ctl.Workouts()
	respondJSON(w, http.StatusOK, workoutListResponse{Workouts: ws, Count: len(ws)})
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	wk, err := s.ctl.Workout(chi.URLParam(r, "workoutID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wk)
}

func (s *Server) handleWorkoutMarkup(w http.ResponseWriter, r *http.Request) {
	wk, err := s.ctl.Workout(chi.URLParam(r, "workoutID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	html, err := render.HTML(render.NewEntry(wk))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Delete(r.Context(), chi.URLParam(r, "workoutID")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	form, err := s.ctl.BeginEdit(chi.URLParam(r, "workoutID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, formResponse{Form: form, Values: form.Values()})
}

func (s *Server) handleActivateWorkout(w http.ResponseWriter, r *http.Request) {
	wk, err := s.ctl.Activate(r.Context(), chi.URLParam(r, "workoutID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wk)
}

func (s *Server) handleFocusWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Focus(r.Context(), chi.URLParam(r, "workoutID")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBeginCreate is a map click: it opens the form at the clicked position.
func (s *Server) handleBeginCreate(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	if err := s.ctl.BeginCreate(core.Position{Lat: *req.Lat, Lng: *req.Lng}); err != nil {
		respondDomainError(w, err)
		return
	}
	s.respondPending(w)
}

// handleLocate receives the browser geolocation result, or its failure.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		pos       core.Position
		lookupErr error
	)
	switch {
	case req.Error != "":
		lookupErr = errors.New(req.Error)
	case req.Lat == nil || req.Lng == nil:
		lookupErr = errors.New("position missing")
	default:
		pos = core.Position{Lat: *req.Lat, Lng: *req.Lng}
	}

	if err := s.ctl.Locate(r.Context(), pos, lookupErr); err != nil {
		if _, ok := httpStatusForDomainError(err); ok {
			respondDomainError(w, err)
			return
		}
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPending(w http.ResponseWriter, _ *http.Request) {
	s.respondPending(w)
}

func (s *Server) respondPending(w http.ResponseWriter) {
	in, ok := s.ctl.Pending()
	resp := pendingResponse{Pending: ok}
	if ok {
		resp.Interaction = &in
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelPending(w http.ResponseWriter, _ *http.Request) {
	s.ctl.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitPending accepts the form fields as JSON strings or numbers.
func (s *Server) handleSubmitPending(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := controller.ParseInput(formValues(raw))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	wk, err := s.ctl.Submit(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wk)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Reset(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.board.State())
}

func (s *Server) handleNotices(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]Notice{"notices": s.board.DrainNotices()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// formValues flattens a decoded body into raw form strings.
func formValues(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
