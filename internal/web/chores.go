package web

import (
	"net/http"
	"strings"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
	"chorecal/internal/store"
)

// choresOrEmpty keeps JSON arrays from encoding as null.
func choresOrEmpty(c []model.Chore) []model.Chore {
	if c == nil {
		return []model.Chore{}
	}
	return c
}

func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request) {
	chores, err := s.store.ListChores(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, choresOrEmpty(chores))
}

func (s *Server) handleCreateChore(w http.ResponseWriter, r *http.Request) {
	var c model.Chore
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = ""
	c.Name = strings.TrimSpace(c.Name)
	if err := store.ValidateChore(&c); err != nil {
		writeStoreError(w, r, err)
		return
	}

	saved, err := s.store.SaveChore(r.Context(), c)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateChore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.GetChore(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	var c model.Chore
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.Name = strings.TrimSpace(c.Name)
	if err := store.ValidateChore(&c); err != nil {
		writeStoreError(w, r, err)
		return
	}

	saved, err := s.store.SaveChore(r.Context(), c)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteChore(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChore(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m model.Member
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.ID = ""
	m.Name = strings.TrimSpace(m.Name)

	saved, err := s.store.SaveMember(r.Context(), m)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMember(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/completions?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.parseRange(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListCompletions(r.Context(), start, end)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Completion{}
	}
	writeJSON(w, http.StatusOK, list)
}

type toggleRequest struct {
	ChoreID string     `json:"choreId"`
	Date    dates.Date `json:"date"`
}

type toggleResponse struct {
	ChoreID string     `json:"choreId"`
	Date    dates.Date `json:"date"`
	Done    bool       `json:"done"`
}

func (s *Server) handleToggleCompletion(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ChoreID == "" || req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "choreId and date are required")
		return
	}

	done, err := s.store.ToggleCompletion(r.Context(), req.ChoreID, req.Date)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{ChoreID: req.ChoreID, Date: req.Date, Done: done})
}

type describeResponse struct {
	Label string `json:"label"`
}

// POST /api/describe takes a recurrence in its wire form and returns the
// human-readable label.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var spec recurrence.Spec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := recurrence.Decode(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, describeResponse{Label: recurrence.Describe(rule)})
}
