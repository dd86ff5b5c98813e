package http

import (
	"net/http"

	"vydaje/internal/core"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), req.Name, req.Members)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toGroupResponse(&group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summaries := make([]groupSummaryResponse, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		summaries = append(summaries, groupSummaryResponse{
			ID:           g.ID,
			Name:         g.Name,
			Members:      g.Members,
			CreatedAt:    g.CreatedAt,
			Transactions: len(g.Transactions),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"groups": summaries})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if err := s.groups.DeleteGroup(r.Context(), groupID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateBalances(groupID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if err := s.groups.ClearGroupData(r.Context(), groupID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateBalances(groupID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	groupID := r.PathValue("id")
	if err := s.groups.AddMember(r.Context(), groupID, req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateBalances(groupID)
	s.writeMembers(w, r, groupID, http.StatusCreated)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if err := s.groups.RemoveMember(r.Context(), groupID, r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateBalances(groupID)
	s.writeMembers(w, r, groupID, http.StatusOK)
}

func (s *Server) writeMembers(w http.ResponseWriter, r *http.Request, groupID string, status int) {
	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, map[string][]string{"members": group.Members})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.groups.ListCategories(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": toCategoryResponses(categories)})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	groupID := r.PathValue("id")
	err := s.groups.AddCategory(r.Context(), groupID, core.Category{Name: req.Name, Icon: req.Icon})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	categories, err := s.groups.ListCategories(r.Context(), groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"categories": toCategoryResponses(categories)})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.RemoveCategory(r.Context(), r.PathValue("id"), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCategoryResponses(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{Name: c.Name, Icon: c.Icon})
	}
	return out
}
