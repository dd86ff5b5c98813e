package http

import "net/http"

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	in, err := req.toInput(act)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	groupID := r.PathValue("id")
	tx, warning, err := s.txs.AddExpense(r.Context(), groupID, in, req.Confirm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// unconfirmed split mismatch: nothing was persisted, the client is
	// expected to retry with confirm=true
	if warning != nil && !req.Confirm {
		s.writeJSON(w, http.StatusConflict, map[string]any{"warning": toWarningResponse(warning)})
		return
	}

	s.invalidateBalances(groupID)
	resp := map[string]any{"transaction": toTransactionResponse(tx)}
	if warning != nil {
		resp["warning"] = toWarningResponse(warning)
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	in, err := req.toInput(act)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	groupID := r.PathValue("id")
	tx, err := s.txs.AddIncome(r.Context(), groupID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.invalidateBalances(groupID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"transaction": toTransactionResponse(tx)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	groupID := r.PathValue("id")
	if err := s.txs.DeleteTransaction(r.Context(), groupID, r.PathValue("txid"), act); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.invalidateBalances(groupID)
	w.WriteHeader(http.StatusNoContent)
}
