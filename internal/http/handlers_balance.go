package http

import (
	"net/http"
	"time"

	"vydaje/internal/balance"
	"vydaje/internal/stats"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if cached, ok := s.balances.Get(groupID); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	balances := balance.Compute(group)
	expenses, incomes := balance.Totals(group)

	transfers := balance.Plan(balances)
	annotated := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		annotated = append(annotated, transferResponse{
			From:    t.From,
			To:      t.To,
			Amount:  t.Amount,
			Settled: balance.IsSettled(group.Settlements, t),
		})
	}

	resp := balancesResponse{
		Balances:      balances,
		TotalExpenses: expenses,
		TotalIncomes:  incomes,
		Transfers:     annotated,
	}
	s.balances.Set(groupID, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req settlementRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	groupID := r.PathValue("id")
	settlement, err := s.groups.RecordSettlement(r.Context(), groupID, req.toTransfer(), act)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.invalidateBalances(groupID)
	s.writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rng := stats.ParseRange(r.URL.Query().Get("range"))
	s.writeJSON(w, http.StatusOK, stats.Summarize(group, rng, time.Now()))
}
