package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vydaje/internal/currency"
	"vydaje/internal/log"
	"vydaje/internal/services"
	"vydaje/internal/storage"
)

type staticRates struct{}

func (staticRates) Table() currency.Rates { return currency.Fallback() }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemory()
	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
	groups := services.NewGroupService(store)
	txs := services.NewTransactionService(store, staticRates{}, nil)
	srv := NewServer("127.0.0.1:0", groups, txs, store, logger)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	rr := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func createGroup(t *testing.T, srv *Server) string {
	t.Helper()
	rr := doRequest(t, srv, http.MethodPost, "/groups", "",
		`{"name":"Výlet","members":["Alena","Bára","Cyril"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create group: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp groupResponse
	decodeBody(t, rr, &resp)
	if resp.ID == "" {
		t.Fatal("create group: empty id")
	}
	return resp.ID
}

func TestCreateAndGetGroup(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/groups/"+id, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get group: got %d", rr.Code)
	}
	var resp groupResponse
	decodeBody(t, rr, &resp)
	if resp.Name != "Výlet" || len(resp.Members) != 3 {
		t.Errorf("unexpected group: %+v", resp)
	}

	rr = doRequest(t, srv, http.MethodGet, "/groups", "", "")
	var list struct {
		Groups []groupSummaryResponse `json:"groups"`
	}
	decodeBody(t, rr, &list)
	if len(list.Groups) != 1 || list.Groups[0].ID != id {
		t.Errorf("unexpected group list: %+v", list.Groups)
	}
}

func TestCreateGroupRejectsSingleMember(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodPost, "/groups", "",
		`{"name":"Sólo","members":["Alena"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestGetGroupNotFound(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodGet, "/groups/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestExpenseAndBalancesFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/expenses", "Alena",
		`{"description":"Večeře","amount":"300","payer":"Alena",
		  "splits":[{"member":"Alena"},{"member":"Bára"},{"member":"Cyril"}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add expense: got %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/groups/"+id+"/balances", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("balances: got %d", rr.Code)
	}
	var bal balancesResponse
	decodeBody(t, rr, &bal)
	if bal.Balances["Alena"] != 200 || bal.Balances["Bára"] != -100 {
		t.Errorf("unexpected balances: %v", bal.Balances)
	}
	if bal.TotalExpenses != 300 {
		t.Errorf("total expenses = %d, want 300", bal.TotalExpenses)
	}
	if len(bal.Transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(bal.Transfers))
	}
	for _, tr := range bal.Transfers {
		if tr.Settled {
			t.Errorf("transfer %s -> %s already settled", tr.From, tr.To)
		}
	}

	// mark the first transfer paid, then the annotation must flip
	first := bal.Transfers[0]
	rr = doRequest(t, srv, http.MethodPost, "/groups/"+id+"/settlements", first.From,
		`{"from":"`+first.From+`","to":"`+first.To+`","amount":100}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("settlement: got %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/groups/"+id+"/balances", "", "")
	decodeBody(t, rr, &bal)
	settled := 0
	for _, tr := range bal.Transfers {
		if tr.Settled {
			settled++
		}
	}
	if settled != 1 {
		t.Errorf("got %d settled transfers, want 1", settled)
	}
}

func TestExpenseMismatchNeedsConfirm(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	body := `{"description":"Lístky","amount":"100","payer":"Alena","mode":"custom",
	  "splits":[{"member":"Bára","amount":"60"},{"member":"Cyril","amount":"30"}]%s}`

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/expenses", "Alena",
		strings.Replace(body, "%s", "", 1))
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409, body %s", rr.Code, rr.Body.String())
	}
	var warned struct {
		Warning *warningResponse `json:"warning"`
	}
	decodeBody(t, rr, &warned)
	if warned.Warning == nil || warned.Warning.SplitSum != 90 {
		t.Fatalf("unexpected warning: %+v", warned.Warning)
	}

	// nothing persisted yet
	rr = doRequest(t, srv, http.MethodGet, "/groups/"+id, "", "")
	var g groupResponse
	decodeBody(t, rr, &g)
	if len(g.Transactions) != 0 {
		t.Fatalf("unconfirmed expense was persisted")
	}

	rr = doRequest(t, srv, http.MethodPost, "/groups/"+id+"/expenses", "Alena",
		strings.Replace(body, "%s", `,"confirm":true`, 1))
	if rr.Code != http.StatusCreated {
		t.Fatalf("confirmed: got %d, body %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Transaction transactionResponse `json:"transaction"`
		Warning     *warningResponse    `json:"warning"`
	}
	decodeBody(t, rr, &created)
	if created.Warning == nil {
		t.Error("confirmed response should still carry the warning")
	}
	if created.Transaction.LedgerAmount != 100 {
		t.Errorf("ledger amount = %d, want 100", created.Transaction.LedgerAmount)
	}
}

func TestExpenseRequiresActor(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/expenses", "",
		`{"description":"x","amount":"10","payer":"Alena","splits":[{"member":"Alena"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Field != "actor" {
		t.Errorf("field = %q, want actor", resp.Field)
	}
}

func TestDeleteTransactionCreatorOnly(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/incomes", "Alena",
		`{"description":"Vratka","amount":"500","recipient":"Bára"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add income: got %d, body %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Transaction transactionResponse `json:"transaction"`
	}
	decodeBody(t, rr, &created)
	txID := created.Transaction.ID

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/transactions/"+txID, "Bára", "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: got %d, want 403", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/transactions/"+txID, "Alena", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("creator delete: got %d, want 204", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/transactions/"+txID, "Alena", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", rr.Code)
	}
}

func TestMemberEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/members", "",
		`{"name":"Dana"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add member: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Members []string `json:"members"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Members) != 4 {
		t.Fatalf("got %d members, want 4", len(resp.Members))
	}

	rr = doRequest(t, srv, http.MethodPost, "/groups/"+id+"/members", "",
		`{"name":"Dana"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate member: got %d, want 409", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/members/Dana", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("remove member: got %d", rr.Code)
	}
	decodeBody(t, rr, &resp)
	if len(resp.Members) != 3 {
		t.Fatalf("got %d members after removal, want 3", len(resp.Members))
	}
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/groups/"+id+"/categories", "", "")
	var resp struct {
		Categories []categoryResponse `json:"categories"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Categories) == 0 {
		t.Fatal("new group has no default categories")
	}
	defaults := len(resp.Categories)

	rr = doRequest(t, srv, http.MethodPost, "/groups/"+id+"/categories", "",
		`{"name":"Drogerie","icon":"🧴"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add category: got %d, body %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &resp)
	if len(resp.Categories) != defaults+1 {
		t.Fatalf("got %d categories, want %d", len(resp.Categories), defaults+1)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/categories/Drogerie", "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("remove category: got %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/groups/"+id+"/categories/Neznámá", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("remove unknown category: got %d, want 404", rr.Code)
	}
}

func TestDeleteLastGroupRefused(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodDelete, "/groups/"+id, "", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createGroup(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/groups/"+id+"/expenses", "Alena",
		`{"description":"Nákup","amount":"240","payer":"Alena","category":"Nákupy",
		  "splits":[{"member":"Alena"},{"member":"Bára"},{"member":"Cyril"}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add expense: got %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/groups/"+id+"/stats?range=week", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: got %d", rr.Code)
	}
	var summary struct {
		Range       string `json:"range"`
		Count       int    `json:"count"`
		Total       int64  `json:"total"`
		TopCategory string `json:"top_category"`
	}
	decodeBody(t, rr, &summary)
	if summary.Range != "week" || summary.Count != 1 || summary.Total != 240 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.TopCategory != "Nákupy" {
		t.Errorf("top category = %q", summary.TopCategory)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("healthz: got %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("readyz: got %d", rr.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodGet, "/healthz", "", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodPost, "/groups", "", `{"name":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}
