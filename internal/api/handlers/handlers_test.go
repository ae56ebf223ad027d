package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/budget"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/domain"
	"github.com/dvloznov/family-budget/internal/jobs"
	"github.com/dvloznov/family-budget/internal/jobs/inmemory"
	"github.com/dvloznov/family-budget/internal/parser"
)

// fakeStore is an in-memory storage.Store for handler tests.
type fakeStore struct {
	categories   []domain.Category
	transactions []domain.Transaction
	profiles     []domain.Profile
	nextID       int
	listCalls    int
}

func (f *fakeStore) newID() string {
	f.nextID++
	return "id-" + string(rune('0'+f.nextID))
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	f.listCalls++
	return append([]domain.Category(nil), f.categories...), nil
}

func (f *fakeStore) InsertCategory(ctx context.Context, name string, monthlyBudget float64, isFixed bool) (string, error) {
	id := f.newID()
	f.categories = append(f.categories, domain.Category{ID: id, Name: name, MonthlyBudget: monthlyBudget, IsFixed: isFixed})
	return id, nil
}

func (f *fakeStore) UpdateCategoryBudget(ctx context.Context, id string, monthlyBudget float64) error {
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].MonthlyBudget = monthlyBudget
			return nil
		}
	}
	return errNotFound
}

func (f *fakeStore) UpdateCategoryBudgetByName(ctx context.Context, name string, monthlyBudget float64) error {
	for i := range f.categories {
		if f.categories[i].Name == name {
			f.categories[i].MonthlyBudget = monthlyBudget
			return nil
		}
	}
	return errNotFound
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id string) error {
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (f *fakeStore) DeleteCategoryByName(ctx context.Context, name string) (bool, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return true, f.DeleteCategory(ctx, c.ID)
		}
	}
	return false, nil
}

func (f *fakeStore) InsertTransaction(ctx context.Context, tx *domain.Transaction) (string, error) {
	id := f.newID()
	t := *tx
	t.ID = id
	f.transactions = append(f.transactions, t)
	return id, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	return nil
}

func (f *fakeStore) ListMonthTransactions(ctx context.Context, year, month int, userID string) ([]domain.Transaction, error) {
	return append([]domain.Transaction(nil), f.transactions...), nil
}

func (f *fakeStore) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return append([]domain.Transaction(nil), f.transactions...), nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return nil, nil
}
func (f *fakeStore) CreateProfile(ctx context.Context, userID, displayName string) error { return nil }
func (f *fakeStore) UpdateProfile(ctx context.Context, userID, displayName string) error { return nil }
func (f *fakeStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return f.profiles, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, userID, email string) (string, error) {
	return "token", nil
}
func (f *fakeStore) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	return nil, nil
}
func (f *fakeStore) DeleteSession(ctx context.Context, token string) error { return nil }

func (f *fakeStore) CleanupExpiredSessions(ctx context.Context) error { return nil }

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

// fixedCompleter returns a canned model response.
type fixedCompleter struct{ response string }

func (f *fixedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(0)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestParseHandler_Parse(t *testing.T) {
	store := &fakeStore{categories: []domain.Category{{ID: "c1", Name: "Dining", MonthlyBudget: 3_000_000}}}
	p := parser.New(&fixedCompleter{response: `{"type":"expense","amount":50000,"description":"coffee","category":"Dining"}`})
	h := NewParseHandler(p, store, newCache(t), nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"text":"coffee 50k"}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result parser.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Expense == nil || result.Expense.Amount != 50000 {
		t.Errorf("result = %+v", result)
	}
}

func TestParseHandler_ParseErrorStillOK(t *testing.T) {
	store := &fakeStore{}
	p := parser.New(&fixedCompleter{response: `not json at all`})
	h := NewParseHandler(p, store, newCache(t), nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"text":"???"}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	// A parse-level failure is data, not an HTTP error.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result parser.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Err == nil {
		t.Errorf("expected error result, got %+v", result)
	}
}

func TestParseHandler_ParseAsync(t *testing.T) {
	store := &fakeStore{}
	p := parser.New(&fixedCompleter{response: `{"type":"expense","amount":50000}`})

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(10, jobStore)
	t.Cleanup(func() { queue.Close() })

	// The worker starts mutating the job as soon as it is published; the
	// response must not depend on reading the job struct back afterwards.
	workerCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	handler := func(ctx context.Context, job jobs.Job) error {
		parseJob := job.(*jobs.ParseInputJob)
		result := p.ParseInput(ctx, parseJob.Text, parseJob.KnownCategories)
		parseJob.Result = &result
		return nil
	}
	if err := queue.Start(workerCtx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h := NewParseHandler(p, store, newCache(t), queue, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/parse/async", strings.NewReader(`{"text":"coffee 50k"}`))
	rec := httptest.NewRecorder()
	h.ParseAsync(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("response missing job_id")
	}
	if resp.Status != string(jobs.JobStatusPending) {
		t.Errorf("status = %q, want %q (publish-time status)", resp.Status, jobs.JobStatusPending)
	}

	// The job itself completes with the parse result attached.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobStore.GetJob(context.Background(), resp.JobID)
		if err == nil && job.Status == jobs.JobStatusCompleted {
			if job.Result == nil || job.Result.Expense == nil || job.Result.Expense.Amount != 50000 {
				t.Fatalf("completed job result = %+v", job.Result)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestParseHandler_EmptyText(t *testing.T) {
	h := NewParseHandler(parser.New(&fixedCompleter{}), &fakeStore{}, newCache(t), nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"text":"  "}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	catID := "c1"
	store := &fakeStore{
		categories: []domain.Category{{ID: catID, Name: "Dining", MonthlyBudget: 3_000_000}},
		transactions: []domain.Transaction{
			{ID: "t1", Amount: 2_500_000, CategoryID: &catID},
			{ID: "t2", Amount: 99_000},
		},
	}
	h := NewBudgetHandler(store, newCache(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/budget?year=2024&month=3", nil)
	rec := httptest.NewRecorder()
	h.GetBudget(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Year               int            `json:"year"`
		Month              int            `json:"month"`
		Summary            budget.Summary `json:"summary"`
		UncategorizedSpent float64        `json:"uncategorized_spent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Year != 2024 || resp.Month != 3 {
		t.Errorf("month window = %d-%d", resp.Year, resp.Month)
	}
	if resp.Summary.TotalSpent != 2_500_000 {
		t.Errorf("TotalSpent = %v", resp.Summary.TotalSpent)
	}
	if resp.UncategorizedSpent != 99_000 {
		t.Errorf("UncategorizedSpent = %v", resp.UncategorizedSpent)
	}
	if len(resp.Summary.PerCategory) != 1 || resp.Summary.PerCategory[0].Status != budget.StatusWarning {
		t.Errorf("PerCategory = %+v", resp.Summary.PerCategory)
	}
}

func TestCategoriesHandler_ApplyCommand(t *testing.T) {
	store := &fakeStore{categories: []domain.Category{{ID: "c1", Name: "Dining", MonthlyBudget: 1}}}
	c := newCache(t)
	h := NewCategoriesHandler(store, c, zerolog.Nop())

	// Warm the cache, then check a mutation invalidates it.
	listReq := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	h.ListCategories(httptest.NewRecorder(), listReq)
	h.ListCategories(httptest.NewRecorder(), listReq)
	if store.listCalls != 1 {
		t.Fatalf("listCalls = %d, want 1 (second read from cache)", store.listCalls)
	}

	body := `{"action":"add","name":"Travel","budget":2000000}`
	req := httptest.NewRequest(http.MethodPost, "/api/categories/command", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ApplyCommand(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	h.ListCategories(httptest.NewRecorder(), listReq)
	if store.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2 (cache invalidated by mutation)", store.listCalls)
	}
}

func TestCategoriesHandler_ApplyCommand_RemoveMissing(t *testing.T) {
	h := NewCategoriesHandler(&fakeStore{}, newCache(t), zerolog.Nop())

	body := `{"action":"remove","name":"Ghost"}`
	req := httptest.NewRequest(http.MethodPost, "/api/categories/command", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ApplyCommand(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Ghost") {
		t.Errorf("body = %s, want category name in message", rec.Body.String())
	}
}

func TestCategoriesHandler_ApplyCommand_UnknownAction(t *testing.T) {
	h := NewCategoriesHandler(&fakeStore{}, newCache(t), zerolog.Nop())

	body := `{"action":"delete","name":"Dining"}`
	req := httptest.NewRequest(http.MethodPost, "/api/categories/command", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ApplyCommand(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTransactionsHandler_CreateTransaction(t *testing.T) {
	store := &fakeStore{}
	h := NewTransactionsHandler(store, newCache(t), zerolog.Nop())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"user_id":"u1","amount":50000,"description":"coffee"}`, http.StatusCreated},
		{"valid with date", `{"user_id":"u1","amount":50000,"date":"2024-03-14"}`, http.StatusCreated},
		{"missing user", `{"amount":50000}`, http.StatusBadRequest},
		{"negative amount", `{"user_id":"u1","amount":-5}`, http.StatusBadRequest},
		{"bad date", `{"user_id":"u1","amount":5,"date":"14/03/2024"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateTransaction(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
