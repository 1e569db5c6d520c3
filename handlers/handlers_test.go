package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obgclub/capacity-planner/cache"
	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/metrics"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/store"
)

// testScenario is small enough to sweep quickly: one persona of four-person parties
// against 4 two-tops, 6 four-tops and 3 eight-tops. 200 members fit, 400 do not.
func testScenario() models.Scenario {
	s := config.DefaultScenario()
	s.Name = "small-room"
	s.Inventory = models.TableInventory{2: 4, 4: 6, 8: 3}
	s.Schedule = models.OperatingSchedule{
		WeekdayHours:        9,
		WeekendHours:        6,
		WeekdaysPerMonth:    21.65,
		WeekendDaysPerMonth: 8.66,
		BlockHours:          3,
	}
	s.Personas = map[string]models.PersonaProfile{
		"regulars": {
			Share: 1, PricePerVisit: 10, GuestsPerMonth: 2, ReservedVisits: 4, MixedVisits: 0.5,
			GameCheckouts: 1, GroupSize: 4, RetailMonthly: 10, SnackPerVisit: 5,
		},
	}
	s.Candidates = []int{400, 50, 100, 200, 800}
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		CacheTTL:         300,
		SolverTimeoutMS:  5000,
		SweepWorkers:     2,
		MaxCandidates:    10,
		RateLimitWrite:   10,
		RateLimitDefault: 100,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Handler, *httptest.Server) {
	t.Helper()
	h := NewHandler(cfg, testScenario(), opts...)
	srv := httptest.NewServer(h.NewMux())
	t.Cleanup(srv.Close)
	return h, srv
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response, wantStatus int) T {
	t.Helper()
	if resp.StatusCode != wantStatus {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		t.Fatalf("Expected status %d, got %d (%+v)", wantStatus, resp.StatusCode, e)
	}
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantStore string
		wantCache string
	}{
		{name: "no backends", wantStore: "not_configured", wantCache: "not_configured"},
		{name: "memory cache", opts: []Option{WithCache(cache.New(time.Minute))}, wantStore: "not_configured", wantCache: "memory"},
		{name: "file store", opts: []Option{WithStore(newFileStore(t))}, wantStore: "ok", wantCache: "not_configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestServer(t, testConfig(), tt.opts...)

			resp := decode[models.HealthResponse](t, do(t, srv, http.MethodGet, "/api/v1/health", nil), http.StatusOK)
			if resp.Status != "ok" {
				t.Errorf("Expected status ok, got %q", resp.Status)
			}
			if resp.Scenario != "small-room" {
				t.Errorf("Expected scenario small-room, got %q", resp.Scenario)
			}
			if resp.Fingerprint != testScenario().Fingerprint() {
				t.Errorf("Unexpected fingerprint %q", resp.Fingerprint)
			}
			if resp.Store != tt.wantStore || resp.Cache != tt.wantCache {
				t.Errorf("Expected store=%s cache=%s, got store=%s cache=%s", tt.wantStore, tt.wantCache, resp.Store, resp.Cache)
			}
		})
	}
}

func TestPutConfig_ReplacesAndPersists(t *testing.T) {
	fs := newFileStore(t)
	_, srv := newTestServer(t, testConfig(), WithStore(fs))

	next := testScenario()
	next.Inventory = models.TableInventory{4: 10}

	got := decode[models.Scenario](t, do(t, srv, http.MethodPut, "/api/v1/config", next), http.StatusOK)
	if got.Inventory[4] != 10 {
		t.Errorf("Expected 10 four-tops, got %v", got.Inventory)
	}

	active := decode[models.Scenario](t, do(t, srv, http.MethodGet, "/api/v1/config", nil), http.StatusOK)
	if active.Fingerprint() != next.Fingerprint() {
		t.Error("Active scenario was not replaced")
	}

	stored := decode[models.Scenario](t, do(t, srv, http.MethodGet, "/api/v1/scenarios/small-room", nil), http.StatusOK)
	if stored.Inventory[4] != 10 || len(stored.Inventory) != 1 {
		t.Errorf("Stored inventory = %v", stored.Inventory)
	}

	list := decode[models.ScenarioList](t, do(t, srv, http.MethodGet, "/api/v1/scenarios", nil), http.StatusOK)
	if list.Active != "small-room" || len(list.Scenarios) != 1 || list.Scenarios[0] != "small-room" {
		t.Errorf("Unexpected scenario list %+v", list)
	}
}

func TestPutConfig_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		body   func() any
		detail string
	}{
		{
			name: "shares do not sum to one",
			body: func() any {
				s := testScenario()
				p := s.Personas["regulars"]
				p.Share = 0.5
				s.Personas = map[string]models.PersonaProfile{"regulars": p}
				return s
			},
			detail: "share",
		},
		{
			name:   "unknown field",
			body:   func() any { return `{"name": "x", "tables": {}}` },
			detail: "unknown field",
		},
		{
			name:   "malformed JSON",
			body:   func() any { return `{"name":` },
			detail: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestServer(t, testConfig())

			resp := decode[models.ErrorResponse](t, do(t, srv, http.MethodPut, "/api/v1/config", tt.body()), http.StatusBadRequest)
			if !strings.Contains(resp.Details, tt.detail) {
				t.Errorf("Expected details to mention %q, got %q", tt.detail, resp.Details)
			}

			active := decode[models.Scenario](t, do(t, srv, http.MethodGet, "/api/v1/config", nil), http.StatusOK)
			if active.Fingerprint() != testScenario().Fingerprint() {
				t.Error("Invalid config must leave the active scenario unchanged")
			}
		})
	}
}

func TestScenarioStoreRoutes(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		_, srv := newTestServer(t, testConfig())

		list := decode[models.ScenarioList](t, do(t, srv, http.MethodGet, "/api/v1/scenarios", nil), http.StatusOK)
		if len(list.Scenarios) != 0 {
			t.Errorf("Expected no scenarios, got %v", list.Scenarios)
		}
		if resp := do(t, srv, http.MethodGet, "/api/v1/scenarios/other", nil); resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected 503 without a store, got %d", resp.StatusCode)
		}
	})

	t.Run("activate", func(t *testing.T) {
		fs := newFileStore(t)
		other := testScenario()
		other.Name = "big-room"
		other.Inventory = models.TableInventory{4: 20, 8: 6}
		if err := fs.PutScenario(t.Context(), other); err != nil {
			t.Fatalf("PutScenario: %v", err)
		}
		_, srv := newTestServer(t, testConfig(), WithStore(fs))

		decode[models.Scenario](t, do(t, srv, http.MethodPost, "/api/v1/scenarios/big-room/activate", nil), http.StatusOK)

		health := decode[models.HealthResponse](t, do(t, srv, http.MethodGet, "/api/v1/health", nil), http.StatusOK)
		if health.Scenario != "big-room" {
			t.Errorf("Expected big-room to be active, got %q", health.Scenario)
		}
	})

	t.Run("missing and unsafe names", func(t *testing.T) {
		_, srv := newTestServer(t, testConfig(), WithStore(newFileStore(t)))

		if resp := do(t, srv, http.MethodGet, "/api/v1/scenarios/nope", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
		if resp := do(t, srv, http.MethodGet, "/api/v1/scenarios/.hidden", nil); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for unsafe name, got %d", resp.StatusCode)
		}
	})
}

func TestComputeDemand(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	demand := decode[models.DemandVector](t, do(t, srv, http.MethodPost, "/api/v1/demand", models.MembersInput{Members: 100}), http.StatusOK)
	if demand.Members != 100 || demand.BlocksPerMonth != 82 {
		t.Errorf("Expected 100 members over 82 blocks, got %d over %d", demand.Members, demand.BlocksPerMonth)
	}
	if _, ok := demand.ByPersona["regulars"]; !ok {
		t.Error("Expected per-persona attribution for regulars")
	}

	resp := decode[models.ErrorResponse](t, do(t, srv, http.MethodPost, "/api/v1/demand", models.MembersInput{Members: -1}), http.StatusBadRequest)
	if resp.Details == "" {
		t.Error("Expected configuration error details")
	}
}

func TestSolve(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	t.Run("feasible member count", func(t *testing.T) {
		got := decode[models.CandidateResult](t, do(t, srv, http.MethodPost, "/api/v1/solve", map[string]int{"members": 200}), http.StatusOK)
		if !got.Result.Feasible || got.Result.Plan == nil {
			t.Errorf("Expected 200 members to be feasible with a plan, got %s", got.Result.Status)
		}
	})

	t.Run("infeasible member count is diagnosed", func(t *testing.T) {
		got := decode[models.CandidateResult](t, do(t, srv, http.MethodPost, "/api/v1/solve", map[string]int{"members": 800}), http.StatusOK)
		if got.Result.Feasible {
			t.Fatal("Expected 800 members to be infeasible")
		}
		if got.Result.Bottleneck == nil || got.Result.Bottleneck.Summary == "" {
			t.Error("Expected a bottleneck summary")
		}
	})

	t.Run("explicit demand", func(t *testing.T) {
		body := `{"demand": {"reserved": {"4": 2}, "mixed_seats": 3}}`
		got := decode[models.CandidateResult](t, do(t, srv, http.MethodPost, "/api/v1/solve", body), http.StatusOK)
		if !got.Result.Feasible {
			t.Errorf("Expected explicit demand to fit, got %s", got.Result.Status)
		}
	})

	t.Run("both inputs", func(t *testing.T) {
		body := `{"members": 10, "demand": {"reserved": {"4": 1}}}`
		decode[models.ErrorResponse](t, do(t, srv, http.MethodPost, "/api/v1/solve", body), http.StatusBadRequest)
	})

	t.Run("negative demand", func(t *testing.T) {
		body := `{"demand": {"reserved": {"4": -1}}}`
		decode[models.ErrorResponse](t, do(t, srv, http.MethodPost, "/api/v1/solve", body), http.StatusBadRequest)
	})
}

func TestSweep_CachesAndRecordsRuns(t *testing.T) {
	fs := newFileStore(t)
	_, srv := newTestServer(t, testConfig(), WithCache(cache.New(time.Minute)), WithStore(fs))

	body := models.SweepInput{Candidates: []int{400, 50, 100, 200, 800}}
	first := decode[models.SweepResult](t, do(t, srv, http.MethodPost, "/api/v1/capacity/sweep", body), http.StatusOK)
	if first.MaxFeasible == nil || *first.MaxFeasible != 200 {
		t.Fatalf("Expected max feasible 200, got %v", first.MaxFeasible)
	}
	if first.Cached {
		t.Error("First sweep must not be served from cache")
	}

	// Same candidates in another order hit the cache.
	body.Candidates = []int{800, 400, 200, 100, 50}
	second := decode[models.SweepResult](t, do(t, srv, http.MethodPost, "/api/v1/capacity/sweep", body), http.StatusOK)
	if !second.Cached || second.RunID != first.RunID {
		t.Errorf("Expected cached run %s, got cached=%v run=%s", first.RunID, second.Cached, second.RunID)
	}

	runs := decode[[]models.AnalysisRun](t, do(t, srv, http.MethodGet, "/api/v1/runs?scenario=small-room", nil), http.StatusOK)
	if len(runs) != 1 {
		t.Fatalf("Expected one recorded run, got %d", len(runs))
	}
	if runs[0].ID != first.RunID || len(runs[0].Outcomes) != 5 {
		t.Errorf("Unexpected run %+v", runs[0])
	}

	run := decode[models.AnalysisRun](t, do(t, srv, http.MethodGet, "/api/v1/runs/"+first.RunID, nil), http.StatusOK)
	if run.MaxFeasible == nil || *run.MaxFeasible != 200 {
		t.Errorf("Stored run max feasible = %v", run.MaxFeasible)
	}

	if resp := do(t, srv, http.MethodGet, "/api/v1/runs/00000000-0000-0000-0000-000000000000", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown run, got %d", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/api/v1/runs?limit=0", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for limit=0, got %d", resp.StatusCode)
	}
}

func TestRunSweep_ConcurrentCallersAgree(t *testing.T) {
	fs := newFileStore(t)
	h := NewHandler(testConfig(), testScenario(), WithStore(fs))
	scenario := h.activeScenario()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // a cancelled caller still gets the shared result

	const callers = 4
	results := make([]models.SweepResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = h.runSweep(ctx, scenario, []int{100, 200, 400})
		}()
	}
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].MaxFeasible == nil || *results[i].MaxFeasible != 200 {
			t.Errorf("caller %d: expected max feasible 200, got %v", i, results[i].MaxFeasible)
		}
	}

	runs, err := fs.ListRuns(context.Background(), "small-room", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) < 1 || len(runs) > callers {
		t.Errorf("Expected between 1 and %d recorded runs, got %d", callers, len(runs))
	}
}

func TestSweepAndRecord_SkipsCacheOnSolverFailure(t *testing.T) {
	h := NewHandler(testConfig(), testScenario(), WithCache(cache.New(time.Minute)))
	scenario := h.activeScenario()
	key := sweepCacheKey(scenario.Fingerprint(), []int{100, 200})

	// A cancelled solve stops every candidate without a verdict.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sweep, err := h.sweepAndRecord(ctx, scenario, []int{100, 200}, key)
	if err != nil {
		t.Fatalf("sweepAndRecord: %v", err)
	}
	if !sweep.HasSolverFailure() {
		t.Fatalf("Expected solver failures, got %+v", sweep.Candidates)
	}

	var cached models.SweepResult
	if found, _ := h.cache.Get(context.Background(), key, &cached); found {
		t.Error("Sweep with solver failures must not be cached")
	}

	fresh, err := h.runSweep(context.Background(), scenario, []int{100, 200})
	if err != nil {
		t.Fatalf("runSweep: %v", err)
	}
	if fresh.Cached || fresh.HasSolverFailure() {
		t.Errorf("Expected a fresh complete sweep, got cached=%v", fresh.Cached)
	}
	if found, _ := h.cache.Get(context.Background(), key, &cached); !found {
		t.Error("Expected the complete sweep to be cached")
	}
}

func TestSweep_Limits(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCandidates = 2
	_, srv := newTestServer(t, cfg)

	resp := decode[models.ErrorResponse](t, do(t, srv, http.MethodPost, "/api/v1/capacity/sweep", models.SweepInput{Candidates: []int{1, 2, 3}}), http.StatusBadRequest)
	if resp.Error != "Too many candidates" {
		t.Errorf("Unexpected error %q", resp.Error)
	}

	decode[models.ErrorResponse](t, do(t, srv, http.MethodPost, "/api/v1/capacity/sweep", models.SweepInput{Candidates: []int{-5}}), http.StatusBadRequest)
}

func TestGetCapacity_UsesScenarioCandidates(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	sweep := decode[models.SweepResult](t, do(t, srv, http.MethodGet, "/api/v1/capacity", nil), http.StatusOK)
	if len(sweep.Candidates) != 5 {
		t.Fatalf("Expected 5 candidates, got %d", len(sweep.Candidates))
	}
	if sweep.Candidates[0].Members != 50 {
		t.Errorf("Expected candidates in ascending order, first is %d", sweep.Candidates[0].Members)
	}
	if sweep.MaxFeasible == nil || *sweep.MaxFeasible != 200 {
		t.Errorf("Expected max feasible 200, got %v", sweep.MaxFeasible)
	}
}

func TestRunsWithoutStore(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	if resp := do(t, srv, http.MethodGet, "/api/v1/runs", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}
}

func TestGetPlansAndPersonas(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	catalog := decode[models.PlanCatalog](t, do(t, srv, http.MethodGet, "/api/v1/plans", nil), http.StatusOK)
	if len(catalog.Plans) != 3 {
		t.Fatalf("Expected 3 plans, got %d", len(catalog.Plans))
	}
	if catalog.Plans[0].Plan != "basic" {
		t.Errorf("Expected plans in catalog order, first is %q", catalog.Plans[0].Plan)
	}
	if len(catalog.Fit.TopPlans["regulars"]) != 2 {
		t.Errorf("Expected two top plans for regulars, got %v", catalog.Fit.TopPlans["regulars"])
	}

	personas := decode[[]models.PersonaSummary](t, do(t, srv, http.MethodGet, "/api/v1/personas", nil), http.StatusOK)
	if len(personas) != 1 || personas[0].Name != "regulars" {
		t.Fatalf("Unexpected personas %+v", personas)
	}
	if personas[0].BestPlan == "" || personas[0].Ratio <= 0 {
		t.Errorf("Expected a best plan with positive ratio, got %+v", personas[0])
	}
}

func TestGetRevenue(t *testing.T) {
	t.Run("explicit members", func(t *testing.T) {
		_, srv := newTestServer(t, testConfig())

		got := decode[models.RevenueProjection](t, do(t, srv, http.MethodGet, "/api/v1/revenue?members=100", nil), http.StatusOK)
		if got.Members != 100 || len(got.Personas) != 1 || got.Total <= 0 {
			t.Errorf("Unexpected projection %+v", got)
		}
	})

	t.Run("largest feasible", func(t *testing.T) {
		_, srv := newTestServer(t, testConfig())

		got := decode[models.RevenueProjection](t, do(t, srv, http.MethodGet, "/api/v1/revenue", nil), http.StatusOK)
		if got.Members != 200 {
			t.Errorf("Expected projection at 200 members, got %d", got.Members)
		}
	})

	t.Run("nothing feasible", func(t *testing.T) {
		h, srv := newTestServer(t, testConfig())
		s := testScenario()
		s.Candidates = []int{800}
		h.setScenario(s)

		decode[models.ErrorResponse](t, do(t, srv, http.MethodGet, "/api/v1/revenue", nil), http.StatusUnprocessableEntity)
	})

	t.Run("bad members", func(t *testing.T) {
		_, srv := newTestServer(t, testConfig())

		decode[models.ErrorResponse](t, do(t, srv, http.MethodGet, "/api/v1/revenue?members=lots", nil), http.StatusBadRequest)
	})
}

func TestMux_RateLimitsWrites(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitWrite = 1
	_, srv := newTestServer(t, cfg)

	body := map[string]int{"members": 50}
	if resp := do(t, srv, http.MethodPost, "/api/v1/solve", body); resp.StatusCode != http.StatusOK {
		t.Fatalf("First solve should pass, got %d", resp.StatusCode)
	}
	resp := do(t, srv, http.MethodPost, "/api/v1/solve", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Second solve should be limited, got %d", resp.StatusCode)
	}

	// Reads have their own budget.
	if resp := do(t, srv, http.MethodGet, "/api/v1/health", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("Health should not be limited, got %d", resp.StatusCode)
	}
}

func TestMux_Preflight(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	resp := do(t, srv, http.MethodOptions, "/api/v1/capacity/sweep", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestMux_MetricsEndpoint(t *testing.T) {
	_, srv := newTestServer(t, testConfig(), WithMetrics(metrics.New()))

	do(t, srv, http.MethodPost, "/api/v1/solve", map[string]int{"members": 50})

	resp := do(t, srv, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from /metrics, got %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, name := range []string{"capacity_planner_http_requests_total", "capacity_planner_solves_total"} {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Expected %s in /metrics output", name)
		}
	}
}

func TestMux_NoMetricsEndpointWithoutRecorder(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	if resp := do(t, srv, http.MethodGet, "/metrics", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 without a recorder, got %d", resp.StatusCode)
	}
}
