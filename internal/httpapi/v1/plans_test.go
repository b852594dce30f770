package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pland/internal/config"
	"pland/internal/eventbus"
	"pland/internal/httpapi"
	v1 "pland/internal/httpapi/v1"
	"pland/internal/plan"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

type planResp struct {
	ID               string   `json:"id"`
	RecommendedOrder []string `json:"recommendedOrder"`
	Warnings         []string `json:"warnings"`
	Schedule         []struct {
		Date        string `json:"date"`
		Allocations []struct {
			Title string  `json:"title"`
			Hours float64 `json:"hours"`
		} `json:"allocations"`
	} `json:"schedule"`
}

type errResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T) (*httptest.Server, storage.Store, eventbus.Bus) {
	t.Helper()
	st, err := storage.Open(storage.Config{
		Driver: "file",
		Path:   filepath.Join(t.TempDir(), "history.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	bus := eventbus.New()
	h := &v1.Handlers{
		Planner: plan.New(logx.Nop()),
		Store:   st,
		Bus:     bus,
		Log:     logx.Nop(),
	}
	ts := httptest.NewServer(httpapi.NewHandler(config.ServerConfig{}, h))
	t.Cleanup(ts.Close)
	return ts, st, bus
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestCreatePlan(t *testing.T) {
	ts, _, bus := newTestServer(t)

	events, unsub := bus.Subscribe(4)
	defer unsub()

	body := `{
		"tasks": [
			{"title": "setup", "estimatedHours": 4, "dueDate": "2024-01-10"},
			{"title": "build", "estimatedHours": 8, "dueDate": "2024-01-12", "dependencies": ["setup"]}
		],
		"startDate": "2024-01-08"
	}`
	resp := postJSON(t, ts.URL+"/api/v1/plans", body)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(b))
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/api/v1/plans/") {
		t.Fatalf("expected Location header /api/v1/plans/<id>, got %q", loc)
	}

	var pr planResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.ID == "" {
		t.Fatal("missing plan id")
	}
	if len(pr.RecommendedOrder) != 2 || pr.RecommendedOrder[0] != "setup" {
		t.Fatalf("unexpected order: %v", pr.RecommendedOrder)
	}
	if len(pr.Schedule) == 0 || pr.Schedule[0].Date != "2024-01-08" {
		t.Fatalf("unexpected schedule: %+v", pr.Schedule)
	}

	select {
	case e := <-events:
		if e.Type != eventbus.TypePlanComputed {
			t.Fatalf("unexpected event type %q", e.Type)
		}
		entry, ok := e.Data.(storage.PlanEntry)
		if !ok || entry.ID != pr.ID || entry.TaskCount != 2 {
			t.Fatalf("unexpected event payload: %+v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no plan.computed event published")
	}
}

func TestCreatePlanErrorMapping(t *testing.T) {
	ts, _, _ := newTestServer(t)

	cases := []struct {
		name     string
		body     string
		status   int
		kind     string
	}{
		{
			name:   "malformed json",
			body:   `{"tasks": [`,
			status: http.StatusBadRequest,
			kind:   "input_shape",
		},
		{
			name:   "unknown field",
			body:   `{"tasks": [{"title": "a", "estimatedHours": 1, "dueDate": "2024-01-10"}], "color": "red"}`,
			status: http.StatusBadRequest,
			kind:   "input_shape",
		},
		{
			name:   "empty task list",
			body:   `{"tasks": []}`,
			status: http.StatusBadRequest,
			kind:   "input_shape",
		},
		{
			name:   "bad hours",
			body:   `{"tasks": [{"title": "a", "estimatedHours": -1, "dueDate": "2024-01-10"}]}`,
			status: http.StatusUnprocessableEntity,
			kind:   "task_validation",
		},
		{
			name:   "unknown dependency",
			body:   `{"tasks": [{"title": "a", "estimatedHours": 1, "dueDate": "2024-01-10", "dependencies": ["ghost"]}]}`,
			status: http.StatusUnprocessableEntity,
			kind:   "dependency",
		},
		{
			name: "cycle",
			body: `{"tasks": [
				{"title": "a", "estimatedHours": 1, "dueDate": "2024-01-10", "dependencies": ["b"]},
				{"title": "b", "estimatedHours": 1, "dueDate": "2024-01-10", "dependencies": ["a"]}
			]}`,
			status: http.StatusUnprocessableEntity,
			kind:   "cycle",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/v1/plans", tc.body)
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != tc.status {
				b, _ := io.ReadAll(resp.Body)
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.StatusCode, string(b))
			}
			var er errResp
			if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if er.Error != tc.kind {
				t.Fatalf("expected kind %q, got %q (%s)", tc.kind, er.Error, er.Message)
			}
		})
	}
}

func TestGetPlanFromHistory(t *testing.T) {
	ts, st, _ := newTestServer(t)

	entry := storage.PlanEntry{
		ID:           "11111111-2222-3333-4444-555555555555",
		CreatedAt:    time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		TaskCount:    1,
		WarningCount: 0,
		Result:       json.RawMessage(`{"recommendedOrder":["a"],"schedule":[],"warnings":[]}`),
	}
	if err := st.AppendPlan(context.Background(), entry); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/v1/plans/" + entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(b))
	}
	var pr planResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.ID != entry.ID || len(pr.RecommendedOrder) != 1 {
		t.Fatalf("unexpected body: %+v", pr)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/plans/missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown plan, got %d", resp2.StatusCode)
	}
}

func TestListPlans(t *testing.T) {
	ts, st, _ := newTestServer(t)

	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2"} {
		err := st.AppendPlan(context.Background(), storage.PlanEntry{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			TaskCount: i + 1,
			Result:    json.RawMessage(`{}`),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	resp, err := http.Get(ts.URL + "/api/v1/plans")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Items []struct {
			ID        string `json:"id"`
			TaskCount int    `json:"taskCount"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != "p2" {
		t.Fatalf("unexpected list: %+v", list.Items)
	}
}
