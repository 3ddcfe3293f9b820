package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/routelab/optiroute/internal/route"
)

func setupGateway(t *testing.T, agentURL string) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	MountRoutes(r, Dependencies{
		Agent:           NewAgentClient(agentURL, nil),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		DirectTimeout:   2 * time.Second,
		PipelineTimeout: 2 * time.Second,
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postRequest(t *testing.T, url string, req route.DeliveryRequest) *http.Response {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func twoAddresses() route.DeliveryRequest {
	return route.DeliveryRequest{
		Addresses: []route.Address{{Address: "A", Priority: 1}, {Address: "B", Priority: 5}},
	}
}

func TestRootAndHealth(t *testing.T) {
	ts := setupGateway(t, "http://127.0.0.1:0")

	for _, path := range []string{"/", "/health", "/example"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: request failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestExampleShape(t *testing.T) {
	ts := setupGateway(t, "http://127.0.0.1:0")

	resp, err := http.Get(ts.URL + "/example")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Example route.DeliveryRequest `json:"example_request"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(body.Example.Addresses) < 2 {
		t.Errorf("example must itself be a valid optimization request, got %d addresses", len(body.Example.Addresses))
	}
}

func TestOptimizeRoutePassthrough(t *testing.T) {
	const agentReply = `{"optimized_route":["B","A"],"explanation":"priority order","success_probability":9.5}`

	var gotPath string
	var gotReq route.DeliveryRequest
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(agentReply))
	}))
	defer agent.Close()

	ts := setupGateway(t, agent.URL)
	resp := postRequest(t, ts.URL+"/optimize-route", twoAddresses())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != agentReply {
		t.Errorf("gateway must pass the agent reply through verbatim, got %s", body)
	}
	if gotPath != "/optimize" {
		t.Errorf("expected agent path /optimize, got %s", gotPath)
	}
	if len(gotReq.Addresses) != 2 {
		t.Errorf("agent did not receive the forwarded request: %+v", gotReq)
	}
}

func TestOptimizeRoutePipelinePath(t *testing.T) {
	var gotPath string
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"optimized_route":["A","B"],"explanation":"ok"}`))
	}))
	defer agent.Close()

	ts := setupGateway(t, agent.URL)
	resp := postRequest(t, ts.URL+"/optimize-route-crewai", twoAddresses())
	resp.Body.Close()

	if gotPath != "/optimize-crewai" {
		t.Errorf("expected agent path /optimize-crewai, got %s", gotPath)
	}
}

func TestOptimizeRouteValidation(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("agent must not be called for invalid requests")
	}))
	defer agent.Close()

	ts := setupGateway(t, agent.URL)

	cases := []struct {
		name string
		req  route.DeliveryRequest
	}{
		{"no addresses", route.DeliveryRequest{}},
		{"single address", route.DeliveryRequest{Addresses: []route.Address{{Address: "A", Priority: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postRequest(t, ts.URL+"/optimize-route", tc.req)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	resp, err := http.Post(ts.URL+"/optimize-route", "application/json", bytes.NewReader([]byte("{broken")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed json, got %d", resp.StatusCode)
	}
}

func TestOptimizeRouteAgentDown(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	agent.Close() // port is now refusing connections

	ts := setupGateway(t, agent.URL)
	resp := postRequest(t, ts.URL+"/optimize-route", twoAddresses())
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when agent is unreachable, got %d", resp.StatusCode)
	}
}

func TestOptimizeRouteAgentTimeout(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer agent.Close()

	r := chi.NewRouter()
	MountRoutes(r, Dependencies{
		Agent:           NewAgentClient(agent.URL, nil),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		DirectTimeout:   50 * time.Millisecond,
		PipelineTimeout: 50 * time.Millisecond,
	})
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp := postRequest(t, ts.URL+"/optimize-route", twoAddresses())
	resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("expected 504 when agent times out, got %d", resp.StatusCode)
	}
}

func TestOptimizeRouteAgentError(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer agent.Close()

	ts := setupGateway(t, agent.URL)
	resp := postRequest(t, ts.URL+"/optimize-route", twoAddresses())
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 for non-200 agent reply, got %d", resp.StatusCode)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrAgentTimeout},
		{"wrapped deadline", &url.Error{Op: "Post", URL: "http://agent", Err: context.DeadlineExceeded}, ErrAgentTimeout},
		{"connection refused", &url.Error{Op: "Post", URL: "http://agent", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, ErrAgentUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); !errors.Is(got, tc.want) {
				t.Errorf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	plain := errors.New("something else")
	if got := classify(plain); got != plain {
		t.Errorf("unclassified errors must pass through, got %v", got)
	}
}
