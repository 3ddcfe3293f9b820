package route

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestApplyDefaults(t *testing.T) {
	req := DeliveryRequest{
		Addresses: []Address{
			{Address: "A"},
			{Address: "B", Priority: 4},
		},
	}
	req.ApplyDefaults()

	if req.Addresses[0].Priority != 1 {
		t.Errorf("omitted priority should default to 1, got %d", req.Addresses[0].Priority)
	}
	if req.Addresses[1].Priority != 4 {
		t.Errorf("explicit priority should be kept, got %d", req.Addresses[1].Priority)
	}
}

func TestIdentityRoute(t *testing.T) {
	req := DeliveryRequest{
		Addresses: []Address{
			{Address: "C", Priority: 1},
			{Address: "A", Priority: 5},
			{Address: "B", Priority: 3},
		},
	}
	got := req.IdentityRoute()
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("identity route must preserve input order, got %v", got)
		}
	}
}

func TestExampleValidates(t *testing.T) {
	req := Example()
	if err := validator.New().Struct(req); err != nil {
		t.Errorf("example request must pass validation: %v", err)
	}
	if len(req.Addresses) < 2 {
		t.Errorf("example must carry enough addresses for optimization, got %d", len(req.Addresses))
	}
}

func TestValidation(t *testing.T) {
	v := validator.New()

	cases := []struct {
		name    string
		req     DeliveryRequest
		wantErr bool
	}{
		{"valid", DeliveryRequest{Addresses: []Address{{Address: "A", Priority: 1}}}, false},
		{"no addresses", DeliveryRequest{}, true},
		{"empty address", DeliveryRequest{Addresses: []Address{{Priority: 1}}}, true},
		{"priority too high", DeliveryRequest{Addresses: []Address{{Address: "A", Priority: 6}}}, true},
		{"negative delay", DeliveryRequest{
			Addresses:       []Address{{Address: "A", Priority: 1}},
			WarehouseDelays: map[string]int{"warehouse_1": -5},
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.req)
			if tc.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestRouteResultOptionalFields(t *testing.T) {
	res := RouteResult{OptimizedRoute: []string{"A"}, Explanation: "ok"}
	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{"total_estimated_time", "risk_assessment", "success_probability"} {
		if jsonHasField(t, out, field) {
			t.Errorf("unset %s must be omitted from the wire shape", field)
		}
	}

	res.SuccessProbability = Float(0)
	out, _ = json.Marshal(res)
	if !jsonHasField(t, out, "success_probability") {
		t.Error("an explicit zero estimate must survive marshalling")
	}
}

func jsonHasField(t *testing.T, data []byte, field string) bool {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	_, ok := m[field]
	return ok
}
