package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/config"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
)

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"chain_id": "eip155:56", "router": "0x1"}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"chain_id"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["chain_id"] != "eip155:56" {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["router"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderSelectDottedPath(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data: map[string]any{
			"mode": "simple",
			"call": map[string]any{"value": "0", "calldata": "0xdeadbeef"},
		},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"call.calldata", "missing.path"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if out["call.calldata"] != "0xdeadbeef" || len(out) != 1 {
		t.Fatalf("unexpected projection: %s", buf.String())
	}
}

func TestRenderPlainFlattensNestedObjects(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data: map[string]any{
			"mode":   "normal",
			"output": map[string]any{"amount_base_units": "42"},
			"route":  []any{"a", "b"},
		},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := `mode=normal output.amount_base_units=42 route=["a","b"]`
	if got != want {
		t.Fatalf("unexpected plain output:\n got %s\nwant %s", got, want)
	}
}

func TestRenderPlainList(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data:    []model.ChainInfo{{ChainID: "eip155:10", Name: "Optimism"}},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "name=Optimism") {
		t.Fatalf("unexpected plain output: %s", buf.String())
	}
}
