package gasprice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

func newGasRPCServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_gasPrice":
			resp["result"] = "0x12a05f200"
		default:
			resp["error"] = map[string]any{"code": -32601, "message": fmt.Sprintf("method not supported in test: %s", req.Method)}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode rpc response: %v", err)
		}
	}))
}

func TestResolveAutoUsesNode(t *testing.T) {
	rpc := newGasRPCServer(t)
	defer rpc.Close()

	got, err := Resolve(context.Background(), "AUTO", rpc.URL)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.String() != "5000000000" {
		t.Fatalf("expected 5 gwei, got %s", got)
	}
}

func TestResolveLiteralValues(t *testing.T) {
	cases := map[string]string{
		"1000":            "1000",
		"1.5gwei":         "1500000000",
		" 3 gwei ":        "3000000000",
		"0.000000001gwei": "1",
	}
	for in, want := range cases {
		got, err := Resolve(context.Background(), in, "")
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("Resolve(%q)=%s want %s", in, got, want)
		}
	}
	if got, err := Resolve(context.Background(), "", ""); err != nil || got != nil {
		t.Fatalf("expected unset gas price, got %v %v", got, err)
	}
}

func TestResolveRejectsBadValues(t *testing.T) {
	for _, in := range []string{"-1", "fast", "0.0000000001gwei", "-2gwei"} {
		if _, err := Resolve(context.Background(), in, ""); !clierr.HasCode(err, clierr.CodeUsage) {
			t.Fatalf("Resolve(%q): expected usage error, got %v", in, err)
		}
	}
	if _, err := Resolve(context.Background(), "auto", ""); !clierr.HasCode(err, clierr.CodeUsage) {
		t.Fatalf("expected auto without rpc to fail, got %v", err)
	}
}
