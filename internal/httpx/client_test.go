package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

func TestGetJSONRetriesServerError(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"x"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	var out map[string]any
	if err := client.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out["ok"] != true {
		t.Fatalf("unexpected response: %#v", out)
	}
	if atomic.LoadInt32(&count) != 2 {
		t.Fatalf("expected 2 calls, got %d", count)
	}
}

func TestGetJSONMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		code   clierr.Code
	}{
		{http.StatusTooManyRequests, clierr.CodeRateLimited},
		{http.StatusForbidden, clierr.CodeAuth},
		{http.StatusBadGateway, clierr.CodeUnavailable},
		{http.StatusBadRequest, clierr.CodeUnsupported},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := New(time.Second, 0)
		err := client.GetJSON(context.Background(), srv.URL, nil, &map[string]any{})
		srv.Close()
		if !clierr.HasCode(err, tc.code) {
			t.Fatalf("status %d: expected code %d, got %v", tc.status, tc.code, err)
		}
		apiErr, ok := AsAPIError(err)
		if !ok || apiErr.Status != tc.status {
			t.Fatalf("status %d: expected api error, got %v", tc.status, err)
		}
	}
}

func TestGetJSONDecodesAggregatorErrorBody(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":4008,"message":"route not found"}`))
	}))
	defer srv.Close()

	err := New(time.Second, 2).GetJSON(context.Background(), srv.URL, nil, &map[string]any{})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Code != 4008 || apiErr.Message != "route not found" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "code 4008: route not found") {
		t.Fatalf("expected message to carry aggregator error, got %q", err.Error())
	}
	if atomic.LoadInt32(&count) != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", count)
	}
}

func TestGetJSONFallsBackToBodySnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such chain"))
	}))
	defer srv.Close()

	err := New(time.Second, 0).GetJSON(context.Background(), srv.URL, nil, nil)
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Message != "no such chain" || apiErr.Code != 0 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGetJSONSendsClientIDAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(ClientIDHeader) != "swapcall-test" || r.Header.Get("User-Agent") != UserAgent {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("tokenIn") != "0xabc" || r.URL.Query().Get("chain") != "bsc" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(time.Second, 0).WithClientID("  swapcall-test ")
	var out map[string]any
	if err := client.GetJSON(context.Background(), srv.URL+"?chain=bsc", url.Values{"tokenIn": {"0xabc"}}, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
}

func TestGetJSONLogsRetries(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&count, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	client := New(2*time.Second, 1).WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	var out map[string]any
	if err := client.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), "retrying aggregator request") {
		t.Fatalf("expected retry log, got %q", buf.String())
	}
}
