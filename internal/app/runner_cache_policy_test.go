package app

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/cache"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/config"
	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
)

type cachePolicyEnvelope struct {
	Success  bool           `json:"success"`
	Data     map[string]any `json:"data"`
	Warnings []string       `json:"warnings"`
	Meta     struct {
		Cache     model.CacheStatus      `json:"cache"`
		Providers []model.ProviderStatus `json:"providers"`
	} `json:"meta"`
}

func policyKey(amount int64) cache.RouteKey {
	return cache.RouteKey{
		ChainID:  56,
		TokenIn:  common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"),
		TokenOut: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		AmountIn: big.NewInt(amount),
	}
}

func TestRunCachedCommandServesFreshHitWithoutFetch(t *testing.T) {
	state, stdout := newCachePolicyTestState(t, 5*time.Second, false)
	key := policyKey(1)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Minute); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	err := state.runCachedCommand("swap route", key, time.Minute, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		t.Fatal("fetch must not run on a fresh hit")
		return nil, nil, nil, false, nil
	})
	if err != nil {
		t.Fatalf("runCachedCommand failed: %v", err)
	}
	env := decodeCachePolicyEnvelope(t, stdout)
	if env.Data["source"] != "cache" || env.Meta.Cache.Status != "hit" || env.Meta.Cache.Stale {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRunCachedCommandFetchesProviderAfterTTLExpiry(t *testing.T) {
	state, stdout := newCachePolicyTestState(t, 5*time.Minute, false)
	key := policyKey(2)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Second); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	time.Sleep(1200 * time.Millisecond)

	fetchCalls := 0
	err := state.runCachedCommand("swap route", key, time.Second, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		fetchCalls++
		return map[string]any{"source": "provider"}, []model.ProviderStatus{{Name: "kyberswap", Status: "ok", LatencyMS: 1}}, nil, false, nil
	})
	if err != nil {
		t.Fatalf("runCachedCommand failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Fatalf("expected provider fetch after ttl expiry, got calls=%d", fetchCalls)
	}

	env := decodeCachePolicyEnvelope(t, stdout)
	if env.Data["source"] != "provider" {
		t.Fatalf("expected provider data after ttl expiry, got %#v", env.Data)
	}
	if env.Meta.Cache.Status != "write" || env.Meta.Cache.Stale {
		t.Fatalf("expected cache write metadata, got %+v", env.Meta.Cache)
	}
	if len(env.Meta.Providers) != 1 || env.Meta.Providers[0].Name != "kyberswap" {
		t.Fatalf("expected provider metadata in response, got %+v", env.Meta.Providers)
	}
}

func TestRunCachedCommandFallsBackToStaleOnProviderFailure(t *testing.T) {
	state, stdout := newCachePolicyTestState(t, 5*time.Second, false)
	key := policyKey(3)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Second); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	time.Sleep(1200 * time.Millisecond)

	err := state.runCachedCommand("swap route", key, time.Second, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		return nil, []model.ProviderStatus{{Name: "kyberswap", Status: "unavailable", LatencyMS: 1}}, nil, false, clierr.New(clierr.CodeUnavailable, "aggregator unavailable")
	})
	if err != nil {
		t.Fatalf("expected stale fallback success, got error: %v", err)
	}

	env := decodeCachePolicyEnvelope(t, stdout)
	if env.Data["source"] != "cache" {
		t.Fatalf("expected stale cache fallback data, got %#v", env.Data)
	}
	if env.Meta.Cache.Status != "hit" || !env.Meta.Cache.Stale {
		t.Fatalf("expected stale cache hit metadata, got %+v", env.Meta.Cache)
	}
	if !containsWarning(env.Warnings, "route fetch failed; serving stale route within max-stale budget") {
		t.Fatalf("expected stale fallback warning, got %+v", env.Warnings)
	}
}

func TestRunCachedCommandRejectsStaleWhenBeyondMaxStale(t *testing.T) {
	state, _ := newCachePolicyTestState(t, 10*time.Millisecond, false)
	key := policyKey(4)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Second); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	time.Sleep(1300 * time.Millisecond)

	err := state.runCachedCommand("swap route", key, time.Second, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		return nil, nil, nil, false, clierr.New(clierr.CodeUnavailable, "aggregator unavailable")
	})
	if code := clierr.ExitCode(err); code != int(clierr.CodeStale) {
		t.Fatalf("expected stale exit code %d, got %d err=%v", int(clierr.CodeStale), code, err)
	}
	if !strings.Contains(err.Error(), "cached route exceeded stale budget") {
		t.Fatalf("expected stale budget message, got %v", err)
	}
}

func TestRunCachedCommandNoStaleRejectsFallback(t *testing.T) {
	state, _ := newCachePolicyTestState(t, 5*time.Second, true)
	key := policyKey(5)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Second); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	time.Sleep(1200 * time.Millisecond)

	err := state.runCachedCommand("swap route", key, time.Second, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		return nil, nil, nil, false, clierr.New(clierr.CodeRateLimited, "slow down")
	})
	if !clierr.HasCode(err, clierr.CodeStale) {
		t.Fatalf("expected stale error with --no-stale, got %v", err)
	}
}

func TestRunCachedCommandDoesNotFallbackStaleOnUsageFailure(t *testing.T) {
	state, _ := newCachePolicyTestState(t, 5*time.Second, false)
	key := policyKey(6)
	if err := state.cache.Set(key, []byte(`{"source":"cache"}`), time.Second); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}
	time.Sleep(1200 * time.Millisecond)

	err := state.runCachedCommand("swap route", key, time.Second, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		return nil, nil, nil, false, clierr.New(clierr.CodeUsage, "route endpoint must use https")
	})
	if !clierr.HasCode(err, clierr.CodeUsage) {
		t.Fatalf("expected usage error to pass through, got %v", err)
	}
}

func TestRunCachedCommandDoesNotCacheAbsentRoute(t *testing.T) {
	state, stdout := newCachePolicyTestState(t, 5*time.Second, false)
	key := policyKey(7)
	err := state.runCachedCommand("swap route", key, time.Minute, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
		return nil, nil, []string{"no route available"}, false, nil
	})
	if err != nil {
		t.Fatalf("runCachedCommand failed: %v", err)
	}
	env := decodeCachePolicyEnvelope(t, stdout)
	if env.Meta.Cache.Status != "miss" || !containsWarning(env.Warnings, "no route available") {
		t.Fatalf("unexpected envelope %+v", env)
	}
	res, err := state.cache.Get(key, time.Minute)
	if err != nil || res.Hit {
		t.Fatalf("expected absent route to stay uncached, got %+v err=%v", res, err)
	}
}

func newCachePolicyTestState(t *testing.T, maxStale time.Duration, noStale bool) (*runtimeState, *bytes.Buffer) {
	t.Helper()
	tmp := t.TempDir()
	store, err := cache.Open(filepath.Join(tmp, "routes.db"), filepath.Join(tmp, "routes.lock"))
	if err != nil {
		t.Fatalf("open cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	state := &runtimeState{
		runner: &Runner{
			stdout: stdout,
			stderr: stderr,
			now:    time.Now,
		},
		settings: config.Settings{
			OutputMode:   "json",
			Timeout:      2 * time.Second,
			CacheEnabled: true,
			MaxStale:     maxStale,
			NoStale:      noStale,
		},
		log:   zerolog.Nop(),
		cache: store,
	}
	return state, stdout
}

func decodeCachePolicyEnvelope(t *testing.T, buf *bytes.Buffer) cachePolicyEnvelope {
	t.Helper()
	var env cachePolicyEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope failed: %v output=%s", err, buf.String())
	}
	return env
}

func containsWarning(warnings []string, target string) bool {
	for _, warning := range warnings {
		if warning == target {
			return true
		}
	}
	return false
}
