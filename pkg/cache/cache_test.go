package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/fpgaroute/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "route:a"); err != nil || hit {
		t.Fatalf("Get on empty cache = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "route:a", []byte("result"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "route:a")
	if err != nil || !hit || string(data) != "result" {
		t.Errorf("Get = %q, %v, %v, want result", data, hit, err)
	}

	if err := c.Delete(ctx, "route:a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "route:a"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "route:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get corrupt = %v, %v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs hash equal")
	}
	if got := len(Hash([]byte("hello"))); got != 64 {
		t.Errorf("len(Hash) = %d, want 64", got)
	}

	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if h != Hash([]byte("hello")) {
		t.Errorf("HashFile = %s, want %s", h, Hash([]byte("hello")))
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("HashFile of missing file succeeded")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	r1 := k.RouteKey("g", "n", RouteKeyOpts{MaxIterations: 50})
	r2 := k.RouteKey("g", "n", RouteKeyOpts{MaxIterations: 40})
	r3 := k.RouteKey("g", "m", RouteKeyOpts{MaxIterations: 50})
	if r1 == r2 || r1 == r3 {
		t.Error("different route inputs produced equal keys")
	}
	if r1 != k.RouteKey("g", "n", RouteKeyOpts{MaxIterations: 50}) {
		t.Error("RouteKey is not deterministic")
	}

	a1 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"})
	if a1 == a2 {
		t.Error("different formats produced equal keys")
	}

	d1 := k.DeviceKey(DeviceKeyOpts{Width: 4, Seed: 1})
	d2 := k.DeviceKey(DeviceKeyOpts{Width: 4, Seed: 2})
	if d1 == d2 {
		t.Error("different seeds produced equal keys")
	}
}

func TestKeyType(t *testing.T) {
	k := NewDefaultKeyer()
	scoped := NewScopedKeyer(k, "team:")
	tests := []struct {
		key  string
		want string
	}{
		{k.RouteKey("g", "n", RouteKeyOpts{}), PrefixRoute},
		{k.ArtifactKey("h", ArtifactKeyOpts{}), PrefixArtifact},
		{k.DeviceKey(DeviceKeyOpts{}), PrefixDevice},
		{scoped.RouteKey("g", "n", RouteKeyOpts{}), PrefixRoute},
		{"other", "unknown"},
		{"reroute:x", "unknown"},
	}
	for _, tt := range tests {
		if got := KeyType(tt.key); got != tt.want {
			t.Errorf("KeyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "user:123:")

	key := scoped.RouteKey("g", "n", RouteKeyOpts{})
	if want := "user:123:" + inner.RouteKey("g", "n", RouteKeyOpts{}); key != want {
		t.Errorf("RouteKey = %s, want %s", key, want)
	}
	if got := NewScopedKeyer(nil, "p:").DeviceKey(DeviceKeyOpts{}); got != "p:"+inner.DeviceKey(DeviceKeyOpts{}) {
		t.Errorf("nil inner DeviceKey = %s", got)
	}
}

type recordingHooks struct {
	hits, misses, sets []string
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits = append(h.hits, keyType)
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses = append(h.misses, keyType)
}

func (h *recordingHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.sets = append(h.sets, keyType)
}

func TestInstrumented(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument wrapped twice")
	}

	key := NewDefaultKeyer().RouteKey("g", "n", RouteKeyOpts{})
	c.Get(ctx, key)
	c.Set(ctx, key, []byte("x"), 0)
	c.Get(ctx, key)

	if len(hooks.misses) != 1 || len(hooks.sets) != 1 || len(hooks.hits) != 1 {
		t.Fatalf("hooks = %+v, want one miss, set and hit", hooks)
	}
	if hooks.hits[0] != PrefixRoute {
		t.Errorf("hit key type = %q, want %q", hooks.hits[0], PrefixRoute)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable = false for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error does not unwrap to ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrNetwork.Error())
	}
	if IsRetryable(ErrClosed) {
		t.Error("IsRetryable = true for plain error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrClosed })
	if err != ErrClosed || calls != 1 {
		t.Errorf("permanent: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("transient: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !IsRetryable(err) || calls != retryAttempts {
		t.Errorf("exhausted: err = %v, calls = %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("FPGAROUTE_REDIS_URL")
	if url == "" {
		t.Skip("FPGAROUTE_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "fpgaroute-test:")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	defer c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url", ""); err == nil {
		t.Error("NewRedisCache accepted a bad url")
	}
}
