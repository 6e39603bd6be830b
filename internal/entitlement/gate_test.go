package entitlement

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fetcherFunc adapta uma função ao contrato de Fetcher
type fetcherFunc func(ctx context.Context, identity string) ([]string, error)

func (f fetcherFunc) Fetch(ctx context.Context, identity string) ([]string, error) {
	return f(ctx, identity)
}

func TestGateKeepsCredentialsIsolated(t *testing.T) {
	byIdentity := map[string][]string{
		"tok-premium": {"Quick Pick", "Deep Dive"},
		"tok-free":    {"Quick Pick"},
	}
	g := NewGate(zap.NewNop(), fetcherFunc(func(_ context.Context, identity string) ([]string, error) {
		return byIdentity[identity], nil
	}), time.Minute)
	ctx := context.Background()

	// a checagem do free intercalada com a do premium nunca enxerga
	// o conjunto do premium
	if !g.Allowed(ctx, "tok-premium", "Deep Dive") {
		t.Fatal("premium credential should have Deep Dive")
	}
	if g.Allowed(ctx, "tok-free", "Deep Dive") {
		t.Fatal("free credential authorized for premium model")
	}
	if !g.Allowed(ctx, "tok-free", "Quick Pick") {
		t.Error("free credential lost the baseline alias")
	}
	if !g.Allowed(ctx, "tok-premium", "Deep Dive") {
		t.Error("premium credential lost Deep Dive after free check")
	}
	if got := g.Current(ctx, "tok-free"); !reflect.DeepEqual(got, []string{"Quick Pick"}) {
		t.Errorf("free current = %v", got)
	}
}

func TestGateIsolationUnderConcurrency(t *testing.T) {
	byIdentity := map[string][]string{
		"tok-premium": {"Quick Pick", "Deep Dive"},
		"tok-free":    {"Quick Pick"},
	}
	g := NewGate(zap.NewNop(), fetcherFunc(func(_ context.Context, identity string) ([]string, error) {
		return byIdentity[identity], nil
	}), time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var leaked bool
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if g.Allowed(ctx, "tok-free", "Deep Dive") {
					mu.Lock()
					leaked = true
					mu.Unlock()
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if !g.Allowed(ctx, "tok-premium", "Deep Dive") {
					mu.Lock()
					leaked = true
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()
	if leaked {
		t.Fatal("entitlement set leaked across credentials")
	}
}

func TestGateRefreshReplacesWholesale(t *testing.T) {
	sets := [][]string{
		{"Quick Pick", "Form Cruncher", "Edge Finder"},
		{"Quick Pick", "Deep Dive"},
	}
	var calls int
	g := NewGate(zap.NewNop(), fetcherFunc(func(context.Context, string) ([]string, error) {
		out := sets[calls]
		calls++
		return out, nil
	}), time.Minute)
	ctx := context.Background()

	g.Refresh(ctx, "tok-1")
	if !g.Allowed(ctx, "tok-1", "Edge Finder") {
		t.Fatal("Edge Finder should be allowed after first refresh")
	}

	// segundo refresh substitui o conjunto por inteiro, nunca mescla
	g.Refresh(ctx, "tok-1")
	if g.Allowed(ctx, "tok-1", "Edge Finder") || g.Allowed(ctx, "tok-1", "Form Cruncher") {
		t.Error("aliases from previous refresh survived the swap")
	}
	if !g.Allowed(ctx, "tok-1", "Deep Dive") || !g.Allowed(ctx, "tok-1", "Quick Pick") {
		t.Errorf("current = %v", g.Current(ctx, "tok-1"))
	}
}

func TestGateFailsClosedOnFetchError(t *testing.T) {
	var fail bool
	var refreshOK []bool
	g := NewGate(zap.NewNop(), fetcherFunc(func(context.Context, string) ([]string, error) {
		if fail {
			return nil, errors.New("billing down")
		}
		return []string{"Quick Pick", "Edge Finder"}, nil
	}), time.Minute)
	g.OnRefresh = func(ok bool) { refreshOK = append(refreshOK, ok) }
	ctx := context.Background()

	g.Refresh(ctx, "tok-1")
	if !g.Allowed(ctx, "tok-1", "Edge Finder") {
		t.Fatal("Edge Finder should be allowed after successful refresh")
	}

	fail = true
	g.Refresh(ctx, "tok-1")
	if got := g.Current(ctx, "tok-1"); !reflect.DeepEqual(got, []string{DefaultAlias}) {
		t.Errorf("current after failure = %v, want only %q", got, DefaultAlias)
	}
	if !reflect.DeepEqual(refreshOK, []bool{true, false}) {
		t.Errorf("refresh results = %v", refreshOK)
	}
}

func TestGateCachesWithinInterval(t *testing.T) {
	var fetches int
	g := NewGate(zap.NewNop(), fetcherFunc(func(context.Context, string) ([]string, error) {
		fetches++
		return []string{"Quick Pick"}, nil
	}), time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !g.Allowed(ctx, "tok-1", "Quick Pick") {
			t.Fatal("baseline alias missing")
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 (entry fresh for the interval)", fetches)
	}
}

func TestGateReadsDoNotBlockDuringRefresh(t *testing.T) {
	first := true
	started := make(chan struct{})
	release := make(chan struct{})
	g := NewGate(zap.NewNop(), fetcherFunc(func(context.Context, string) ([]string, error) {
		if first {
			first = false
			return []string{"Quick Pick"}, nil
		}
		close(started)
		<-release
		return []string{"Quick Pick", "Edge Finder"}, nil
	}), time.Minute)
	ctx := context.Background()

	g.Refresh(ctx, "tok-1")

	done := make(chan struct{})
	go func() {
		g.Refresh(ctx, "tok-1")
		close(done)
	}()

	<-started
	// refresh em andamento: leituras enxergam o conjunto anterior sem bloquear
	if g.Allowed(ctx, "tok-1", "Edge Finder") {
		t.Error("new set visible before the swap completed")
	}
	if !g.Allowed(ctx, "tok-1", "Quick Pick") {
		t.Error("previous set unavailable during refresh")
	}

	close(release)
	<-done
	if !g.Allowed(ctx, "tok-1", "Edge Finder") {
		t.Error("new set not visible after refresh")
	}
}

func TestBillingClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entitlements" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("credential leaked into query string: %q", r.URL.RawQuery)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer tok-blocked":
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"entitlements":["Quick Pick","Deep Dive"]}`))
		}
	}))
	defer srv.Close()

	c := NewBillingClient(srv.URL)

	got, err := c.Fetch(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Quick Pick", "Deep Dive"}) {
		t.Errorf("entitlements = %v", got)
	}

	if _, err := c.Fetch(context.Background(), "tok-blocked"); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}
