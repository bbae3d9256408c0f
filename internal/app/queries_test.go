package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

// ---- fakes ----

type fakeSource struct {
	page   domain.NoticePage
	trends domain.Trends
	err    error
	gate   chan struct{} // when set, calls block until closed

	listCalls   atomic.Int32
	liveCalls   atomic.Int32
	trendsCalls atomic.Int32

	mu      sync.Mutex
	queries []domain.NoticeQuery
}

func (f *fakeSource) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) record(q domain.NoticeQuery) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
}

func (f *fakeSource) ListNotices(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	f.listCalls.Add(1)
	f.record(q)
	if err := f.wait(ctx); err != nil {
		return domain.NoticePage{}, err
	}
	return f.page, f.err
}

func (f *fakeSource) SearchLive(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	f.liveCalls.Add(1)
	f.record(q)
	if err := f.wait(ctx); err != nil {
		return domain.NoticePage{}, err
	}
	return f.page, f.err
}

func (f *fakeSource) Trends(ctx context.Context) (domain.Trends, error) {
	f.trendsCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return domain.Trends{}, err
	}
	return f.trends, f.err
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

func onePage(title string) domain.NoticePage {
	return domain.NoticePage{
		Data: []domain.Notice{domain.NewNotice(
			domain.KV(domain.KeyPublicationNumber, domain.Str("100-2024")),
			domain.KV(domain.KeyTitle, domain.MapOf(domain.KV("eng", domain.Str(title)))),
		)},
		Total: 1, Page: 1, Size: 10, TotalPages: 1,
	}
}

func stored(page int) domain.NoticeQuery {
	return domain.NoticeQuery{Source: domain.SourceStored, Page: page, Size: 10}
}

// ---- tests ----

func TestListNotices_CacheMissThenHit(t *testing.T) {
	src := &fakeSource{page: onePage("Insulin supply")}
	cache := &fakeCache{}
	q := app.NewQueryService(src, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	p, err := q.ListNotices(context.Background(), stored(1))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(p.Data) != 1 || app.TextOf(p.Data[0].Get(domain.KeyTitle), "eng") != "Insulin supply" {
		t.Fatalf("unexpected page: %+v", p)
	}

	// Mutate source to ensure second read indeed comes from cache
	src.page = onePage("SHOULD NOT SEE THIS")

	p2, err := q.ListNotices(context.Background(), stored(1))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := app.TextOf(p2.Data[0].Get(domain.KeyTitle), "eng"); got != "Insulin supply" {
		t.Fatalf("expected cached title, got %s", got)
	}
	if n := src.listCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestList_DispatchesOnSource(t *testing.T) {
	src := &fakeSource{page: onePage("x")}
	q := app.NewQueryService(src, nil, 0)

	live := domain.NoticeQuery{Source: domain.SourceLive, Page: 1, Size: 12, Countries: []string{"POL"}}
	if _, err := q.List(context.Background(), live); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := q.List(context.Background(), stored(2)); err != nil {
		t.Fatalf("err: %v", err)
	}
	if src.liveCalls.Load() != 1 || src.listCalls.Load() != 1 {
		t.Fatalf("live=%d list=%d", src.liveCalls.Load(), src.listCalls.Load())
	}
	if !src.queries[0].Equal(live) {
		t.Fatalf("query not forwarded as-is: %+v", src.queries[0])
	}
}

func TestListNotices_DistinctQueriesDistinctKeys(t *testing.T) {
	src := &fakeSource{page: onePage("x")}
	cache := &fakeCache{}
	q := app.NewQueryService(src, cache, time.Minute)

	ctx := context.Background()
	_, _ = q.ListNotices(ctx, stored(1))
	_, _ = q.ListNotices(ctx, stored(2))
	_, _ = q.SearchLive(ctx, domain.NoticeQuery{Page: 1, Size: 10})

	if cache.len() != 3 {
		t.Fatalf("expected 3 cache entries, got %d", cache.len())
	}
}

func TestListNotices_ErrorsAreNotCached(t *testing.T) {
	src := &fakeSource{err: &domain.APIError{Status: 502, Detail: "upstream down"}}
	cache := &fakeCache{}
	q := app.NewQueryService(src, cache, time.Minute)

	_, err := q.ListNotices(context.Background(), stored(1))
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 502 {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
	if app.ErrorMessage(err) != "upstream down" {
		t.Fatalf("unexpected message %q", app.ErrorMessage(err))
	}
	if cache.len() != 0 {
		t.Fatalf("error result was cached")
	}

	src.err = nil
	src.page = onePage("recovered")
	if _, err := q.ListNotices(context.Background(), stored(1)); err != nil {
		t.Fatalf("err after recovery: %v", err)
	}
	if src.listCalls.Load() != 2 {
		t.Fatalf("expected a second upstream call, got %d", src.listCalls.Load())
	}
}

func TestTrends_ConcurrentMissesShareOneCall(t *testing.T) {
	src := &fakeSource{
		trends: domain.Trends{Products: []string{"Insulin"}},
		gate:   make(chan struct{}),
	}
	q := app.NewQueryService(src, nil, 0)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := q.Trends(context.Background())
			if err == nil && len(tr.Products) != 1 {
				err = errors.New("missing products")
			}
			errs <- err
		}()
	}

	// let every caller join the in-flight call before releasing it
	deadline := time.Now().Add(2 * time.Second)
	for src.trendsCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	if n := src.trendsCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}
