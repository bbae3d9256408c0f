package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"ted_dashboard/internal/domain"
)

const GenericFetchError = "Failed to fetch notices"

// ListFunc fetches one page for a query.
type ListFunc func(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error)

// Controller owns one screen's ListState and issues a fetch whenever the
// derived query changes. Fetches are never cancelled; each carries a
// sequence number and only the most recently issued one can update the
// records.
type Controller struct {
	fetch    ListFunc
	onChange func(ListState)

	mu      sync.Mutex
	state   ListState
	seq     uint64
	version uint64

	nmu      sync.Mutex
	notified uint64

	wg sync.WaitGroup
}

func NewController(initial ListState, fetch ListFunc, onChange func(ListState)) *Controller {
	return &Controller{fetch: fetch, onChange: onChange, state: initial}
}

func (c *Controller) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies a and fetches if the query moved.
func (c *Controller) Dispatch(ctx context.Context, a Action) {
	c.mu.Lock()
	before := c.state.Query()
	c.state = Reduce(c.state, a)
	changed := !c.state.Query().Equal(before)
	c.version++
	snap, ver := c.state, c.version
	c.mu.Unlock()

	if changed {
		c.issue(ctx)
		return
	}
	c.notify(snap, ver)
}

// Refresh re-issues the current query, e.g. after an error.
func (c *Controller) Refresh(ctx context.Context) uint64 { return c.issue(ctx) }

// Wait blocks until every issued fetch has resolved.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) issue(ctx context.Context) uint64 {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = Reduce(c.state, FetchIssued{Seq: seq})
	q := c.state.Query()
	c.version++
	snap, ver := c.state, c.version
	c.mu.Unlock()
	c.notify(snap, ver)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetch(ctx, q)

		var a Action = FetchSucceeded{Seq: seq, Page: page}
		if err != nil {
			a = FetchFailed{Seq: seq, Message: ErrorMessage(err)}
		}

		c.mu.Lock()
		stale := seq < c.state.LatestSeq
		c.state = Reduce(c.state, a)
		c.version++
		snap, ver := c.state, c.version
		c.mu.Unlock()

		if stale {
			log.Debug().Uint64("seq", seq).Uint64("latest", snap.LatestSeq).Msg("discarding stale list response")
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("query", q.Key()).Msg("list fetch failed")
		}
		c.notify(snap, ver)
	}()
	return seq
}

// notify delivers snapshots in version order and drops any that were
// overtaken while waiting.
func (c *Controller) notify(snap ListState, ver uint64) {
	if c.onChange == nil {
		return
	}
	c.nmu.Lock()
	defer c.nmu.Unlock()
	if ver <= c.notified {
		return
	}
	c.notified = ver
	c.onChange(snap)
}

// ErrorMessage is the single user-visible message for a failed fetch:
// the server's detail when it sent one, a generic text otherwise.
func ErrorMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if d := strings.TrimSpace(apiErr.Detail); d != "" {
			return d
		}
	}
	return GenericFetchError
}
