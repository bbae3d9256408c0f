// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

type Handlers struct {
	Q *app.QueryService

	Lang          string // default display language
	Currency      string // default currency for values without one
	CardPageSize  int
	TablePageSize int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type listResponse[T any] struct {
	Items      []T         `json:"items"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalPages int         `json:"total_pages"`
	Filters    app.Filters `json:"filters"`
	Error      string      `json:"error,omitempty"`
}

type trendsResponse struct {
	app.TrendChart
	Error string `json:"error,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/cards", h.listCards)
		r.Get("/rows", h.listRows)
		r.Get("/trends", h.trends)
	})

	s.mux.Group(func(r chi.Router) {
		r.Use(SecureHeaders)
		r.Get("/", h.cardsPage)
		r.Get("/table", h.tablePage)
		r.Get("/trends", h.trendsPage)
	})
}

func (h *Handlers) lang(p listParams) string {
	if p.Lang != "" {
		return p.Lang
	}
	if h.Lang != "" {
		return h.Lang
	}
	return app.DefaultLang
}

func (h *Handlers) cardSize() int  { return orDefault(h.CardPageSize, 12) }
func (h *Handlers) tableSize() int { return orDefault(h.TablePageSize, 10) }

func orDefault(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

func (h *Handlers) currency() string {
	if h.Currency != "" {
		return h.Currency
	}
	return app.DefaultCurrency
}

// load runs one fetch through the reducer so pages and JSON routes settle
// into the same states the interactive controller produces.
func (h *Handlers) load(ctx context.Context, s app.ListState) app.ListState {
	s = app.Reduce(s, app.FetchIssued{Seq: s.LatestSeq + 1})
	page, err := h.Q.List(ctx, s.Query())
	if err != nil {
		log.Warn().Err(err).Str("query", s.Query().Key()).Msg("list fetch failed")
		return app.Reduce(s, app.FetchFailed{Seq: s.LatestSeq, Message: app.ErrorMessage(err)})
	}
	return app.Reduce(s, app.FetchSucceeded{Seq: s.LatestSeq, Page: page})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with a weak ETag, or 304 when the client already has it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write body")
	}
}

func (h *Handlers) listCards(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query(), h.cardSize())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	s := h.load(r.Context(), p.state(domain.SourceLive))
	writeJSON(w, r, listResponse[app.NoticeCard]{
		Items:      app.ProjectCards(s.Records, h.lang(p), h.currency()),
		Page:       s.Cursor.Page,
		Size:       s.Cursor.PageSize,
		TotalPages: s.TotalPages,
		Filters:    s.Filters,
		Error:      s.Err,
	})
}

func (h *Handlers) listRows(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query(), h.tableSize())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	s := h.load(r.Context(), p.state(domain.SourceStored))
	writeJSON(w, r, listResponse[app.NoticeRow]{
		Items:      app.ProjectRows(s.Records, h.currency()),
		Page:       s.Cursor.Page,
		Size:       s.Cursor.PageSize,
		TotalPages: s.TotalPages,
		Filters:    s.Filters,
		Error:      s.Err,
	})
}

func (h *Handlers) trends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.loadTrends(r.Context()))
}

func (h *Handlers) loadTrends(ctx context.Context) trendsResponse {
	t, err := h.Q.Trends(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("trends fetch failed")
		return trendsResponse{TrendChart: app.BuildTrendChart(domain.Trends{}, 0, 0), Error: app.ErrorMessage(err)}
	}
	return trendsResponse{TrendChart: app.BuildTrendChart(t, 0, 0)}
}
