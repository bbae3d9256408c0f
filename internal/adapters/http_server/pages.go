package httpserver

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"maps"
	"net/http"
	"slices"

	"github.com/rs/zerolog/log"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = loadPages("cards.html", "table.html", "trends.html")

// loadPages gives every page its own copy of the layout so each can define
// "content".
func loadPages(names ...string) map[string]*template.Template {
	base := template.Must(template.ParseFS(templateFS, "templates/layout.html"))
	out := make(map[string]*template.Template, len(names))
	for _, n := range names {
		out[n] = template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+n))
	}
	return out
}

// EU member states, the country filter of the list pages.
var euCountries = []string{
	"AUT", "BEL", "BGR", "HRV", "CYP", "CZE", "DNK", "EST", "FIN",
	"FRA", "DEU", "GRC", "HUN", "IRL", "ITA", "LVA", "LTU", "LUX",
	"MLT", "NLD", "POL", "PRT", "ROU", "SVK", "SVN", "ESP", "SWE",
}

type chip struct {
	Label  string
	Href   string
	Active bool
}

type hiddenField struct{ Name, Value string }

type listView struct {
	Nav   string
	Title string
	Err   string
	Path  string

	State app.ListState
	Cards []app.NoticeCard
	Rows  []app.NoticeRow

	Search    string
	Hidden    []hiddenField
	Countries []chip
	Products  []chip
	Winner    chip
	ClearHref string
	PrevHref  string
	NextHref  string

	lang string
}

type trendsView struct {
	Nav   string
	Title string
	Err   string
	Chart app.TrendChart
}

// pageSpec is what differs between the two list pages.
type pageSpec struct {
	path   string
	nav    string
	title  string
	source domain.Source
	size   int
	// country builds the action a country chip applies
	country func(code string) app.Action
}

func (h *Handlers) cardsPage(w http.ResponseWriter, r *http.Request) {
	v, ok := h.listPage(w, r, pageSpec{
		path: "/", nav: "cards", title: "Live tender search",
		source: domain.SourceLive, size: h.cardSize(),
		country: func(c string) app.Action { return app.ToggleCountry{Code: c} },
	})
	if !ok {
		return
	}
	v.Cards = app.ProjectCards(v.State.Records, v.lang, h.currency())
	render(w, "cards.html", v)
}

func (h *Handlers) tablePage(w http.ResponseWriter, r *http.Request) {
	v, ok := h.listPage(w, r, pageSpec{
		path: "/table", nav: "table", title: "Stored notices",
		source: domain.SourceStored, size: h.tableSize(),
		country: func(c string) app.Action { return app.SelectCountry{Code: c} },
	})
	if !ok {
		return
	}
	v.Rows = app.ProjectRows(v.State.Records, h.currency())
	render(w, "table.html", v)
}

func (h *Handlers) trendsPage(w http.ResponseWriter, r *http.Request) {
	t := h.loadTrends(r.Context())
	render(w, "trends.html", trendsView{Nav: "trends", Title: "Contract trends", Err: t.Error, Chart: t.TrendChart})
}

// listPage loads the state for a list page and derives every link from it.
func (h *Handlers) listPage(w http.ResponseWriter, r *http.Request, pg pageSpec) (listView, bool) {
	p, err := parseListParams(r.URL.Query(), pg.size)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return listView{}, false
	}
	s := h.load(r.Context(), p.state(pg.source))

	link := func(a app.Action) string { return href(pg.path, s, a, pg.size, p.Lang) }

	v := listView{
		Nav:       pg.nav,
		Title:     pg.title,
		Err:       s.Err,
		Path:      pg.path,
		State:     s,
		Search:    s.Filters.SearchText,
		ClearHref: link(app.ClearFilters{}),
		Winner:    chip{Label: "Awarded only", Href: link(app.ToggleWinnerOnly{}), Active: s.Filters.WinnerOnly},
		lang:      h.lang(p),
	}
	if s.HasPrev() {
		v.PrevHref = link(app.PrevPage{})
	}
	if s.HasNext() {
		v.NextHref = link(app.NextPage{})
	}
	for _, c := range euCountries {
		v.Countries = append(v.Countries, chip{Label: c, Href: link(pg.country(c)), Active: s.Filters.HasCountry(c)})
	}
	for _, name := range h.productNames(r.Context()) {
		v.Products = append(v.Products, chip{Label: name, Href: link(app.ToggleProduct{Name: name}), Active: s.Filters.Product == name})
	}

	// the search form resubmits every other filter; a new search starts at page 1
	kept := encodeState(app.Reduce(s, app.SetSearch{Text: ""}), pg.size, p.Lang)
	for _, name := range slices.Sorted(maps.Keys(kept)) {
		if name == paramSearch || name == paramPage {
			continue
		}
		for _, val := range kept[name] {
			v.Hidden = append(v.Hidden, hiddenField{Name: name, Value: val})
		}
	}
	return v, true
}

// productNames feeds the product filter; it is best-effort.
func (h *Handlers) productNames(ctx context.Context) []string {
	t, err := h.Q.Trends(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("product list unavailable")
		return nil
	}
	return t.ProductNames()
}

// render executes into a buffer so a template error never leaves a half-written page.
func render(w http.ResponseWriter, name string, data any) {
	t, ok := pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("unknown page template")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("page", name).Msg("render page failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Str("page", name).Msg("failed to write page")
	}
}
