package httpserver

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

var validate = validator.New()

// query parameter names shared by pages, links and the JSON routes
const (
	paramPage    = "page"
	paramSize    = "size"
	paramCountry = "country"
	paramSearch  = "search_text"
	paramProduct = "product"
	paramWinner  = "winner_only"
	paramLang    = "lang"
)

type listParams struct {
	Page       int      `validate:"min=1"`
	Size       int      `validate:"min=1,max=100"`
	Countries  []string `validate:"max=30,dive,len=3,alpha"`
	SearchText string   `validate:"max=200"`
	Product    string   `validate:"max=200"`
	WinnerOnly bool
	Lang       string `validate:"omitempty,len=3,alpha"`
}

// parseListParams reads and validates list parameters. The returned error
// is safe to show to the caller.
func parseListParams(v url.Values, defaultSize int) (listParams, error) {
	p := listParams{
		Page:       1,
		Size:       defaultSize,
		SearchText: strings.TrimSpace(v.Get(paramSearch)),
		Product:    strings.TrimSpace(v.Get(paramProduct)),
		Lang:       strings.ToLower(strings.TrimSpace(v.Get(paramLang))),
	}

	var err error
	if p.Page, err = intParam(v, paramPage, p.Page); err != nil {
		return p, err
	}
	if p.Size, err = intParam(v, paramSize, p.Size); err != nil {
		return p, err
	}
	for _, c := range v[paramCountry] {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			p.Countries = append(p.Countries, c)
		}
	}
	if s := v.Get(paramWinner); s != "" {
		if p.WinnerOnly, err = strconv.ParseBool(s); err != nil {
			return p, fmt.Errorf("%s must be a boolean", paramWinner)
		}
	}

	if err := validate.Struct(p); err != nil {
		return p, describe(err)
	}
	return p, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// describe turns the first validation failure into a short message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Page":
		return fmt.Errorf("page must be 1 or greater")
	case "Size":
		return fmt.Errorf("size must be between 1 and 100")
	case "Countries":
		if fe.Tag() == "max" {
			return fmt.Errorf("too many countries")
		}
		return fmt.Errorf("country must be a 3-letter code, got %q", fe.Value())
	case "SearchText", "Product":
		return fmt.Errorf("%s is too long", strings.ToLower(fe.StructField()))
	case "Lang":
		return fmt.Errorf("lang must be a 3-letter code")
	}
	return fmt.Errorf("invalid %s", strings.ToLower(fe.StructField()))
}

// state rebuilds the list state a page renders from.
func (p listParams) state(src domain.Source) app.ListState {
	s := app.NewListState(src, p.Size)
	s.Cursor.Page = p.Page
	s.Filters = app.Filters{
		SearchText: p.SearchText,
		Countries:  p.Countries,
		Product:    p.Product,
		WinnerOnly: p.WinnerOnly,
	}
	return s
}

// encodeState is the inverse of parseListParams. Defaults are left out so
// links stay short.
func encodeState(s app.ListState, defaultSize int, lang string) url.Values {
	v := url.Values{}
	if s.Cursor.Page > 1 {
		v.Set(paramPage, strconv.Itoa(s.Cursor.Page))
	}
	if s.Cursor.PageSize != defaultSize {
		v.Set(paramSize, strconv.Itoa(s.Cursor.PageSize))
	}
	for _, c := range s.Filters.Countries {
		v.Add(paramCountry, c)
	}
	if s.Filters.SearchText != "" {
		v.Set(paramSearch, s.Filters.SearchText)
	}
	if s.Filters.Product != "" {
		v.Set(paramProduct, s.Filters.Product)
	}
	if s.Filters.WinnerOnly {
		v.Set(paramWinner, "true")
	}
	if lang != "" {
		v.Set(paramLang, lang)
	}
	return v
}

// href is the link that applies a to s.
func href(path string, s app.ListState, a app.Action, defaultSize int, lang string) string {
	v := encodeState(app.Reduce(s, a), defaultSize, lang)
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
