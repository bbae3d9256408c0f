package app

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"ted_dashboard/internal/domain"
)

const (
	NotAvailable = "N/A"
	Placeholder  = "-"

	DefaultLang     = "eng"
	DefaultCurrency = "EUR"
)

// language fallbacks after the caller's preference
var langFallbacks = []string{"eng", "deu"}

// link fallbacks; links.html is keyed by upper-case codes
var linkFallbacks = []string{"ENG", "DEU"}

/********** text **********/

// TextOf collapses a field of any shape to one display string. It never
// returns "": the worst case is NotAvailable.
func TextOf(f domain.Field, preferredLang string) string {
	if preferredLang == "" {
		preferredLang = DefaultLang
	}
	switch f.Kind() {
	case domain.Scalar:
		return scalarText(f)
	case domain.List:
		return elementText(f.Index(0))
	case domain.Map:
		v, ok := resolveLang(f, preferredLang)
		if !ok {
			return NotAvailable
		}
		if v.Kind() == domain.List {
			v = v.Index(0)
		}
		return elementText(v)
	}
	return NotAvailable
}

func scalarText(f domain.Field) string {
	if s := f.Text(); s != "" {
		return s
	}
	return NotAvailable
}

// elementText renders an already unwrapped value; anything still nested is
// stringified best-effort instead of being unwrapped again.
func elementText(f domain.Field) string {
	switch f.Kind() {
	case domain.Absent:
		return NotAvailable
	case domain.Scalar:
		return scalarText(f)
	}
	if s := RenderAny(f); s != "" {
		return s
	}
	return NotAvailable
}

// resolveLang picks preferred, then eng, then deu, then the first value in
// insertion order. Empty values are skipped.
func resolveLang(m domain.Field, preferred string) (domain.Field, bool) {
	for _, k := range append([]string{preferred}, langFallbacks...) {
		if v, ok := m.Lookup(k); ok && !v.Empty() {
			return v, true
		}
	}
	for _, e := range m.Entries() {
		if !e.Value.Empty() {
			return e.Value, true
		}
	}
	return domain.Field{}, false
}

// RenderAny is the permissive variant used for generic table cells.
// Lists are flattened and joined with ", ". Maps that match no language
// fall back to their first value, and non-scalar fallbacks are shown as raw JSON.
func RenderAny(f domain.Field) string {
	switch f.Kind() {
	case domain.Absent:
		return Placeholder
	case domain.Scalar:
		return f.Text()
	case domain.List:
		parts := make([]string, 0, f.Len())
		for _, it := range f.Items() {
			parts = append(parts, RenderAny(it))
		}
		return strings.Join(parts, ", ")
	}

	for _, k := range langFallbacks {
		if v, ok := f.Lookup(k); ok && !v.Empty() {
			return cellText(v)
		}
	}
	if f.Len() > 0 {
		return cellText(f.Entries()[0].Value)
	}
	return rawJSON(f)
}

// cellText unwraps one list level and shows anything still nested as JSON.
func cellText(v domain.Field) string {
	if v.Kind() == domain.List {
		v = v.Index(0)
	}
	switch v.Kind() {
	case domain.Absent:
		return Placeholder
	case domain.Scalar:
		return v.Text()
	}
	return rawJSON(v)
}

func rawJSON(f domain.Field) string {
	b, err := f.MarshalJSON()
	if err != nil {
		log.Debug().Err(err).Str("context", "RenderAny").Msg("raw field marshal failed")
		return Placeholder
	}
	return string(b)
}

/********** links **********/

// ResolveDocumentLink returns the official notice URL from links.html:
// ENG, then DEU, then the first non-empty entry.
func ResolveDocumentLink(n domain.Notice) (string, bool) {
	html := n.Get(domain.KeyLinks).Get("html")
	if html.Kind() != domain.Map || html.Len() == 0 {
		return "", false
	}
	for _, k := range linkFallbacks {
		if u := linkText(html.Get(k)); u != "" {
			return u, true
		}
	}
	for _, e := range html.Entries() {
		if u := linkText(e.Value); u != "" {
			return u, true
		}
	}
	return "", false
}

func linkText(f domain.Field) string {
	if f.Kind() == domain.List {
		f = f.Index(0)
	}
	return strings.TrimSpace(f.Text())
}

/********** money **********/

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney formats amount in the given ISO currency ("EUR" when empty or
// unknown) using the currency's standard fraction digits. Absent, zero and
// non-numeric amounts yield ok=false; callers render their own placeholder.
func FormatMoney(amount domain.Field, currencyCode string) (string, bool) {
	v, ok := amount.Float()
	if !ok || v == 0 {
		return "", false
	}
	unit := currencyUnit(currencyCode)
	scale, _ := currency.Standard.Rounding(unit)
	return unit.String() + " " + moneyPrinter.Sprint(number.Decimal(v, number.Scale(scale))), true
}

func currencyUnit(code string) currency.Unit {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" {
		if u, err := currency.ParseISO(code); err == nil {
			return u
		}
		log.Debug().Str("currency", code).Msg("unknown currency code, using default")
	}
	return currency.EUR
}

// CurrencyOf reads tender-value-cur, "" when the record has none.
func CurrencyOf(n domain.Notice) string {
	s := TextOf(n.Get(domain.KeyTenderCurrency), DefaultLang)
	if s == NotAvailable {
		return ""
	}
	return s
}

/********** series **********/

// Series reads a numeric list; a numeric scalar counts as a one-element
// series. Non-numeric elements are skipped. Absent yields nil.
func Series(f domain.Field) []float64 {
	switch f.Kind() {
	case domain.Scalar:
		if v, ok := f.Float(); ok {
			return []float64{v}
		}
	case domain.List:
		out := make([]float64, 0, f.Len())
		for _, it := range f.Items() {
			if v, ok := it.Float(); ok {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}

// SumSeries totals values; nil sums to 0.
func SumSeries(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

/********** dates **********/

const (
	DateISO   = "2006-01-02"
	DateShort = "Jan 2, 2006"
)

// FormatDate parses the leading YYYY-MM-DD of a date field (TED dates carry
// an offset suffix, e.g. "2024-03-15+01:00") and renders it with layout.
func FormatDate(f domain.Field, layout string) (string, bool) {
	s := strings.TrimSpace(TextOf(f, DefaultLang))
	if s == NotAvailable || len(s) < len(DateISO) {
		return "", false
	}
	t, err := time.Parse(DateISO, s[:len(DateISO)])
	if err != nil {
		return "", false
	}
	return t.Format(layout), true
}
