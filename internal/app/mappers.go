package app

import (
	"ted_dashboard/internal/domain"
)

/********** card view **********/

// NoticeCard is the render-ready projection used by the live search grid.
type NoticeCard struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Country     string `json:"country"`
	Buyer       string `json:"buyer"`
	PublishedOn string `json:"published_on,omitempty"`
	Value       string `json:"value,omitempty"`
	Winner      string `json:"winner,omitempty"`
	Link        string `json:"link,omitempty"`
}

func ProjectCard(n domain.Notice, lang, defaultCurrency string) NoticeCard {
	c := NoticeCard{
		ID:          n.Get(domain.KeyPublicationNumber).Text(),
		Title:       orElse(TextOf(n.Get(domain.KeyTitle), lang), "No Title Available"),
		Description: orElse(TextOf(n.Get(domain.KeyDescription), lang), "No description"),
		Country:     orElse(TextOf(n.Get(domain.KeyBuyerCountry), lang), "EU"),
		Buyer:       orElse(TextOf(n.Get(domain.KeyBuyerName), lang), "Unknown Buyer"),
	}
	if c.ID == "" {
		c.ID = n.ID()
	}
	if d, ok := FormatDate(n.Get(domain.KeyPublicationDate), DateShort); ok {
		c.PublishedOn = d
	}
	if v, ok := noticeValue(n, defaultCurrency); ok {
		c.Value = v
	}
	if w := TextOf(n.Get(domain.KeyWinnerName), lang); w != NotAvailable {
		c.Winner = w
	}
	if u, ok := ResolveDocumentLink(n); ok {
		c.Link = u
	}
	return c
}

/********** table view **********/

// NoticeRow is the projection used by the stored notices table.
type NoticeRow struct {
	ID                string `json:"id"`
	PublicationNumber string `json:"publication_number"`
	Product           string `json:"product"`
	Country           string `json:"country"`
	Buyer             string `json:"buyer"`
	TenderValue       string `json:"tender_value"`
	PublishedOn       string `json:"published_on"`
	DecidedOn         string `json:"decided_on"`
}

func ProjectRow(n domain.Notice, defaultCurrency string) NoticeRow {
	country := n.Get(domain.KeyBuyerCountry)
	if country.Empty() {
		country = n.Get(domain.KeyBuyerCountrySub)
	}
	r := NoticeRow{
		ID:                n.ID(),
		PublicationNumber: RenderAny(n.Get(domain.KeyPublicationNumber)),
		Product:           RenderAny(n.Get(domain.KeySearchTerm)),
		Country:           truncateRunes(RenderAny(country), 3),
		Buyer:             RenderAny(n.Get(domain.KeyBuyerName)),
		TenderValue:       Placeholder,
		PublishedOn:       Placeholder,
		DecidedOn:         Placeholder,
	}
	if v, ok := noticeValue(n, defaultCurrency); ok {
		r.TenderValue = v
	}
	if d, ok := FormatDate(n.Get(domain.KeyPublicationDate), DateISO); ok {
		r.PublishedOn = d
	}
	if d, ok := FormatDate(n.Get(domain.KeyDecisionDate), DateISO); ok {
		r.DecidedOn = d
	}
	return r
}

/********** helpers **********/

// noticeValue is the cumulative tender value in the notice's currency.
func noticeValue(n domain.Notice, defaultCurrency string) (string, bool) {
	total := SumSeries(Series(n.Get(domain.KeyTenderValue)))
	cur := CurrencyOf(n)
	if cur == "" {
		cur = defaultCurrency
	}
	return FormatMoney(domain.Num(total), cur)
}

func orElse(s, fallback string) string {
	if s == "" || s == NotAvailable {
		return fallback
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func ProjectCards(ns []domain.Notice, lang, currency string) []NoticeCard {
	out := make([]NoticeCard, 0, len(ns))
	for _, n := range ns {
		out = append(out, ProjectCard(n, lang, currency))
	}
	return out
}

func ProjectRows(ns []domain.Notice, currency string) []NoticeRow {
	out := make([]NoticeRow, 0, len(ns))
	for _, n := range ns {
		out = append(out, ProjectRow(n, currency))
	}
	return out
}
