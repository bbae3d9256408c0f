package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

const maxCell = 60

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	return t
}

// printState prints the records of s the way its source is shown in the
// dashboard: cards for live search, rows for stored notices.
func printState(w io.Writer, s app.ListState, lang, currency string) error {
	if s.Err != "" {
		_, err := fmt.Fprintf(w, "Error: %s\n", s.Err)
		return err
	}
	if s.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	if s.NoResults() {
		_, err := fmt.Fprintln(w, "No results")
		return err
	}

	if s.Source == domain.SourceLive {
		t := newTable(w, "ID", "Title", "Country", "Buyer", "Published", "Value", "Winner")
		for _, c := range app.ProjectCards(s.Records, lang, currency) {
			t.Append([]string{c.ID, clip(c.Title), c.Country, clip(c.Buyer), c.PublishedOn, c.Value, clip(c.Winner)})
		}
		t.Render()
	} else {
		t := newTable(w, "Publication", "Product", "Country", "Buyer", "Tender value", "Published", "Decision")
		for _, r := range app.ProjectRows(s.Records, currency) {
			t.Append([]string{r.PublicationNumber, clip(r.Product), r.Country, clip(r.Buyer), r.TenderValue, r.PublishedOn, r.DecidedOn})
		}
		t.Render()
	}
	_, err := fmt.Fprintln(w, position(s))
	return err
}

func position(s app.ListState) string {
	out := "Page " + strconv.Itoa(s.Cursor.Page)
	if s.TotalPages > 0 {
		out += " of " + strconv.Itoa(s.TotalPages)
	}
	if f := s.Filters; f.Active() {
		out += fmt.Sprintf(" | countries=%v search=%q product=%q winner-only=%t",
			f.Countries, f.SearchText, f.Product, f.WinnerOnly)
	}
	return out
}

func printTrends(w io.Writer, c app.TrendChart) {
	if c.Empty() {
		fmt.Fprintln(w, "No trend data")
		return
	}
	header := []string{"Month"}
	for _, s := range c.Series {
		header = append(header, s.Product)
	}
	t := newTable(w, header...)
	for i, m := range c.Months {
		row := []string{m}
		for _, s := range c.Series {
			if cell := s.Cells[i]; cell.Present {
				row = append(row, strconv.FormatFloat(cell.Count, 'f', -1, 64))
			} else {
				row = append(row, app.Placeholder)
			}
		}
		t.Append(row)
	}
	footer := []string{"Total"}
	for _, s := range c.Series {
		footer = append(footer, strconv.FormatFloat(s.Total, 'f', -1, 64))
	}
	t.SetFooter(footer)
	t.Render()
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return string(r[:maxCell-1]) + "…"
}
