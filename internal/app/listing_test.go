package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

func pageOf(ids ...string) domain.NoticePage {
	p := domain.NoticePage{Page: 1, Size: 10, Total: len(ids), TotalPages: 3}
	for _, id := range ids {
		p.Data = append(p.Data, domain.NewNotice(domain.KV(domain.KeyID, domain.Str(id))))
	}
	return p
}

func TestNewListState(t *testing.T) {
	s := app.NewListState(domain.SourceLive, 12)
	assert.Equal(t, 1, s.Cursor.Page)
	assert.Equal(t, 12, s.Cursor.PageSize)
	assert.False(t, s.HasPrev())
	assert.False(t, s.HasNext())

	assert.Equal(t, 10, app.NewListState(domain.SourceStored, 0).Cursor.PageSize)
}

func TestReduce_FilterChangeResetsPage(t *testing.T) {
	filters := []app.Action{
		app.ToggleCountry{Code: "pol"},
		app.SelectCountry{Code: "DEU"},
		app.ToggleProduct{Name: "Insulin"},
		app.SetSearch{Text: "  Abiraterone "},
		app.ToggleWinnerOnly{},
		app.ClearFilters{},
	}
	for _, a := range filters {
		s := app.Reduce(app.NewListState(domain.SourceStored, 10), app.SetPage{N: 2})
		require.Equal(t, 2, s.Query().Page)

		s = app.Reduce(s, a)
		assert.Equal(t, 1, s.Query().Page, "%T must reset the page", a)
	}
}

func TestReduce_Pagination(t *testing.T) {
	s := app.NewListState(domain.SourceStored, 10)

	s = app.Reduce(s, app.PrevPage{})
	assert.Equal(t, 1, s.Cursor.Page, "no page before the first")

	s = app.Reduce(s, app.NextPage{})
	assert.Equal(t, 1, s.Cursor.Page, "next is disabled until total pages is known")

	s = app.ReduceAll(s, app.FetchIssued{Seq: 1}, app.FetchSucceeded{Seq: 1, Page: pageOf("a")})
	require.Equal(t, 3, s.TotalPages)

	s = app.ReduceAll(s, app.NextPage{}, app.NextPage{}, app.NextPage{})
	assert.Equal(t, 3, s.Cursor.Page)
	assert.False(t, s.HasNext())

	s = app.Reduce(s, app.SetPage{N: 0})
	assert.Equal(t, 1, s.Cursor.Page)
}

func TestReduce_Countries(t *testing.T) {
	s := app.NewListState(domain.SourceLive, 12)

	s = app.ReduceAll(s, app.ToggleCountry{Code: "pol"}, app.ToggleCountry{Code: "DEU"})
	assert.Equal(t, []string{"POL", "DEU"}, s.Query().Countries)
	assert.True(t, s.Filters.HasCountry("deu"))

	s = app.Reduce(s, app.ToggleCountry{Code: "POL"})
	assert.Equal(t, []string{"DEU"}, s.Query().Countries)

	s = app.Reduce(s, app.SelectCountry{Code: "FRA"})
	assert.Equal(t, []string{"FRA"}, s.Query().Countries)

	s = app.Reduce(s, app.SelectCountry{Code: "fra"})
	assert.Empty(t, s.Query().Countries, "selecting the active country clears it")

	before := s
	s = app.Reduce(s, app.ToggleCountry{Code: "  "})
	assert.Equal(t, before, s)
}

func TestReduce_DoesNotAliasCountries(t *testing.T) {
	base := app.ReduceAll(app.NewListState(domain.SourceLive, 12),
		app.ToggleCountry{Code: "POL"}, app.ToggleCountry{Code: "DEU"})

	a := app.Reduce(base, app.ToggleCountry{Code: "ITA"})
	b := app.Reduce(base, app.ToggleCountry{Code: "ESP"})

	assert.Equal(t, []string{"POL", "DEU"}, base.Filters.Countries)
	assert.Equal(t, []string{"POL", "DEU", "ITA"}, a.Filters.Countries)
	assert.Equal(t, []string{"POL", "DEU", "ESP"}, b.Filters.Countries)
}

func TestQuery_ProductReplacesSearchText(t *testing.T) {
	s := app.ReduceAll(app.NewListState(domain.SourceStored, 10),
		app.SetSearch{Text: "insulin pens"}, app.ToggleProduct{Name: "Insulin"})
	assert.Equal(t, "Insulin", s.Query().SearchText)

	s = app.Reduce(s, app.ToggleProduct{Name: "Insulin"})
	assert.Equal(t, "insulin pens", s.Query().SearchText)
	assert.True(t, s.Filters.Active())

	s = app.Reduce(s, app.ClearFilters{})
	assert.False(t, s.Filters.Active())
	assert.Equal(t, "", s.Query().SearchText)
}

func TestReduce_StaleResponsesAreIgnored(t *testing.T) {
	s := app.NewListState(domain.SourceLive, 12)
	s = app.ReduceAll(s, app.FetchIssued{Seq: 1}, app.FetchIssued{Seq: 2})

	s = app.Reduce(s, app.FetchSucceeded{Seq: 2, Page: pageOf("b")})
	s = app.Reduce(s, app.FetchSucceeded{Seq: 1, Page: pageOf("a")})

	require.Len(t, s.Records, 1)
	assert.Equal(t, "b", s.Records[0].ID())
	assert.False(t, s.Loading)

	s = app.Reduce(s, app.FetchFailed{Seq: 1, Message: "late failure"})
	assert.Empty(t, s.Err)
	assert.Len(t, s.Records, 1)
}

func TestReduce_FailureClearsRecords(t *testing.T) {
	s := app.ReduceAll(app.NewListState(domain.SourceStored, 10),
		app.FetchIssued{Seq: 1}, app.FetchSucceeded{Seq: 1, Page: pageOf("a", "b")})
	require.Len(t, s.Records, 2)

	s = app.ReduceAll(s, app.FetchIssued{Seq: 2}, app.FetchFailed{Seq: 2, Message: "boom"})
	assert.Empty(t, s.Records)
	assert.Equal(t, "boom", s.Err)
	assert.False(t, s.NoResults(), "an error is not the empty state")

	s = app.ReduceAll(s, app.FetchIssued{Seq: 3})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Err, "issuing a fetch clears the previous error")

	s = app.Reduce(s, app.FetchSucceeded{Seq: 3, Page: domain.NoticePage{}})
	assert.True(t, s.NoResults())
}
