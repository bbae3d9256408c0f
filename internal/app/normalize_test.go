package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

func field(t *testing.T, raw string) domain.Field {
	t.Helper()
	var f domain.Field
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func TestTextOf(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		lang string
		want string
	}{
		{"absent", `null`, "", "N/A"},
		{"plain string", `"Hospital"`, "", "Hospital"},
		{"empty string", `""`, "", "N/A"},
		{"number", `42`, "", "42"},
		{"zero is a value", `0`, "", "0"},
		{"list takes first", `["DEU","POL"]`, "", "DEU"},
		{"list first absent", `[null,"POL"]`, "", "N/A"},
		{"empty list", `[]`, "", "N/A"},
		{"falls back to english", `{"eng":"Widget"}`, "deu", "Widget"},
		{"preferred wins", `{"eng":"Widget","fra":"Machin"}`, "fra", "Machin"},
		{"german before first", `{"ita":"Coso","deu":"Ding"}`, "eng", "Ding"},
		{"german list unwrapped once", `{"deu":["A","B"]}`, "eng", "A"},
		{"first value in insertion order", `{"pol":"Pierwszy","ita":"Secondo"}`, "eng", "Pierwszy"},
		{"upper-case keys", `{"ENG":"Upper"}`, "eng", "Upper"},
		{"empty value skipped", `{"eng":"","deu":"Ding"}`, "eng", "Ding"},
		{"empty map", `{}`, "", "N/A"},
		{"map of nulls", `{"eng":null}`, "", "N/A"},
		{"no deeper unwrapping", `{"eng":[["x","y"]]}`, "", "x, y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, app.TextOf(field(t, tt.raw), tt.lang))
		})
	}
}

func TestTextOf_ZeroValueField(t *testing.T) {
	assert.Equal(t, "N/A", app.TextOf(domain.Field{}, ""))
}

func TestRenderAny(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"absent", `null`, "-"},
		{"scalar", `"x"`, "x"},
		{"number", `12.5`, "12.5"},
		{"nested lists flatten", `[1,[2,3],"x"]`, "1, 2, 3, x"},
		{"null inside list", `["a",null]`, "a, -"},
		{"empty list", `[]`, ""},
		{"english first", `{"deu":"Ding","eng":"Thing"}`, "Thing"},
		{"german next", `{"fra":"Chose","deu":"Ding"}`, "Ding"},
		{"first value fallback", `{"fra":"Chose","ita":"Coso"}`, "Chose"},
		{"non-scalar fallback is raw", `{"html":{"ENG":"u"}}`, `{"ENG":"u"}`},
		{"empty map is raw", `{}`, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, app.RenderAny(field(t, tt.raw)))
		})
	}
}

func TestResolveDocumentLink(t *testing.T) {
	notice := func(raw string) domain.Notice {
		var n domain.Notice
		require.NoError(t, json.Unmarshal([]byte(raw), &n))
		return n
	}

	u, ok := app.ResolveDocumentLink(notice(`{"links":{"html":{"DEU":"url-d","FRA":"url-f"}}}`))
	assert.True(t, ok)
	assert.Equal(t, "url-d", u)

	u, ok = app.ResolveDocumentLink(notice(`{"links":{"html":{"FRA":"url-f","ENG":"url-e"}}}`))
	assert.True(t, ok)
	assert.Equal(t, "url-e", u)

	u, ok = app.ResolveDocumentLink(notice(`{"links":{"html":{"POL":"","ITA":"url-i"}}}`))
	assert.True(t, ok)
	assert.Equal(t, "url-i", u)

	for _, raw := range []string{`{}`, `{"links":{}}`, `{"links":{"html":{}}}`, `{"links":{"html":"x"}}`} {
		_, ok := app.ResolveDocumentLink(notice(raw))
		assert.False(t, ok, raw)
	}
}

func TestFormatMoney(t *testing.T) {
	_, ok := app.FormatMoney(domain.Num(0), "EUR")
	assert.False(t, ok, "zero is treated as absent")

	_, ok = app.FormatMoney(domain.Field{}, "EUR")
	assert.False(t, ok)

	_, ok = app.FormatMoney(domain.Str("n/a"), "EUR")
	assert.False(t, ok)

	_, ok = app.FormatMoney(domain.Strs("100"), "EUR")
	assert.False(t, ok, "lists are not amounts")

	s, ok := app.FormatMoney(domain.Num(600), "EUR")
	assert.True(t, ok)
	assert.Equal(t, "EUR 600.00", s)

	s, ok = app.FormatMoney(domain.Num(1234.5), "")
	assert.True(t, ok)
	assert.Equal(t, "EUR 1,234.50", s, "empty currency defaults to EUR")

	s, ok = app.FormatMoney(domain.Str("250"), "pln")
	assert.True(t, ok)
	assert.Equal(t, "PLN 250.00", s)

	s, ok = app.FormatMoney(domain.Num(1500), "JPY")
	assert.True(t, ok)
	assert.Equal(t, "JPY 1,500", s)

	s, ok = app.FormatMoney(domain.Num(10), "???")
	assert.True(t, ok)
	assert.Equal(t, "EUR 10.00", s)
}

func TestSumSeries(t *testing.T) {
	assert.Equal(t, 600.0, app.SumSeries([]float64{100, 200, 300}))
	assert.Equal(t, 0.0, app.SumSeries(nil))
	assert.Equal(t, app.SumSeries([]float64{300, 100, 200}), app.SumSeries([]float64{100, 200, 300}))
}

func TestSeries(t *testing.T) {
	assert.Nil(t, app.Series(domain.Field{}))
	assert.Equal(t, []float64{5}, app.Series(domain.Num(5)))
	assert.Equal(t, []float64{1, 2.5}, app.Series(field(t, `[1,"2.5","x",null]`)))
	assert.Nil(t, app.Series(field(t, `{"eng":1}`)))
}

func TestFormatDate(t *testing.T) {
	d, ok := app.FormatDate(domain.Str("2024-03-15+01:00"), app.DateISO)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-15", d)

	d, ok = app.FormatDate(domain.Strs("2024-03-05Z"), app.DateShort)
	assert.True(t, ok)
	assert.Equal(t, "Mar 5, 2024", d)

	_, ok = app.FormatDate(domain.Field{}, app.DateISO)
	assert.False(t, ok)

	_, ok = app.FormatDate(domain.Str("soon"), app.DateISO)
	assert.False(t, ok)
}
