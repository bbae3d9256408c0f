package app_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

func TestBuildTrendChart(t *testing.T) {
	var tr domain.Trends
	require.NoError(t, json.Unmarshal([]byte(`{
		"data": [
			{"month": "2024-02", "Insulin": 3, "Abiraterone": "1"},
			{"month": "2024-01", "Insulin": 5},
			{"month": "2024-03", "Abiraterone": 4}
		],
		"products": ["Insulin", "Abiraterone"]
	}`), &tr))

	c := app.BuildTrendChart(tr, 0, 0)
	assert.Equal(t, 800, c.Width)
	assert.Equal(t, 320, c.Height)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, c.Months)
	assert.Equal(t, 5.0, c.Max)
	require.Len(t, c.Series, 2)

	ins := c.Series[0]
	assert.Equal(t, "Insulin", ins.Product)
	assert.Equal(t, app.Palette[0], ins.Color)
	assert.Equal(t, 8.0, ins.Total)
	assert.False(t, ins.Cells[2].Present)
	assert.Len(t, strings.Fields(ins.Points), 2, "missing months are skipped")

	abi := c.Series[1]
	assert.Equal(t, app.Palette[1], abi.Color)
	assert.Equal(t, 5.0, abi.Total)
	assert.False(t, abi.Cells[0].Present)

	assert.Len(t, c.XTicks, 3)
	assert.Len(t, c.YTicks, 5)
	assert.False(t, c.Empty())
}

func TestBuildTrendChart_FallbacksAndPalette(t *testing.T) {
	tr := domain.Trends{Data: []domain.TrendPoint{{Month: "", Counts: map[string]float64{
		"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1,
	}}}}

	c := app.BuildTrendChart(tr, 400, 200)
	assert.Equal(t, []string{"Unknown"}, c.Months)
	require.Len(t, c.Series, 6)
	assert.Equal(t, "a", c.Series[0].Product, "products default to sorted keys")
	assert.Equal(t, app.Palette[0], c.Series[5].Color, "palette cycles")
}

func TestBuildTrendChart_Empty(t *testing.T) {
	c := app.BuildTrendChart(domain.Trends{}, 0, 0)
	assert.True(t, c.Empty())
	assert.Len(t, c.YTicks, 5)
}
