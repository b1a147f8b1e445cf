package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perchstats/api/sources"
)

func row(values ...any) Row {
	r := Row{}
	for _, v := range values {
		r.F = append(r.F, RowField{V: v})
	}
	return r
}

func TestTransformWellFormedRow(t *testing.T) {
	tr := NewTransformer(sources.NewNormalizer())

	records := tr.Transform([]Row{
		row("2024-06-01", "389801252", "Apple_Search_Ads", "1000", "50", "200"),
	})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "2024-06-01", rec.Date)
	assert.Equal(t, "389801252", rec.EntityID)
	assert.Equal(t, "Apple_Search_Ads", rec.TrafficSourceRaw)
	assert.Equal(t, "Apple Search Ads", rec.TrafficSourceDisplay)
	assert.Equal(t, int64(1000), rec.Impressions)
	assert.Equal(t, int64(50), rec.Downloads)
	assert.Equal(t, int64(200), rec.PageViews)
	assert.InDelta(t, 25.0, rec.ConversionRate, 0.0001)
}

func TestTransformNeverFails(t *testing.T) {
	tr := NewTransformer(sources.NewNormalizer())

	records := tr.Transform([]Row{
		{},
		row("2024-06-01"),
		row("2024-06-01", "123", "App_Store_Search"),
		row("2024-06-01", "123", "App_Store_Search", "junk", nil, "-7"),
		row(nil, nil, nil, nil, nil, nil),
	})
	require.Len(t, records, 5)

	for _, rec := range records {
		assert.GreaterOrEqual(t, rec.Impressions, int64(0))
		assert.GreaterOrEqual(t, rec.Downloads, int64(0))
		assert.GreaterOrEqual(t, rec.PageViews, int64(0))
		assert.GreaterOrEqual(t, rec.ConversionRate, 0.0)
		assert.LessOrEqual(t, rec.ConversionRate, 100.0)
	}
}

func TestConversionRateZeroPageViews(t *testing.T) {
	tr := NewTransformer(sources.NewNormalizer())

	records := tr.Transform([]Row{
		row("2024-06-01", "123", "App_Store_Search", "100", "50", "0"),
	})
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].ConversionRate)
}

func TestConversionRateCapped(t *testing.T) {
	tr := NewTransformer(sources.NewNormalizer())

	// More downloads than page views still caps at 100.
	records := tr.Transform([]Row{
		row("2024-06-01", "123", "App_Store_Search", "100", "500", "10"),
	})
	require.Len(t, records, 1)
	assert.Equal(t, 100.0, records[0].ConversionRate)
}

func TestTransformNumericFieldCoercion(t *testing.T) {
	tr := NewTransformer(sources.NewNormalizer())

	records := tr.Transform([]Row{
		row("2024-06-01", float64(123), "App_Store_Search", float64(10), "2.0", "5"),
	})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "123", rec.EntityID)
	assert.Equal(t, int64(10), rec.Impressions)
	assert.Equal(t, int64(2), rec.Downloads)
	assert.Equal(t, int64(5), rec.PageViews)
}
