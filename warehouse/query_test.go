package warehouse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perchstats/api/models"
	"perchstats/api/sources"
)

func testBuilder() *QueryBuilder {
	b := NewQueryBuilder(sources.NewNormalizer(), "proj", "aso_analytics", "search_traffic_daily", 1000)
	b.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestBuildEmptyScope(t *testing.T) {
	_, err := testBuilder().Build(models.QueryFilter{Limit: 50}, nil)
	assert.ErrorIs(t, err, ErrEmptyScope)
}

func TestBuildDefaultWindow(t *testing.T) {
	q, err := testBuilder().Build(models.QueryFilter{Limit: 50}, []string{"123"})
	require.NoError(t, err)

	require.Len(t, q.Parameters, 2)
	assert.Equal(t, "start_date", q.Parameters[0].Name)
	assert.Equal(t, "DATE", q.Parameters[0].ParameterType.Type)
	assert.Equal(t, "2024-05-16", q.Parameters[0].ParameterValue.Value)
	assert.Equal(t, "end_date", q.Parameters[1].Name)
	assert.Equal(t, "2024-06-15", q.Parameters[1].ParameterValue.Value)
}

func TestBuildExplicitWindow(t *testing.T) {
	filter := models.QueryFilter{
		From:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Limit: 10,
	}
	q, err := testBuilder().Build(filter, []string{"123"})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", q.Parameters[0].ParameterValue.Value)
	assert.Equal(t, "2024-01-31", q.Parameters[1].ParameterValue.Value)
}

func TestBuildScopeInlinedAndDatesParameterized(t *testing.T) {
	q, err := testBuilder().Build(models.QueryFilter{Limit: 50}, []string{"123", "456"})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "app_id IN ('123', '456')")
	assert.Contains(t, q.SQL, "date BETWEEN @start_date AND @end_date")
	assert.Contains(t, q.SQL, "ORDER BY date DESC")
	assert.NotContains(t, q.SQL, "2024-", "dates must be bound, not inlined")
}

func TestBuildTrafficSourceClause(t *testing.T) {
	filter := models.QueryFilter{
		TrafficSources: []string{"Apple Search Ads", "App_Store_Search"},
		Limit:          50,
	}
	q, err := testBuilder().Build(filter, []string{"123"})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "traffic_source IN UNNEST(@traffic_sources)")

	require.Len(t, q.Parameters, 3)
	param := q.Parameters[2]
	assert.Equal(t, "traffic_sources", param.Name)
	assert.Equal(t, "ARRAY", param.ParameterType.Type)
	require.NotNil(t, param.ParameterType.ArrayType)
	assert.Equal(t, "STRING", param.ParameterType.ArrayType.Type)

	// Display names are translated to warehouse tokens; tokens pass through.
	require.Len(t, param.ParameterValue.ArrayValues, 2)
	assert.Equal(t, "Apple_Search_Ads", param.ParameterValue.ArrayValues[0].Value)
	assert.Equal(t, "App_Store_Search", param.ParameterValue.ArrayValues[1].Value)
}

func TestBuildNoTrafficSourceClauseWhenEmpty(t *testing.T) {
	q, err := testBuilder().Build(models.QueryFilter{Limit: 50}, []string{"123"})
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "traffic_source")
	assert.Len(t, q.Parameters, 2)
}

func TestBuildLimitHandling(t *testing.T) {
	b := testBuilder()

	q, err := b.Build(models.QueryFilter{Limit: 50}, []string{"123"})
	require.NoError(t, err)
	assert.Equal(t, 50, q.Limit)
	assert.True(t, strings.HasSuffix(q.SQL, "LIMIT 50"))

	q, err = b.Build(models.QueryFilter{Limit: 0}, []string{"123"})
	require.NoError(t, err)
	assert.Equal(t, defaultRowLimit, q.Limit)

	q, err = b.Build(models.QueryFilter{Limit: 99999}, []string{"123"})
	require.NoError(t, err)
	assert.Equal(t, 1000, q.Limit)
}

func TestQuoteLiteralsEscaping(t *testing.T) {
	assert.Equal(t, `'it\'s', 'a\\b'`, quoteLiterals([]string{`it's`, `a\b`}))
}
