package warehouse

import (
	"fmt"
	"strings"
	"time"

	"perchstats/api/models"
	"perchstats/api/sources"
)

const defaultWindowDays = 30
const defaultRowLimit = 100

// QueryParameter et al. mirror the warehouse API's named-parameter JSON.
type QueryParameter struct {
	Name           string         `json:"name"`
	ParameterType  ParameterType  `json:"parameterType"`
	ParameterValue ParameterValue `json:"parameterValue"`
}

type ParameterType struct {
	Type      string         `json:"type"`
	ArrayType *ParameterType `json:"arrayType,omitempty"`
}

type ParameterValue struct {
	Value       string           `json:"value,omitempty"`
	ArrayValues []ParameterValue `json:"arrayValues,omitempty"`
}

type BuiltQuery struct {
	SQL        string
	Parameters []QueryParameter
	Limit      int

	// Resolved window, after defaulting.
	From time.Time
	To   time.Time
}

// QueryBuilder assembles the search traffic query. Entity ids are inlined as
// literals because they only ever come from the server-resolved approval or
// fallback set; every request-influenced value is bound as a named parameter.
type QueryBuilder struct {
	normalizer *sources.Normalizer
	projectID  string
	dataset    string
	table      string
	maxLimit   int
	now        func() time.Time
}

func NewQueryBuilder(normalizer *sources.Normalizer, projectID, dataset, table string, maxLimit int) *QueryBuilder {
	return &QueryBuilder{
		normalizer: normalizer,
		projectID:  projectID,
		dataset:    dataset,
		table:      table,
		maxLimit:   maxLimit,
		now:        time.Now,
	}
}

func (b *QueryBuilder) Build(filter models.QueryFilter, scopeIDs []string) (*BuiltQuery, error) {
	if len(scopeIDs) == 0 {
		return nil, ErrEmptyScope
	}

	from, to := filter.From, filter.To
	if from.IsZero() || to.IsZero() {
		to = b.now().UTC()
		from = to.AddDate(0, 0, -defaultWindowDays)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRowLimit
	}
	if limit > b.maxLimit {
		limit = b.maxLimit
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT date, app_id, traffic_source, impressions, downloads, page_views\n")
	fmt.Fprintf(&sb, "FROM `%s.%s.%s`\n", b.projectID, b.dataset, b.table)
	fmt.Fprintf(&sb, "WHERE app_id IN (%s)\n", quoteLiterals(scopeIDs))
	sb.WriteString("  AND date BETWEEN @start_date AND @end_date\n")

	params := []QueryParameter{
		dateParam("start_date", from),
		dateParam("end_date", to),
	}

	if len(filter.TrafficSources) > 0 {
		sb.WriteString("  AND traffic_source IN UNNEST(@traffic_sources)\n")

		values := make([]ParameterValue, 0, len(filter.TrafficSources))
		for _, src := range filter.TrafficSources {
			values = append(values, ParameterValue{Value: b.normalizer.ToWarehouse(src)})
		}
		params = append(params, QueryParameter{
			Name: "traffic_sources",
			ParameterType: ParameterType{
				Type:      "ARRAY",
				ArrayType: &ParameterType{Type: "STRING"},
			},
			ParameterValue: ParameterValue{ArrayValues: values},
		})
	}

	sb.WriteString("ORDER BY date DESC\n")
	fmt.Fprintf(&sb, "LIMIT %d", limit)

	return &BuiltQuery{SQL: sb.String(), Parameters: params, Limit: limit, From: from, To: to}, nil
}

func dateParam(name string, t time.Time) QueryParameter {
	return QueryParameter{
		Name:           name,
		ParameterType:  ParameterType{Type: "DATE"},
		ParameterValue: ParameterValue{Value: t.Format("2006-01-02")},
	}
}

// quoteLiterals renders a closed id set as single-quoted SQL literals.
func quoteLiterals(ids []string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		escaped := strings.ReplaceAll(id, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `'`, `\'`)
		quoted = append(quoted, "'"+escaped+"'")
	}
	return strings.Join(quoted, ", ")
}
