package warehouse

import (
	"fmt"
	"strconv"

	"perchstats/api/models"
	"perchstats/api/sources"
)

// Positional layout of a search traffic result row.
const (
	fieldDate = iota
	fieldEntity
	fieldTrafficSource
	fieldImpressions
	fieldDownloads
	fieldPageViews
)

// Transformer maps positional warehouse rows into canonical records. It is
// total: malformed rows degrade to zeroed fields instead of failing a batch.
type Transformer struct {
	normalizer *sources.Normalizer
}

func NewTransformer(normalizer *sources.Normalizer) *Transformer {
	return &Transformer{normalizer: normalizer}
}

func (t *Transformer) Transform(rows []Row) []models.CanonicalRecord {
	records := make([]models.CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		raw := fieldString(row, fieldTrafficSource)

		rec := models.CanonicalRecord{
			Date:                 fieldString(row, fieldDate),
			EntityID:             fieldString(row, fieldEntity),
			TrafficSourceRaw:     raw,
			TrafficSourceDisplay: t.normalizer.ToDisplay(raw),
			Impressions:          fieldInt(row, fieldImpressions),
			Downloads:            fieldInt(row, fieldDownloads),
			PageViews:            fieldInt(row, fieldPageViews),
		}
		rec.ConversionRate = conversionRate(rec.Downloads, rec.PageViews)
		records = append(records, rec)
	}
	return records
}

func conversionRate(downloads, pageViews int64) float64 {
	if pageViews == 0 {
		return 0
	}
	rate := float64(downloads) / float64(pageViews) * 100
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

func fieldString(row Row, idx int) string {
	if idx >= len(row.F) || row.F[idx].V == nil {
		return ""
	}
	switch v := row.F[idx].V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// fieldInt reads a counter field; anything unparseable or negative is 0.
func fieldInt(row Row, idx int) int64 {
	if idx >= len(row.F) || row.F[idx].V == nil {
		return 0
	}
	var n int64
	switch v := row.F[idx].V.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Some counters come back as decimals.
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return 0
			}
			parsed = int64(f)
		}
		n = parsed
	case float64:
		n = int64(v)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}
