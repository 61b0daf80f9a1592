package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// DefaultBins is the histogram resolution when none is requested
const DefaultBins = 10

// HistogramBin counts grades in [Lower, Upper). The last bin also includes Upper.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// GradeSummary holds descriptive statistics of the numeric grades
type GradeSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// GradeDistributionReport is the result of GradeDistribution
type GradeDistributionReport struct {
	Status  Status         `json:"status"`
	Bins    []HistogramBin `json:"bins"`
	Summary GradeSummary   `json:"summary"`
	Filter  FilterStats    `json:"filter"`
}

// GradeDistribution builds an equal-width histogram of every numeric grade in the dataset
func GradeDistribution(ds *models.Dataset, bins int) (*GradeDistributionReport, error) {
	if missing := ds.MissingColumns(models.ColumnGrade); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	values, stats := grades(ds.Records())
	report := &GradeDistributionReport{Bins: []HistogramBin{}, Filter: stats}
	if len(values) == 0 {
		report.Status = StatusNoGradeData
		return report, nil
	}
	sort.Float64s(values)

	report.Status = StatusOK
	report.Summary = summarize(values)
	report.Bins = histogram(values, bins)
	return report, nil
}

// summarize expects sorted values
func summarize(values []float64) GradeSummary {
	summary := GradeSummary{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) > 1 {
		summary.StdDev = stat.StdDev(values, nil)
	}

	mid := len(values) / 2
	if len(values)%2 == 0 {
		summary.Median = stat.Mean(values[mid-1:mid+1], nil)
	} else {
		summary.Median = values[mid]
	}
	return summary
}

// histogram expects sorted values
func histogram(values []float64, bins int) []HistogramBin {
	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram uses half-open bins; nudge the last edge so hi is counted.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, values, nil)

	result := make([]HistogramBin, bins)
	for i := range result {
		result[i] = HistogramBin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	result[bins-1].Upper = hi
	return result
}
