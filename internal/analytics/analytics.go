// Package analytics derives performance metrics and trend estimates from
// snapshot histories. Everything here is a pure function over ascending
// slices: no storage, no clock, no mutation of the input.
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/skuznetsov/finvault/internal/models"
)

// ErrInsufficientData is returned when a history is too short for the
// requested computation.
var ErrInsufficientData = errors.New("insufficient data points")

// Direction classifies the movement of a history.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Confidence grades how well a linear trend explains the history.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// stableBandPercent is the percentage-change band treated as flat by
// PerformanceMetrics.
const stableBandPercent = 1.0

// stableSlopeBand is the value-per-day band treated as flat by
// TrendAnalysis.
const stableSlopeBand = 0.1

// valueAtWindow is how far ValueAt will reach for the nearest snapshot.
const valueAtWindow = 7 * 24 * time.Hour

// Metrics summarizes a value history.
type Metrics struct {
	StartValue       float64
	EndValue         float64
	AbsoluteChange   float64
	PercentageChange float64
	Trend            Direction
	Average          float64
	Min              float64
	Max              float64
	StdDev           float64
	Count            int
}

// Trend is an ordinary-least-squares fit over a value history.
type Trend struct {
	SlopePerDay float64
	RSquared    float64
	Direction   Direction
	Confidence  Confidence
}

// GainLoss is the value movement over one lookback period. A zero value
// means the period could not be resolved from the history.
type GainLoss struct {
	PeriodDays  int
	StartValue  float64
	EndValue    float64
	Gain        float64
	GainPercent float64
}

// MonthSummary aggregates one calendar month. The pointers are nil for
// months without snapshots.
type MonthSummary struct {
	Month   time.Month
	Count   int
	Start   *float64
	End     *float64
	Average *float64
	Min     *float64
	Max     *float64
}

// SortAscending returns a copy of the snapshots ordered oldest-first, the
// order every function in this package expects. Ledger queries return
// newest-first, so callers typically pass their result through here.
func SortAscending(snaps []models.Snapshot) []models.Snapshot {
	out := make([]models.Snapshot, len(snaps))
	copy(out, snaps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// PerformanceMetrics computes the summary statistics of an ascending
// history. At least two snapshots are required.
func PerformanceMetrics(snaps []models.Snapshot) (*Metrics, error) {
	if len(snaps) < 2 {
		return nil, ErrInsufficientData
	}

	start := snaps[0].Value
	end := snaps[len(snaps)-1].Value

	m := &Metrics{
		StartValue:     start,
		EndValue:       end,
		AbsoluteChange: end - start,
		Min:            start,
		Max:            start,
		Count:          len(snaps),
	}
	if start != 0 {
		m.PercentageChange = (end - start) / start * 100
	}

	var sum float64
	for i := range snaps {
		v := snaps[i].Value
		sum += v
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
	}
	m.Average = sum / float64(len(snaps))

	var variance float64
	for i := range snaps {
		d := snaps[i].Value - m.Average
		variance += d * d
	}
	m.StdDev = math.Sqrt(variance / float64(len(snaps)))

	switch {
	case m.PercentageChange > stableBandPercent:
		m.Trend = DirectionIncreasing
	case m.PercentageChange < -stableBandPercent:
		m.Trend = DirectionDecreasing
	default:
		m.Trend = DirectionStable
	}
	return m, nil
}

// TrendAnalysis fits value = a + slope*days over an ascending history. At
// least three snapshots are required. When every snapshot shares one
// timestamp there is nothing to regress over and the result is a flat,
// low-confidence trend.
func TrendAnalysis(snaps []models.Snapshot) (*Trend, error) {
	if len(snaps) < 3 {
		return nil, ErrInsufficientData
	}

	n := float64(len(snaps))
	origin := snaps[0].Timestamp

	var sumX, sumY float64
	for i := range snaps {
		sumX += daysSince(origin, snaps[i].Timestamp)
		sumY += snaps[i].Value
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, syy, sxy float64
	for i := range snaps {
		dx := daysSince(origin, snaps[i].Timestamp) - meanX
		dy := snaps[i].Value - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	t := &Trend{Direction: DirectionStable, Confidence: ConfidenceLow}
	if sxx == 0 {
		return t, nil
	}
	t.SlopePerDay = sxy / sxx
	if syy != 0 {
		t.RSquared = (sxy * sxy) / (sxx * syy)
	}

	switch {
	case t.SlopePerDay > stableSlopeBand:
		t.Direction = DirectionIncreasing
	case t.SlopePerDay < -stableSlopeBand:
		t.Direction = DirectionDecreasing
	}
	switch {
	case t.RSquared >= 0.7:
		t.Confidence = ConfidenceHigh
	case t.RSquared >= 0.4:
		t.Confidence = ConfidenceMedium
	}
	return t, nil
}

// ValueAt returns the value of the snapshot nearest to t, as long as it is
// within seven days. ErrInsufficientData when nothing is close enough.
func ValueAt(snaps []models.Snapshot, t time.Time) (float64, error) {
	best := -1
	var bestDist time.Duration
	for i := range snaps {
		d := snaps[i].Timestamp.Sub(t)
		if d < 0 {
			d = -d
		}
		if d > valueAtWindow {
			continue
		}
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best == -1 {
		return 0, ErrInsufficientData
	}
	return snaps[best].Value, nil
}

// GainsLosses computes the movement over the period ending at now. When
// either endpoint cannot be resolved from the history the result is all
// zeros rather than an error, so callers can render a row of dashes.
func GainsLosses(snaps []models.Snapshot, periodDays int, now time.Time) GainLoss {
	g := GainLoss{PeriodDays: periodDays}

	endValue, err := ValueAt(snaps, now)
	if err != nil {
		return g
	}
	startValue, err := ValueAt(snaps, now.AddDate(0, 0, -periodDays))
	if err != nil {
		return g
	}

	g.StartValue = startValue
	g.EndValue = endValue
	g.Gain = endValue - startValue
	if startValue != 0 {
		g.GainPercent = g.Gain / startValue * 100
	}
	return g
}

// MonthlySummary aggregates one calendar year month by month. The returned
// slice always has twelve entries, January first; months without snapshots
// carry nil statistics.
func MonthlySummary(snaps []models.Snapshot, year int) []MonthSummary {
	result := make([]MonthSummary, 12)
	for i := range result {
		result[i].Month = time.Month(i + 1)
	}

	for i := range snaps {
		ts := snaps[i].Timestamp
		if ts.Year() != year {
			continue
		}
		m := &result[int(ts.Month())-1]
		v := snaps[i].Value

		if m.Count == 0 {
			first, avg, low, high := v, v, v, v
			m.Start, m.Average, m.Min, m.Max = &first, &avg, &low, &high
		} else {
			*m.Average = (*m.Average*float64(m.Count) + v) / float64(m.Count+1)
			*m.Min = math.Min(*m.Min, v)
			*m.Max = math.Max(*m.Max, v)
		}
		last := v
		m.End = &last
		m.Count++
	}
	return result
}

func daysSince(origin, t time.Time) float64 {
	return t.Sub(origin).Hours() / 24
}
