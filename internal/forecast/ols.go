// Package forecast fits least-squares trend lines over daily aggregates and
// projects them a week ahead.
package forecast

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/salonledger/salonledger/internal/dates"
)

// Horizon is the number of days projected past the last observation.
const Horizon = 7

// Trend labels.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Point is a daily aggregate.
type Point struct {
	Day   time.Time
	Value float64
}

// MarshalJSON renders the point as {"fecha": "YYYY-MM-DD", "valor": v}.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fecha string  `json:"fecha"`
		Valor float64 `json:"valor"`
	}{dates.Format(p.Day), p.Value})
}

// UnmarshalJSON reads the {"fecha", "valor"} form back.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		Fecha string  `json:"fecha"`
		Valor float64 `json:"valor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	day, ok := dates.ParseDay(raw.Fecha)
	if !ok {
		return fmt.Errorf("forecast: invalid fecha %q", raw.Fecha)
	}
	p.Day, p.Value = day, raw.Valor
	return nil
}

// Line is y = Slope*x + Intercept with x the ordinal day number.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at an ordinal day.
func (l Line) At(ordinal int64) float64 {
	return l.Slope*float64(ordinal) + l.Intercept
}

// Fit computes the ordinary-least-squares line through points. With no
// points the line is zero; with one point (or identical days) the line is
// flat at the mean.
func Fit(points []Point) Line {
	n := len(points)
	switch n {
	case 0:
		return Line{}
	case 1:
		return Line{Intercept: points[0].Value}
	}

	// Ordinals sit around 7.4e5, so the sums are taken about the mean.
	var sumX, sumY float64
	for _, p := range points {
		sumX += float64(dates.Ordinal(p.Day))
		sumY += p.Value
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var sxx, sxy float64
	for _, p := range points {
		dx := float64(dates.Ordinal(p.Day)) - meanX
		sxx += dx * dx
		sxy += dx * (p.Value - meanY)
	}
	if sxx == 0 {
		return Line{Intercept: meanY}
	}
	slope := sxy / sxx
	return Line{Slope: slope, Intercept: meanY - slope*meanX}
}

// Project evaluates line on the days following last, clamping negative
// values to zero.
func Project(line Line, last time.Time, days int) []Point {
	out := make([]Point, 0, days)
	base := dates.Ordinal(last)
	for i := 1; i <= days; i++ {
		ordinal := base + int64(i)
		out = append(out, Point{Day: dates.FromOrdinal(ordinal), Value: max(0, line.At(ordinal))})
	}
	return out
}

// TrendOf labels a slope.
func TrendOf(slope float64) string {
	switch {
	case slope > 0:
		return TrendUp
	case slope < 0:
		return TrendDown
	default:
		return TrendStable
	}
}

// Daily sums observations per calendar day, ascending by day.
func Daily(observations []Point) []Point {
	totals := make(map[time.Time]float64)
	for _, o := range observations {
		day := dates.Day(o.Day)
		totals[day] += o.Value
	}
	out := make([]Point, 0, len(totals))
	for day, v := range totals {
		out = append(out, Point{Day: day, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// since keeps the points on or after today minus window days.
func since(points []Point, today time.Time, window int) []Point {
	cutoff := dates.Day(today).AddDate(0, 0, -window)
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if !p.Day.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
