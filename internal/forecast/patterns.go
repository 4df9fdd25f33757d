package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/salonledger/salonledger/internal/dates"
)

// Spanish weekday names indexed Monday first.
var weekdayNames = [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

// HeatCell is one day of the revenue heatmap.
type HeatCell struct {
	Date     string  `json:"date"`
	Day      string  `json:"day"`
	DayIndex int     `json:"day_index"`
	Week     int     `json:"week"`
	Value    float64 `json:"value"`
}

// RevenuePatterns is the response shape of the weekday revenue analysis.
type RevenuePatterns struct {
	Heatmap   []HeatCell         `json:"heatmap"`
	Patterns  map[string]float64 `json:"patterns"`
	Inference string             `json:"inference"`
}

// mondayIndex maps time.Weekday onto 0=Monday..6=Sunday.
func mondayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// Patterns builds the heatmap of daily revenue, the mean revenue per weekday
// and a sentence naming the strongest days. daily holds one point per day.
func Patterns(daily []Point) RevenuePatterns {
	if len(daily) == 0 {
		return RevenuePatterns{Heatmap: []HeatCell{}, Patterns: map[string]float64{}, Inference: "Datos insuficientes"}
	}

	var sums [7]float64
	var counts [7]int
	heatmap := make([]HeatCell, 0, len(daily))
	for _, p := range daily {
		idx := mondayIndex(p.Day)
		_, week := p.Day.ISOWeek()
		heatmap = append(heatmap, HeatCell{
			Date:     dates.Format(p.Day),
			Day:      p.Day.Weekday().String(),
			DayIndex: idx,
			Week:     week,
			Value:    p.Value,
		})
		sums[idx] += p.Value
		counts[idx]++
	}

	type dayMean struct {
		index int
		mean  float64
	}
	means := make([]dayMean, 0, 7)
	patterns := make(map[string]float64, 7)
	for i := range sums {
		if counts[i] == 0 {
			continue
		}
		m := sums[i] / float64(counts[i])
		means = append(means, dayMean{index: i, mean: m})
		patterns[weekdayNames[i]] = m
	}
	sort.SliceStable(means, func(i, j int) bool { return means[i].mean > means[j].mean })

	ranked := make([]int, len(means))
	for i, m := range means {
		ranked[i] = m.index
	}
	return RevenuePatterns{Heatmap: heatmap, Patterns: patterns, Inference: inference(ranked)}
}

// inference names the best one or two weekdays; ranked holds weekday
// indexes by descending mean, ties kept in weekday order.
func inference(ranked []int) string {
	switch len(ranked) {
	case 0:
		return "No hay suficientes datos para generar una inferencia."
	case 1:
		return fmt.Sprintf("Basado en todos los datos históricos, el día con mayor probabilidad de altos ingresos es el %s.",
			weekdayNames[ranked[0]])
	default:
		return fmt.Sprintf("Basado en todos los datos históricos, los días con mayor probabilidad de altos ingresos son los %s y %s.",
			weekdayNames[ranked[0]], weekdayNames[ranked[1]])
	}
}
