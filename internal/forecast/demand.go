package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/salonledger/salonledger/internal/dates"
)

// DemandWindow is the trailing window, in days, of the demand forecast.
const DemandWindow = 60

// Service categories, in classification and tie-break order.
const (
	CategoryCut         = "Corte"
	CategoryColoring    = "Tintura"
	CategoryNails       = "Uñas"
	CategoryHairRemoval = "Depilación"
)

// Categories lists the demand buckets in order.
var Categories = [...]string{CategoryCut, CategoryColoring, CategoryNails, CategoryHairRemoval}

var categoryKeywords = [len(Categories)][]string{
	{"corte"},
	{"tinte", "mechas", "color", "iluminaciones", "keratina"},
	{"manicure", "pedicure", "uñas", "semi"},
	{"depilacion", "cejas", "cera", "bigote"},
}

var foldedKeywords = func() [len(Categories)][]string {
	var out [len(Categories)][]string
	for i, words := range categoryKeywords {
		for _, w := range words {
			out[i] = append(out[i], foldName(w))
		}
	}
	return out
}()

// foldName lowercases s and strips diacritics so "Depilación" matches "depilacion".
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Classify maps a service name to its demand bucket; the first matching
// bucket wins. Names matching no bucket report false.
func Classify(service string) (int, bool) {
	name := foldName(service)
	for i, words := range foldedKeywords {
		for _, w := range words {
			if strings.Contains(name, w) {
				return i, true
			}
		}
	}
	return 0, false
}

// ServiceEvent is one performed service.
type ServiceEvent struct {
	Day     time.Time
	Service string
}

// DemandRow holds the per-category counts of one day.
type DemandRow struct {
	Day    time.Time
	Counts [len(Categories)]float64
}

// MarshalJSON renders {"fecha": ..., "Corte": n, "Tintura": n, ...}.
func (r DemandRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"fecha":`)
	fecha, _ := json.Marshal(dates.Format(r.Day))
	buf.Write(fecha)
	for i, name := range Categories {
		key, _ := json.Marshal(name)
		val, err := json.Marshal(r.Counts[i])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat category form back.
func (r *DemandRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var fecha string
	if err := json.Unmarshal(raw["fecha"], &fecha); err != nil {
		return fmt.Errorf("forecast: demand row fecha: %w", err)
	}
	day, ok := dates.ParseDay(fecha)
	if !ok {
		return fmt.Errorf("forecast: invalid fecha %q", fecha)
	}
	row := DemandRow{Day: day}
	for i, name := range Categories {
		if v, ok := raw[name]; ok {
			if err := json.Unmarshal(v, &row.Counts[i]); err != nil {
				return err
			}
		}
	}
	*r = row
	return nil
}

// DemandForecast is the response shape of the service-demand forecast.
type DemandForecast struct {
	Historical    []DemandRow `json:"historical"`
	Prediction    []DemandRow `json:"prediction"`
	GrowthService *string     `json:"growthService"`
}

// Demand counts categorized services per day over the trailing window, fits
// each category and projects the next week. The fastest-growing category is
// the one with the largest slope; ties go to the earlier category.
func Demand(events []ServiceEvent, today time.Time) DemandForecast {
	cutoff := dates.Day(today).AddDate(0, 0, -DemandWindow)
	byDay := make(map[time.Time]*DemandRow)
	for _, e := range events {
		day := dates.Day(e.Day)
		if day.Before(cutoff) {
			continue
		}
		idx, ok := Classify(e.Service)
		if !ok {
			continue
		}
		row := byDay[day]
		if row == nil {
			row = &DemandRow{Day: day}
			byDay[day] = row
		}
		row.Counts[idx]++
	}

	out := DemandForecast{Historical: []DemandRow{}, Prediction: []DemandRow{}}
	if len(byDay) == 0 {
		return out
	}
	for _, row := range byDay {
		out.Historical = append(out.Historical, *row)
	}
	sort.Slice(out.Historical, func(i, j int) bool { return out.Historical[i].Day.Before(out.Historical[j].Day) })

	last := out.Historical[len(out.Historical)-1].Day
	out.Prediction = make([]DemandRow, Horizon)
	best := 0
	var bestSlope float64
	for c := range Categories {
		series := make([]Point, len(out.Historical))
		for i, row := range out.Historical {
			series[i] = Point{Day: row.Day, Value: row.Counts[c]}
		}
		line := Fit(series)
		if c == 0 || line.Slope > bestSlope {
			best, bestSlope = c, line.Slope
		}
		for i, p := range Project(line, last, Horizon) {
			out.Prediction[i].Day = p.Day
			out.Prediction[i].Counts[c] = p.Value
		}
	}
	growth := Categories[best]
	out.GrowthService = &growth
	return out
}
