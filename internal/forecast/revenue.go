package forecast

import "time"

// RevenueWindow is the trailing window, in days, of the revenue forecast.
const RevenueWindow = 330

// RevenueForecast is the response shape of the revenue prediction.
type RevenueForecast struct {
	Historical []Point `json:"historical"`
	Prediction []Point `json:"prediction"`
	Trend      string  `json:"trend,omitempty"`
}

// Revenue fits the daily revenue series of the trailing window and projects
// the next week. daily must be sorted by day with one point per day.
func Revenue(daily []Point, today time.Time) RevenueForecast {
	recent := since(daily, today, RevenueWindow)
	if len(recent) == 0 {
		return RevenueForecast{Historical: []Point{}, Prediction: []Point{}}
	}
	line := Fit(recent)
	return RevenueForecast{
		Historical: recent,
		Prediction: Project(line, recent[len(recent)-1].Day, Horizon),
		Trend:      TrendOf(line.Slope),
	}
}
