package forecast

import (
	"fmt"
	"strings"
)

// Insight is a natural-language summary of a prediction, served alongside
// the structured forecast for the dashboards' explanation panel.
type Insight struct {
	Summary     string `json:"summary"`
	GeneratedAt string `json:"generated_at"`
}

// BuildInsight composes a deterministic one-paragraph summary of the
// prediction: overall temperature range, the wettest day, and the trend
// direction across the week.
func BuildInsight(p Prediction) Insight {
	if len(p.Forecast) == 0 {
		return Insight{
			Summary:     "No forecast data is available yet; the model is still accumulating sensor readings.",
			GeneratedAt: p.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	var sb strings.Builder

	lo, hi := rangeOf(p.Forecast)
	fmt.Fprintf(&sb, "Over the next %d days, temperatures are expected to range from %.0f°C to %.0f°C.", len(p.Forecast), lo, hi)

	if day, prob, ok := wettestDay(p.Forecast); ok && prob >= 45 {
		fmt.Fprintf(&sb, " The highest chance of rain is on %s at %d%%; plan for wet conditions around then.", day, prob)
	} else {
		sb.WriteString(" No significant rainfall is expected this week.")
	}

	first, last := p.Forecast[0], p.Forecast[len(p.Forecast)-1]
	if first.TempHighC != nil && last.TempHighC != nil {
		switch {
		case *last.TempHighC-*first.TempHighC >= 2:
			sb.WriteString(" Daytime highs trend warmer toward the end of the week.")
		case *first.TempHighC-*last.TempHighC >= 2:
			sb.WriteString(" Daytime highs trend cooler toward the end of the week.")
		default:
			sb.WriteString(" Daytime highs hold steady through the week.")
		}
	}

	if n := rainyDayCount(p.Forecast); n >= 3 {
		fmt.Fprintf(&sb, " With %d unsettled days ahead, expect changeable weather overall.", n)
	}

	return Insight{
		Summary:     sb.String(),
		GeneratedAt: p.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func rangeOf(entries []Entry) (lo, hi float64) {
	seededLo, seededHi := false, false
	for _, e := range entries {
		if e.TempLowC != nil && (!seededLo || *e.TempLowC < lo) {
			lo = *e.TempLowC
			seededLo = true
		}
		if e.TempHighC != nil && (!seededHi || *e.TempHighC > hi) {
			hi = *e.TempHighC
			seededHi = true
		}
	}
	return lo, hi
}

func wettestDay(entries []Entry) (day string, prob int, ok bool) {
	for _, e := range entries {
		if e.RainProbPct != nil && *e.RainProbPct > prob {
			day, prob, ok = e.Day, *e.RainProbPct, true
		}
	}
	return day, prob, ok
}

// rainyDayCount counts days whose condition label suggests precipitation.
func rainyDayCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if hasAny(strings.ToLower(e.Condition), "rain", "shower", "storm", "drizzle") {
			n++
		}
	}
	return n
}

// hasAny returns true if s contains any of the substrings.
func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
