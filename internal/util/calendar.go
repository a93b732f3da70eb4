package util

import "time"

// SecondsPerYear is the length of an average Julian year in seconds.
const SecondsPerYear = 365.25 * 24 * 60 * 60

// YearFraction returns the elapsed time between from and to in years. It is
// never negative.
func YearFraction(from, to time.Time) float64 {
	yf := to.Sub(from).Seconds() / SecondsPerYear
	if yf < 0 {
		return 0
	}
	return yf
}
