package pnf

import "time"

// monthMarkers labels January..December the way P&F charts print them.
var monthMarkers = [12]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "A", "B", "C"}

// MonthMarker returns the label for a month, or "" for an invalid month.
func MonthMarker(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthMarkers[m-1]
}

// IsMonthMarker reports whether s is one of the twelve month labels.
func IsMonthMarker(s string) bool {
	for _, m := range monthMarkers {
		if m == s {
			return true
		}
	}
	return false
}

// monthChanged returns the marker for t when it opens a new calendar month
// relative to last.
func monthChanged(last, t time.Time) (string, bool) {
	last = last.In(t.Location())
	if t.Year() != last.Year() || t.Month() != last.Month() {
		return MonthMarker(t.Month()), true
	}
	return "", false
}
