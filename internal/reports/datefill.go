package reports

import "time"

const dateLayout = "2006-01-02"

// FillDateBuckets normalizes sparse grouped counts into a complete,
// gap-free series over [from, to] inclusive, at calendar-day granularity
// in UTC. In hourly mode it emits one entry per (day, hour 0..23) pair.
// Missing buckets are filled with zero counts; duplicate source entries
// for the same bucket are summed, not overwritten.
func FillDateBuckets(sparse []BucketCount, from, to time.Time, hourly bool) []DatePoint {
	counts := make(map[string]int64, len(sparse))
	for _, b := range sparse {
		counts[bucketKey(b.Date, b.Hour, hourly)] += b.Count
	}

	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var series []DatePoint
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		if hourly {
			for hour := 0; hour < 24; hour++ {
				h := hour
				series = append(series, DatePoint{
					Date:  date,
					Hour:  &h,
					Count: counts[bucketKey(date, hour, true)],
				})
			}
		} else {
			series = append(series, DatePoint{Date: date, Count: counts[date]})
		}
	}
	return series
}

func bucketKey(date string, hour int, hourly bool) string {
	if !hourly {
		return date
	}
	return date + "|" + hourLabel(hour)
}

// hourLabel avoids fmt for the hot per-bucket path.
func hourLabel(h int) string {
	return string([]byte{byte('0' + h/10), byte('0' + h%10)})
}
