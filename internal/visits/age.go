package visits

import "time"

// ageExpr computes the user's age in whole years at the moment of the
// visit, directly in SQLite. The boolean month-day comparison subtracts 1
// when the birthday has not yet occurred that year, matching AgeAt.
// Rows where u.birthday is NULL yield NULL.
const ageExpr = "(CAST(strftime('%Y', v.visited_at) AS INTEGER) - CAST(strftime('%Y', u.birthday) AS INTEGER)) - (strftime('%m-%d', v.visited_at) < strftime('%m-%d', u.birthday))"

// AgeAt returns the age in completed years at the given instant. Both
// times are compared in UTC.
func AgeAt(birthday, at time.Time) int {
	birthday = birthday.UTC()
	at = at.UTC()

	years := at.Year() - birthday.Year()
	if at.Month() < birthday.Month() ||
		(at.Month() == birthday.Month() && at.Day() < birthday.Day()) {
		years--
	}
	return years
}
