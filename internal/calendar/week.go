package calendar

import "time"

// Week is an ISO-8601 calendar week. Year is the ISO week-numbering year, so
// the first days of January can belong to the last week of the previous year.
type Week struct {
	Year   int       `json:"year"`
	Number int       `json:"weekNumber"`
	Start  time.Time `json:"start"`
}

// NewWeek returns the week containing t, in t's location.
func NewWeek(t time.Time) Week {
	year, number := t.ISOWeek()
	return Week{Year: year, Number: number, Start: SnapToStart(t, Weekly)}
}

// Same reports whether both weeks carry the same (year, number) identity.
func (w Week) Same(other Week) bool {
	return w.Year == other.Year && w.Number == other.Number
}

// Before orders weeks by identity.
func (w Week) Before(other Week) bool {
	return w.Key().Before(other.Key())
}

// End returns the last nanosecond of the week (Sunday).
func (w Week) End() time.Time {
	return SnapToEnd(w.Start, Weekly)
}

// Previous returns the week before w.
func (w Week) Previous() Week {
	return NewWeek(w.Start.AddDate(0, 0, -7))
}

// Following returns the week after w.
func (w Week) Following() Week {
	return NewWeek(w.Start.AddDate(0, 0, 7))
}

// IsNextWeekOf reports whether w comes immediately after other, across year
// boundaries included.
func (w Week) IsNextWeekOf(other Week) bool {
	return w.Previous().Same(other)
}

// Contains reports whether t falls inside the week.
func (w Week) Contains(t time.Time) bool {
	return NewWeek(t.In(w.Start.Location())).Same(w)
}

// FourWeeks holds four weeks ordered oldest (Week1) to most recent (Week4).
type FourWeeks struct {
	Week1 Week `json:"week1"`
	Week2 Week `json:"week2"`
	Week3 Week `json:"week3"`
	Week4 Week `json:"week4"`
}

// Consecutive reports whether each week directly follows the previous one.
func (f FourWeeks) Consecutive() bool {
	return f.Week2.IsNextWeekOf(f.Week1) &&
		f.Week3.IsNextWeekOf(f.Week2) &&
		f.Week4.IsNextWeekOf(f.Week3)
}

// LastFourFullWeeks returns the four most recent complete weeks as of date.
// A date that is not a Sunday belongs to a week still in progress, so the
// window ends with the previous week instead.
func LastFourFullWeeks(date time.Time) FourWeeks {
	end := date
	if ISOWeekday(date) != 7 {
		end = date.AddDate(0, 0, -ISOWeekday(date))
	}
	w4 := NewWeek(end)
	w3 := w4.Previous()
	w2 := w3.Previous()
	w1 := w2.Previous()
	return FourWeeks{Week1: w1, Week2: w2, Week3: w3, Week4: w4}
}

// WeekKey is the (year, number) identity of a week, usable as a map key.
type WeekKey struct {
	Year   int `json:"year"`
	Number int `json:"weekNumber"`
}

// Key returns the identity of w.
func (w Week) Key() WeekKey {
	return WeekKey{Year: w.Year, Number: w.Number}
}

// Before orders keys chronologically.
func (k WeekKey) Before(other WeekKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Number < other.Number
}

// WeekOf returns the ISO week identified by key, starting in loc.
func WeekOf(key WeekKey, loc *time.Location) Week {
	jan4 := time.Date(key.Year, time.January, 4, 0, 0, 0, 0, loc)
	monday := jan4.AddDate(0, 0, 1-ISOWeekday(jan4))
	return NewWeek(monday.AddDate(0, 0, (key.Number-1)*7))
}
