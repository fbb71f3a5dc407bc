// Package trend compares recent weekly counts against the periods before them.
package trend

import (
	"math"
	"slices"
	"time"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/stats"
)

// MaxPercentage caps the change reported when the previous period was empty.
const MaxPercentage = 9999

const (
	Increase = "increase"
	Decrease = "decrease"
	Stable   = "stable"

	ArrowUp     = "up"
	ArrowDown   = "down"
	ArrowStable = "stable"
)

// Palette maps a direction to a UI colour.
type Palette struct {
	Increase string `json:"increase"`
	Decrease string `json:"decrease"`
	Stable   string `json:"stable"`
}

// DefaultPalette is for metrics where more is better.
var DefaultPalette = Palette{Increase: "green", Decrease: "red", Stable: "yellow"}

// Inverted swaps the increase and decrease colours for metrics where a decrease is good.
func (p Palette) Inverted() Palette {
	return Palette{Increase: p.Decrease, Decrease: p.Increase, Stable: p.Stable}
}

// PaletteFor returns the default palette, inverted when decreaseIsGood.
func PaletteFor(decreaseIsGood bool) Palette {
	if decreaseIsGood {
		return DefaultPalette.Inverted()
	}
	return DefaultPalette
}

// Comparison is one period-over-period change. A zero Comparison (empty Text)
// means there was not enough history to compare.
type Comparison struct {
	Percentage     float64 `json:"percentage"`
	Text           string  `json:"text"`
	ArrowDirection string  `json:"arrowDirection"`
	ArrowColour    string  `json:"arrowColour"`
}

// Computed reports whether the comparison carries a value.
func (c Comparison) Computed() bool {
	return c.Text != ""
}

// Result holds the week, fortnight and four-week comparisons.
type Result struct {
	LastWeek      Comparison `json:"lastWeek"`
	LastTwoWeeks  Comparison `json:"lastTwoWeeks"`
	LastFourWeeks Comparison `json:"lastFourWeeks"`
}

// PercentageChange returns the percentage change from previous to current,
// rounded to 2 decimals. It is 0 when both are zero and capped at MaxPercentage.
func PercentageChange(previous, current float64) float64 {
	if previous == 0 && current == 0 {
		return 0
	}
	if previous == 0 {
		return MaxPercentage
	}
	pct := stats.RoundToDecimalPlaces((current-previous)/previous*100, 2)
	return math.Min(pct, MaxPercentage)
}

// Classify turns a percentage into direction, text and colour.
func Classify(pct float64, palette Palette) Comparison {
	c := Comparison{Percentage: pct}
	switch {
	case pct > 0:
		c.Text, c.ArrowDirection, c.ArrowColour = Increase, ArrowUp, palette.Increase
	case pct < 0:
		c.Text, c.ArrowDirection, c.ArrowColour = Decrease, ArrowDown, palette.Decrease
	default:
		c.Text, c.ArrowDirection, c.ArrowColour = Stable, ArrowStable, palette.Stable
	}
	return c
}

// Compare classifies the change from previous to current.
func Compare(previous, current float64, palette Palette) Comparison {
	return Classify(PercentageChange(previous, current), palette)
}

// FromCounts derives the comparisons from a week to count map. The most recent
// week is treated as the current, incomplete week and never compared. Missing
// weeks between the first and last key count as zero.
func FromCounts(counts map[calendar.WeekKey]int, palette Palette) Result {
	series := contiguous(counts)
	n := len(series)

	var res Result
	if n >= 3 {
		res.LastWeek = Compare(sum(series, n-3, n-2), sum(series, n-2, n-1), palette)
	}
	if n >= 5 {
		res.LastTwoWeeks = Compare(sum(series, n-5, n-3), sum(series, n-3, n-1), palette)
	}
	if n >= 9 {
		res.LastFourWeeks = Compare(sum(series, n-9, n-5), sum(series, n-5, n-1), palette)
	}
	return res
}

// CountByWeek tallies dates into weeks of loc.
func CountByWeek(dates []time.Time, loc *time.Location) map[calendar.WeekKey]int {
	counts := make(map[calendar.WeekKey]int)
	for _, d := range dates {
		counts[calendar.NewWeek(d.In(loc)).Key()]++
	}
	return counts
}

// Fill adds a zero count for every week from the start of period through the
// later of the period's last week and the latest week present in counts.
func Fill(counts map[calendar.WeekKey]int, period calendar.Interval) map[calendar.WeekKey]int {
	loc := period.Start.Location()
	filled := make(map[calendar.WeekKey]int, len(counts))
	last := calendar.NewWeek(period.End)
	for k, v := range counts {
		filled[k] = v
		if last.Key().Before(k) {
			last = calendar.WeekOf(k, loc)
		}
	}
	for w := calendar.NewWeek(period.Start); !last.Before(w); w = w.Following() {
		if _, ok := filled[w.Key()]; !ok {
			filled[w.Key()] = 0
		}
	}
	return filled
}

// Analyse builds the weekly counts of dates over period and compares them.
// An invalid period yields an empty Result.
func Analyse(dates []time.Time, period calendar.Interval, palette Palette) Result {
	if !period.Valid() {
		return Result{}
	}
	counts := CountByWeek(dates, period.Start.Location())
	return FromCounts(Fill(counts, period), palette)
}

func contiguous(counts map[calendar.WeekKey]int) []int {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]calendar.WeekKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b calendar.WeekKey) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})

	var series []int
	last := keys[len(keys)-1]
	for w := calendar.WeekOf(keys[0], time.UTC); !last.Before(w.Key()); w = w.Following() {
		series = append(series, counts[w.Key()])
	}
	return series
}

func sum(series []int, from, to int) float64 {
	total := 0
	for _, v := range series[from:to] {
		total += v
	}
	return float64(total)
}
