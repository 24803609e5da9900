// Package chart turns a month of entries into ready-to-render pie and
// line datasets, one pair per activity. Everything here is pure: the
// callers hand in the activity definition, a date-keyed entry lookup and
// the day numbers of the month.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/user/track-daily/internal/dateutil"
	"github.com/user/track-daily/internal/model"
)

// PieDataset is one ring of a pie chart.
type PieDataset struct {
	Label           string   `json:"label,omitempty"`
	Data            []int    `json:"data"`
	BackgroundColor []string `json:"backgroundColor"`
	BorderColor     []string `json:"borderColor"`
	BorderWidth     int      `json:"borderWidth"`
}

// PieData is a complete pie chart payload.
type PieData struct {
	Labels   []string     `json:"labels"`
	Datasets []PieDataset `json:"datasets"`
}

// LineDataset is one series of a line chart. Data uses nil for days with
// no recorded value, which renders as a gap rather than a zero.
type LineDataset struct {
	Label            string     `json:"label"`
	Data             []*float64 `json:"data"`
	BorderColor      string     `json:"borderColor"`
	BackgroundColor  string     `json:"backgroundColor"`
	Fill             bool       `json:"fill"`
	Tension          float64    `json:"tension"`
	PointRadius      int        `json:"pointRadius"`
	PointHoverRadius int        `json:"pointHoverRadius"`
	SpanGaps         bool       `json:"spanGaps,omitempty"`
}

// LineData is a complete line chart payload.
type LineData struct {
	Labels   []string      `json:"labels"`
	Datasets []LineDataset `json:"datasets"`
}

// ActivityCharts pairs the two charts produced for one activity.
type ActivityCharts struct {
	Pie  PieData  `json:"pieData"`
	Line LineData `json:"lineData"`
}

// Fixed slice colors for the yes/no/missing buckets.
const (
	colorYesFill     = "rgba(75, 192, 192, 0.6)"
	colorYesBorder   = "rgba(75, 192, 192, 1)"
	colorNoFill      = "rgba(255, 99, 132, 0.6)"
	colorNoBorder    = "rgba(255, 99, 132, 1)"
	colorGreyFill    = "rgba(200, 200, 200, 0.6)"
	colorGreyBorder  = "rgba(200, 200, 200, 1)"
	notRecordedLabel = "Not Recorded"
)

// Color derives a stable, visually distinct color for a series index.
// The golden-angle hue step keeps adjacent indices perceptually apart
// without a lookup table.
func Color(index int, opacity float64) string {
	hue := (index * 137) % 360
	return fmt.Sprintf("hsla(%d, 70%%, 50%%, %s)",
		hue, strconv.FormatFloat(opacity, 'g', -1, 64))
}

// EntryLookup resolves a YYYY-MM-DD date key to that day's entry, or nil.
type EntryLookup map[string]*model.Entry

// MapEntries builds an EntryLookup keyed by entry date.
func MapEntries(entries []model.Entry) EntryLookup {
	m := make(EntryLookup, len(entries))
	for i := range entries {
		m[entries[i].Date] = &entries[i]
	}
	return m
}

func (l EntryLookup) answer(date string, activityID uint) (model.Answer, bool) {
	e, ok := l[date]
	if !ok || e.Answers == nil {
		return model.Answer{}, false
	}
	a, ok := e.Answers[activityID]
	return a, ok
}

func dayLabels(days []int) []string {
	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = strconv.Itoa(d)
	}
	return labels
}

func f(v float64) *float64 { return &v }

// Prepare dispatches on the activity's declared type. Unknown types
// yield nil and the caller skips that activity's section.
func Prepare(activity model.Activity, entries EntryLookup, days []int, month string) *ActivityCharts {
	switch activity.Type {
	case model.TypeBoolean:
		return PrepareBoolean(activity, entries, days, month)
	case model.TypeScale:
		return PrepareScale(activity, entries, days, month)
	case model.TypeOptions:
		return PrepareOptions(activity, entries, days, month)
	case model.TypeMultiSelect:
		return PrepareMultiSelect(activity, entries, days, month)
	default:
		return nil
	}
}

// PrepareBoolean tallies yes/no/missing across the month and emits a
// 1/0/gap line series.
func PrepareBoolean(activity model.Activity, entries EntryLookup, days []int, month string) *ActivityCharts {
	var completed, notCompleted, missing int
	line := make([]*float64, len(days))

	for i, day := range days {
		a, ok := entries.answer(dateutil.DateKey(month, day), activity.ID)
		switch {
		case ok && a.Bool != nil && *a.Bool:
			completed++
			line[i] = f(1)
		case ok && a.Bool != nil:
			notCompleted++
			line[i] = f(0)
		default:
			missing++
		}
	}

	pie := PieData{
		Labels: []string{"Yes", "No", notRecordedLabel},
		Datasets: []PieDataset{{
			Data:            []int{completed, notCompleted, missing},
			BackgroundColor: []string{colorYesFill, colorNoFill, colorGreyFill},
			BorderColor:     []string{colorYesBorder, colorNoBorder, colorGreyBorder},
			BorderWidth:     1,
		}},
	}
	lineData := LineData{
		Labels: dayLabels(days),
		Datasets: []LineDataset{{
			Label:            activity.Title,
			Data:             line,
			BorderColor:      Color(0, 1),
			BackgroundColor:  Color(0, 0.2),
			Tension:          0.1,
			PointRadius:      4,
			PointHoverRadius: 6,
			SpanGaps:         true,
		}},
	}
	return &ActivityCharts{Pie: pie, Line: lineData}
}

// PrepareScale buckets counts per scale value 1..max, with index 0
// holding the not-recorded count, and emits the raw value or a gap.
func PrepareScale(activity model.Activity, entries EntryLookup, days []int, month string) *ActivityCharts {
	max := activity.Max
	if max <= 0 {
		max = model.ScaleDefault
	}

	valueCounts := make([]int, max+1)
	line := make([]*float64, len(days))

	for i, day := range days {
		a, ok := entries.answer(dateutil.DateKey(month, day), activity.ID)
		if ok && a.Value != nil && *a.Value >= 1 && *a.Value <= max {
			valueCounts[*a.Value]++
			line[i] = f(float64(*a.Value))
		} else {
			valueCounts[0]++
		}
	}

	pieLabels := make([]string, 0, max+1)
	pieLabels = append(pieLabels, notRecordedLabel)
	fills := []string{colorGreyFill}
	borders := []string{colorGreyBorder}
	for i := 1; i <= max; i++ {
		pieLabels = append(pieLabels, strconv.Itoa(i))
		fills = append(fills, Color(i-1, 0.6))
		borders = append(borders, Color(i-1, 1))
	}

	pie := PieData{
		Labels: pieLabels,
		Datasets: []PieDataset{{
			Data:            valueCounts,
			BackgroundColor: fills,
			BorderColor:     borders,
			BorderWidth:     1,
		}},
	}
	lineData := LineData{
		Labels: dayLabels(days),
		Datasets: []LineDataset{{
			Label:            activity.Title,
			Data:             line,
			BorderColor:      Color(0, 1),
			BackgroundColor:  Color(0, 0.2),
			Tension:          0.1,
			PointRadius:      4,
			PointHoverRadius: 6,
			SpanGaps:         true,
		}},
	}
	return &ActivityCharts{Pie: pie, Line: lineData}
}

// PrepareOptions counts how often each declared option was chosen, plus
// a not-recorded bucket, and emits one 0/1 indicator series per option.
func PrepareOptions(activity model.Activity, entries EntryLookup, days []int, month string) *ActivityCharts {
	options := activity.Options
	counts := make(map[string]int, len(options))
	notRecorded := 0

	chosen := make([]string, len(days))
	for i, day := range days {
		a, ok := entries.answer(dateutil.DateKey(month, day), activity.ID)
		if ok && a.Option != nil && options.Contains(*a.Option) {
			counts[*a.Option]++
			chosen[i] = *a.Option
		} else {
			notRecorded++
		}
	}

	pieLabels := append(append([]string{}, options...), notRecordedLabel)
	data := make([]int, 0, len(options)+1)
	fills := make([]string, 0, len(options)+1)
	borders := make([]string, 0, len(options)+1)
	for i, opt := range options {
		data = append(data, counts[opt])
		fills = append(fills, Color(i, 0.6))
		borders = append(borders, Color(i, 1))
	}
	data = append(data, notRecorded)
	fills = append(fills, colorGreyFill)
	borders = append(borders, colorGreyBorder)

	pie := PieData{
		Labels: pieLabels,
		Datasets: []PieDataset{{
			Data:            data,
			BackgroundColor: fills,
			BorderColor:     borders,
			BorderWidth:     1,
		}},
	}

	series := make([]LineDataset, len(options))
	for i, opt := range options {
		values := make([]*float64, len(days))
		for d := range days {
			if chosen[d] == opt {
				values[d] = f(1)
			} else {
				values[d] = f(0)
			}
		}
		series[i] = LineDataset{
			Label:            opt,
			Data:             values,
			BorderColor:      Color(i, 1),
			BackgroundColor:  Color(i, 0.2),
			Tension:          0.1,
			PointRadius:      4,
			PointHoverRadius: 6,
		}
	}
	return &ActivityCharts{Pie: pie, Line: LineData{Labels: dayLabels(days), Datasets: series}}
}

// PrepareMultiSelect counts how often each option appears in the day's
// selected list. There is no not-recorded bucket; the line chart has one
// membership indicator series per option.
func PrepareMultiSelect(activity model.Activity, entries EntryLookup, days []int, month string) *ActivityCharts {
	options := activity.Options
	counts := make(map[string]int, len(options))

	selected := make([][]string, len(days))
	for i, day := range days {
		a, ok := entries.answer(dateutil.DateKey(month, day), activity.ID)
		if !ok || len(a.Options) == 0 {
			continue
		}
		selected[i] = a.Options
		for _, v := range a.Options {
			if options.Contains(v) {
				counts[v]++
			}
		}
	}

	data := make([]int, len(options))
	fills := make([]string, len(options))
	borders := make([]string, len(options))
	for i, opt := range options {
		data[i] = counts[opt]
		fills[i] = Color(i, 0.6)
		borders[i] = Color(i, 1)
	}

	pie := PieData{
		Labels: append([]string{}, options...),
		Datasets: []PieDataset{{
			Data:            data,
			BackgroundColor: fills,
			BorderColor:     borders,
			BorderWidth:     1,
		}},
	}

	series := make([]LineDataset, len(options))
	for i, opt := range options {
		values := make([]*float64, len(days))
		for d := range days {
			present := false
			for _, v := range selected[d] {
				if v == opt {
					present = true
					break
				}
			}
			if present {
				values[d] = f(1)
			} else {
				values[d] = f(0)
			}
		}
		series[i] = LineDataset{
			Label:            opt,
			Data:             values,
			BorderColor:      Color(i, 1),
			BackgroundColor:  Color(i, 0.2),
			Tension:          0.1,
			PointRadius:      4,
			PointHoverRadius: 6,
		}
	}
	return &ActivityCharts{Pie: pie, Line: LineData{Labels: dayLabels(days), Datasets: series}}
}

// PrepareNotesCompletion summarizes how many days of the month carry a
// non-empty note. Independent of any activity.
func PrepareNotesCompletion(entries []model.Entry, days []int) PieData {
	completed := 0
	for i := range entries {
		if strings.TrimSpace(entries[i].Note) != "" {
			completed++
		}
	}
	missing := len(days) - completed

	return PieData{
		Labels: []string{"Completed", "Missing"},
		Datasets: []PieDataset{{
			Label:           "Notes Completion",
			Data:            []int{completed, missing},
			BackgroundColor: []string{colorYesFill, colorNoFill},
			BorderColor:     []string{colorYesBorder, colorNoBorder},
			BorderWidth:     1,
		}},
	}
}

// RenderValue formats an answer for the month calendar cells: a check or
// cross for booleans, the raw value for scale and options, the selection
// count for multi-select and "-" when nothing was recorded.
func RenderValue(activity model.Activity, a *model.Answer) string {
	if a == nil {
		return "-"
	}
	switch activity.Type {
	case model.TypeBoolean:
		if a.Bool == nil {
			return "-"
		}
		if *a.Bool {
			return "✓"
		}
		return "✗"
	case model.TypeScale:
		if a.Value == nil {
			return "-"
		}
		return strconv.Itoa(*a.Value)
	case model.TypeOptions:
		if a.Option == nil {
			return "-"
		}
		return *a.Option
	case model.TypeMultiSelect:
		return strconv.Itoa(len(a.Options))
	default:
		return "-"
	}
}
