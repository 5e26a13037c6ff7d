package scenario

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of initiative effective dates.
const DateLayout = "2006-01-02"

// Management tracker KPIs.
const (
	TrackSales         = "Sales"
	TrackProduction    = "Production"
	TrackWebsiteVisits = "Website_Visits"
	TrackNPS           = "NPS"
	TrackChurn         = "Churn"
	TrackMargin        = "Margin"
)

// TrackedKPIs lists the series columns in display order.
var TrackedKPIs = []string{TrackSales, TrackProduction, TrackWebsiteVisits, TrackNPS, TrackChurn, TrackMargin}

type seriesSpec struct {
	kpi        string
	start, end float64
}

var trackerSeries = []seriesSpec{
	{TrackSales, 100, 120},
	{TrackProduction, 200, 225},
	{TrackWebsiteVisits, 1500, 1750},
	{TrackNPS, 55, 65},
	{TrackChurn, 8, 6},
	{TrackMargin, 17, 20},
}

const trackerDays = 10

// TrackerStart is the first date of the baseline series.
var TrackerStart = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

// Initiative is one tracked management action.
type Initiative struct {
	Name          string    `json:"name" yaml:"name"`
	KPI           string    `json:"kpi" yaml:"kpi"`
	Impact        float64   `json:"impact" yaml:"impact"`
	EffectiveDate time.Time `json:"effective_date" yaml:"effective_date"`
	Complete      bool      `json:"complete" yaml:"complete"`
}

// DefaultInitiatives seeds a new session's tracker.
func DefaultInitiatives() []Initiative {
	day := func(d int) time.Time { return time.Date(2024, time.July, d, 0, 0, 0, 0, time.UTC) }
	return []Initiative{
		{Name: "Launch Product A", KPI: TrackSales, Impact: 6, EffectiveDate: day(6)},
		{Name: "Cost Program", KPI: TrackMargin, Impact: 1, EffectiveDate: day(8)},
		{Name: "Website Campaign", KPI: TrackWebsiteVisits, Impact: 80, EffectiveDate: day(7)},
	}
}

// Validate checks a new initiative before it is appended.
func (in Initiative) Validate() error {
	var errs []error
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, &ValidationError{Field: "name", Reason: "required"})
	}
	if !slices.Contains(TrackedKPIs, in.KPI) {
		errs = append(errs, &ValidationError{Field: "kpi", Reason: fmt.Sprintf("unknown kpi %q", in.KPI)})
	}
	if math.IsNaN(in.Impact) || math.IsInf(in.Impact, 0) {
		errs = append(errs, &ValidationError{Field: "impact", Reason: "must be finite"})
	}
	if in.EffectiveDate.IsZero() {
		errs = append(errs, &ValidationError{Field: "effective_date", Reason: "required"})
	}
	return errors.Join(errs...)
}

// Label is the annotation shown when the initiative is applied.
func (in Initiative) Label() string {
	return fmt.Sprintf("%s (%s +%s) on %s", in.Name, in.KPI,
		strconv.FormatFloat(in.Impact, 'f', -1, 64), in.EffectiveDate.Format(DateLayout))
}

// SeriesPoint is one day of the KPI series.
type SeriesPoint struct {
	Date   time.Time          `json:"date" yaml:"date"`
	Values map[string]float64 `json:"values" yaml:"values"`
}

// BaselineSeries returns the ten-day linear KPI trend starting at TrackerStart.
func BaselineSeries() []SeriesPoint {
	out := make([]SeriesPoint, trackerDays)
	for i := range out {
		out[i] = SeriesPoint{Date: TrackerStart.AddDate(0, 0, i), Values: make(map[string]float64, len(trackerSeries))}
		for _, s := range trackerSeries {
			out[i].Values[s.kpi] = s.start + (s.end-s.start)*float64(i)/float64(trackerDays-1)
		}
	}
	return out
}

// ApplyInitiatives adds each completed initiative's impact to every point on
// or after its effective date, in list order. Churn initiatives subtract the
// absolute impact. The input series is not modified.
func ApplyInitiatives(series []SeriesPoint, initiatives []Initiative) ([]SeriesPoint, []string) {
	out := make([]SeriesPoint, len(series))
	for i, pt := range series {
		values := make(map[string]float64, len(pt.Values))
		for k, v := range pt.Values {
			values[k] = v
		}
		out[i] = SeriesPoint{Date: pt.Date, Values: values}
	}

	var applied []string
	for _, in := range initiatives {
		if !in.Complete {
			continue
		}
		effective := truncateDay(in.EffectiveDate)
		for i := range out {
			if truncateDay(out[i].Date).Before(effective) {
				continue
			}
			if in.KPI == TrackChurn {
				out[i].Values[in.KPI] -= math.Abs(in.Impact)
			} else {
				out[i].Values[in.KPI] += in.Impact
			}
		}
		applied = append(applied, in.Label())
	}
	return out, applied
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "effective_date", Reason: fmt.Sprintf("invalid date %q", s)}
	}
	return t, nil
}

// TrackerSummary is the management view handed to the narrative builder.
type TrackerSummary struct {
	Recent      []SeriesPoint `json:"recent" yaml:"recent"`
	KPIs        []string      `json:"kpis" yaml:"kpis"`
	Applied     []string      `json:"applied" yaml:"applied"`
	Initiatives []Initiative  `json:"initiatives" yaml:"initiatives"`
}

// SummarizeTracker keeps the last three points of the selected KPIs.
func SummarizeTracker(initiatives []Initiative, kpis []string) (TrackerSummary, error) {
	if len(kpis) == 0 {
		kpis = []string{TrackSales, TrackWebsiteVisits}
	}
	for _, k := range kpis {
		if !slices.Contains(TrackedKPIs, k) {
			return TrackerSummary{}, &ValidationError{Field: "kpis", Reason: fmt.Sprintf("unknown kpi %q", k)}
		}
	}
	series, applied := ApplyInitiatives(BaselineSeries(), initiatives)
	tail := series[max(0, len(series)-3):]
	recent := make([]SeriesPoint, 0, len(tail))
	for _, pt := range tail {
		values := make(map[string]float64, len(kpis))
		for _, k := range kpis {
			values[k] = round(pt.Values[k], 1)
		}
		recent = append(recent, SeriesPoint{Date: pt.Date, Values: values})
	}
	return TrackerSummary{Recent: recent, KPIs: kpis, Applied: applied, Initiatives: initiatives}, nil
}
