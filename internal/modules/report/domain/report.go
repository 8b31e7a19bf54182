package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/message"

	sessiondto "everest/internal/modules/session/dto"
	apperrors "everest/internal/platform/errors"
	"everest/internal/platform/markdown"
	"everest/internal/platform/slug"
	"everest/internal/platform/timefmt"
)

type Kind string

const (
	KindSummary Kind = "summary"
	KindTable   Kind = "table"
	KindNote    Kind = "note"
)

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindSummary, KindTable, KindNote:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown report kind %q", apperrors.ErrInvalidInput, raw)
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindTable:
		return "everesting_full"
	case KindNote:
		return "everesting_note"
	default:
		return "everesting_summary"
	}
}

func (k Kind) extension() string {
	switch k {
	case KindTable:
		return "csv"
	case KindNote:
		return "md"
	default:
		return "txt"
	}
}

// Meta is everything a report needs besides the statistics.
type Meta struct {
	GeneratedAt time.Time
	Locale      Locale
	Location    *time.Location
}

func (m Meta) location() *time.Location {
	if m.Location == nil {
		return time.Local
	}
	return m.Location
}

type Document struct {
	Kind     Kind
	Filename string
	Body     string
	// BOM marks plain text exports; spreadsheet apps need it to detect UTF-8.
	BOM bool
}

const bom = "\ufeff"

func (d Document) Bytes() []byte {
	if d.BOM {
		return []byte(bom + d.Body)
	}
	return []byte(d.Body)
}

func Render(kind Kind, st sessiondto.StatisticsOutput, meta Meta) (Document, error) {
	doc := Document{Kind: kind, Filename: Filename(kind, st.TrackName, meta.GeneratedAt.In(meta.location()))}
	var err error
	switch kind {
	case KindSummary:
		doc.Body = SummaryText(st, meta)
		doc.BOM = true
	case KindTable:
		doc.Body, err = TableCSV(st, meta)
		doc.BOM = true
	case KindNote:
		doc.Body, err = Note(st, meta)
	default:
		return Document{}, fmt.Errorf("%w: unknown report kind %q", apperrors.ErrInvalidInput, kind)
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Filename builds <prefix>[_<track>]_<YYYY-MM-DD>_<HH-MM-SS>.<ext>.
func Filename(kind Kind, track string, at time.Time) string {
	name := kind.prefix()
	if s := slug.Make(track, '_'); s != "" {
		name += "_" + s
	}
	return name + "_" + at.Format("2006-01-02_15-04-05") + "." + kind.extension()
}

func SummaryText(st sessiondto.StatisticsOutput, meta Meta) string {
	lb := LabelsFor(meta.Locale)
	p := meta.Locale.Printer()
	f := newFormatter(meta, lb)

	var b strings.Builder
	line := func(label, value string) { fmt.Fprintf(&b, "%s %s\n", label, value) }

	b.WriteString(lb.Title + "\n")
	if st.Finished {
		b.WriteString(lb.Complete + "\n")
	} else {
		b.WriteString(lb.InProgress + "\n")
	}
	b.WriteString("\n")
	line(lb.Date, f.date(&meta.GeneratedAt))
	line(lb.StartTime, f.date(st.StartedAt))
	line(lb.FinishTime, f.date(st.FinishedAt))
	line(lb.Athlete, f.text(st.UserName))
	line(lb.Track, f.text(st.TrackName))

	b.WriteString("\n" + lb.General + "\n\n")
	line(lb.TotalTime, timefmt.Clock(st.TotalElapsedMs))
	line(lb.LapsCompleted, p.Sprintf("%d / %d", st.TotalLaps, st.GoalLaps))
	line(lb.TotalDistance, p.Sprintf("%.2f", st.TotalDistanceKm)+" "+lb.Km)
	line(lb.TotalAscent, amount(p, st.TotalAscentM)+" "+lb.M)
	line(lb.Gradient, p.Sprintf("%.1f", st.DistanceGradient)+" "+lb.MPerKm)
	line(lb.AscentSpeed, p.Sprintf("%d", int64(math.Round(st.AscentSpeedMPerH)))+" "+lb.MPerH)

	if st.TotalLaps > 1 {
		b.WriteString("\n" + lb.LapTimes + "\n\n")
		line(lb.AvgLap, timefmt.Clock(st.MeanLapMs))
		line(lb.FastestLap, timefmt.Clock(st.MinLapMs))
		line(lb.SlowestLap, timefmt.Clock(st.MaxLapMs))
		line(lb.StdDeviation, timefmt.Clock(st.StdDevLapMs))
	}
	if st.PauseCount > 0 {
		b.WriteString("\n" + lb.Pauses + "\n\n")
		line(lb.TotalPauses, p.Sprintf("%d", st.PauseCount))
		line(lb.TotalPauseTime, timefmt.Clock(st.TotalPauseMs))
		line(lb.MaxPause, timefmt.Clock(st.MaxPauseMs))
		line(lb.AvgPausePerLap, timefmt.Clock(st.AvgPausePerLapMs))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func TableCSV(st sessiondto.StatisticsOutput, meta Meta) (string, error) {
	lb := LabelsFor(meta.Locale)
	p := meta.Locale.Printer()
	f := newFormatter(meta, lb)

	records := [][]string{
		{lb.Report},
		{lb.Date, f.date(&meta.GeneratedAt)},
		{},
		{lb.StartTime, f.date(st.StartedAt)},
		{lb.FinishTime, f.date(st.FinishedAt)},
		{lb.Athlete, f.text(st.UserName)},
		{lb.Track, f.text(st.TrackName)},
		{},
		{lb.Summary},
		strings.SplitN(lb.MetricValue, ",", 2),
		{lb.TotalTime, timefmt.Clock(st.TotalElapsedMs)},
		{lb.MovingTime, timefmt.Clock(st.MovingMs)},
		{lb.LapsCompleted, p.Sprintf("%d", st.TotalLaps)},
		{lb.GoalLaps, p.Sprintf("%d", st.GoalLaps)},
		{lb.TotalDistance, p.Sprintf("%.2f", st.TotalDistanceKm) + " " + lb.Km},
		{lb.TotalAscent, amount(p, st.TotalAscentM) + " " + lb.M},
		{lb.Gradient, p.Sprintf("%.1f", st.DistanceGradient) + " " + lb.MPerKm},
		{lb.AscentSpeed, p.Sprintf("%d", int64(math.Round(st.AscentSpeedMPerH))) + " " + lb.MPerH},
	}
	if st.TotalLaps > 1 {
		records = append(records,
			[]string{lb.AvgLap, timefmt.Clock(st.MeanLapMs)},
			[]string{lb.FastestLap, timefmt.Clock(st.MinLapMs)},
			[]string{lb.SlowestLap, timefmt.Clock(st.MaxLapMs)},
			[]string{lb.StdDeviation, timefmt.Clock(st.StdDevLapMs)},
		)
	}
	if st.PauseCount > 0 {
		records = append(records,
			[]string{lb.TotalPauses, p.Sprintf("%d", st.PauseCount)},
			[]string{lb.TotalPauseTime, timefmt.Clock(st.TotalPauseMs)},
			[]string{lb.MaxPause, timefmt.Clock(st.MaxPauseMs)},
			[]string{lb.AvgPausePerLap, timefmt.Clock(st.AvgPausePerLapMs)},
		)
	}
	records = append(records, []string{}, []string{lb.Laps}, lb.LapHeader)
	for _, row := range st.Laps {
		records = append(records, []string{
			p.Sprintf("%d", row.Index),
			timefmt.Clock(row.CumulativeMs),
			timefmt.Clock(row.DurationMs),
			timefmt.Signed(row.DeltaMs),
			timefmt.Clock(row.PauseMs),
			timefmt.Clock(row.PauseAdjustedMs),
			p.Sprintf("%d", int64(math.Round(row.AscentRateMPerH))),
		})
	}
	records = append(records, []string{})
	for _, note := range lb.LapFootnotes {
		records = append(records, []string{note})
	}

	buf := bytes.Buffer{}
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write csv report: %w", err)
	}
	return buf.String(), nil
}

// Note renders a markdown note whose frontmatter carries raw numbers, so
// the file can be indexed by other tools; the body is for reading.
func Note(st sessiondto.StatisticsOutput, meta Meta) (string, error) {
	lb := LabelsFor(meta.Locale)
	f := newFormatter(meta, lb)

	fields := []markdown.Field{
		{Key: "type", Value: "everesting-session"},
		{Key: "athlete", Value: st.UserName},
		{Key: "track", Value: st.TrackName},
		{Key: "generated_at", Value: meta.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	if st.StartedAt != nil {
		fields = append(fields, markdown.Field{Key: "started_at", Value: st.StartedAt.UTC().Format(time.RFC3339)})
	}
	if st.FinishedAt != nil {
		fields = append(fields, markdown.Field{Key: "finished_at", Value: st.FinishedAt.UTC().Format(time.RFC3339)})
	}
	fields = append(fields,
		markdown.Field{Key: "finished", Value: st.Finished},
		markdown.Field{Key: "laps", Value: st.TotalLaps},
		markdown.Field{Key: "goal_laps", Value: st.GoalLaps},
		markdown.Field{Key: "distance_km", Value: round(st.TotalDistanceKm, 2)},
		markdown.Field{Key: "ascent_m", Value: round(st.TotalAscentM, 1)},
		markdown.Field{Key: "total_time", Value: timefmt.ClockHours(st.TotalElapsedMs)},
		markdown.Field{Key: "moving_time", Value: timefmt.ClockHours(st.MovingMs)},
		markdown.Field{Key: "avg_lap", Value: timefmt.Clock(st.MeanLapMs)},
		markdown.Field{Key: "ascent_speed_m_h", Value: int64(math.Round(st.AscentSpeedMPerH))},
		markdown.Field{Key: "pauses", Value: st.PauseCount},
	)

	var b strings.Builder
	title := lb.Report
	if st.TrackName != "" {
		title += ": " + st.TrackName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%s\n\n", f.text(st.UserName))
	fmt.Fprintf(&b, "## %s\n\n", lb.Laps)
	b.WriteString("| " + strings.Join(lb.LapHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(lb.LapHeader)) + "\n")
	p := meta.Locale.Printer()
	for _, row := range st.Laps {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			row.Index,
			timefmt.Clock(row.CumulativeMs),
			timefmt.Clock(row.DurationMs),
			timefmt.Signed(row.DeltaMs),
			timefmt.Clock(row.PauseMs),
			timefmt.Clock(row.PauseAdjustedMs),
			p.Sprintf("%d", int64(math.Round(row.AscentRateMPerH))),
		)
	}
	return markdown.RenderFrontmatter(fields, b.String())
}

type formatter struct {
	layout  string
	loc     *time.Location
	missing string
}

func newFormatter(meta Meta, lb Labels) formatter {
	return formatter{layout: meta.Locale.DateLayout(), loc: meta.location(), missing: lb.Missing}
}

func (f formatter) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return f.missing
	}
	return t.In(f.loc).Format(f.layout)
}

func (f formatter) text(s string) string {
	if strings.TrimSpace(s) == "" {
		return f.missing
	}
	return s
}

// amount prints whole values without decimals and keeps one otherwise.
func amount(p *message.Printer, v float64) string {
	if v == math.Trunc(v) {
		return p.Sprintf("%.0f", v)
	}
	return p.Sprintf("%.1f", v)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
