// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/versetype/internal/challenge"
	"github.com/verte-zerg/versetype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// ChallengeMetrics computes WPM and first-attempt accuracy for a stored
// challenge with the same formulas the live session uses.
func ChallengeMetrics(c model.ChallengeAggregate) (wpm int, accuracy float64, ok bool) {
	if c.Attempted <= 0 {
		return 0, 0, false
	}
	accuracy = math.Round(float64(c.FirstAttemptCorrect)/float64(c.Attempted)*100) / 100
	wpm, ok = challenge.WPM(c.Chars, accuracy, int(c.DurationMs/1000))
	if !ok {
		return 0, accuracy, false
	}
	return wpm, accuracy, true
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := bounds(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample squeezes values into at most width buckets by averaging.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		if hi <= lo {
			hi = lo + 1
		}
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func bounds(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// Summary holds headline numbers across challenges.
type Summary struct {
	Challenges  int
	Scored      int
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	TotalChars  int
	TotalMs     int64
}

// Summarize aggregates challenges into a Summary. Challenges without a
// measurable duration count toward totals but not toward averages.
func Summarize(challenges []model.ChallengeAggregate) Summary {
	s := Summary{Challenges: len(challenges)}
	var totalWPM, totalAcc float64
	for _, c := range challenges {
		s.TotalChars += c.Chars
		s.TotalMs += c.DurationMs
		wpm, acc, ok := ChallengeMetrics(c)
		if !ok {
			continue
		}
		s.Scored++
		totalWPM += float64(wpm)
		totalAcc += acc
		if wpm > s.BestWPM {
			s.BestWPM = wpm
		}
	}
	if s.Scored > 0 {
		s.AvgWPM = totalWPM / float64(s.Scored)
		s.AvgAccuracy = totalAcc / float64(s.Scored)
	}
	return s
}

// RenderSummary prints a summary for challenges.
func RenderSummary(w io.Writer, challenges []model.ChallengeAggregate) error {
	if len(challenges) == 0 {
		_, err := fmt.Fprintln(w, "No challenges found.")
		return err
	}
	s := Summarize(challenges)
	lines := []string{
		"Summary",
		fmt.Sprintf("Challenges: %d", s.Challenges),
		fmt.Sprintf("Avg WPM: %.2f", s.AvgWPM),
		fmt.Sprintf("Best WPM: %d", s.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AvgAccuracy*100),
		fmt.Sprintf("Characters typed: %d", s.TotalChars),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CurveSeries returns smoothed WPM and accuracy (percent) series for scored
// challenges.
func CurveSeries(challenges []model.ChallengeAggregate, window int) (wpms, accs []float64) {
	for _, c := range challenges {
		wpm, acc, ok := ChallengeMetrics(c)
		if !ok {
			continue
		}
		wpms = append(wpms, float64(wpm))
		accs = append(accs, acc*100)
	}
	return MovingAverage(wpms, window), MovingAverage(accs, window)
}

// RenderCurves prints WPM and accuracy sparklines that fit into width
// columns. A width of zero leaves the series unsampled.
func RenderCurves(w io.Writer, challenges []model.ChallengeAggregate, window, width int) error {
	wpms, accs := CurveSeries(challenges, window)
	if len(wpms) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	for _, line := range CurveLines(wpms, accs, width) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// CurveLines formats labelled sparklines with their latest values.
func CurveLines(wpms, accs []float64, width int) []string {
	const labelWidth = 10
	series := []struct {
		name   string
		values []float64
		format string
	}{
		{name: "WPM", values: wpms, format: "%.0f"},
		{name: "Accuracy", values: accs, format: "%.0f%%"},
	}
	lines := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.values) == 0 {
			continue
		}
		last := fmt.Sprintf(s.format, s.values[len(s.values)-1])
		sparkWidth := 0
		if width > 0 {
			sparkWidth = width - labelWidth - len(last) - 2
			if sparkWidth < 1 {
				sparkWidth = 1
			}
		}
		spark := Sparkline(Resample(s.values, sparkWidth))
		lines = append(lines, fmt.Sprintf("%-*s|%s| %s", labelWidth-1, s.name, spark, last))
	}
	return lines
}

// RenderCharTable prints per-character first-attempt aggregates.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	rows := make([]model.CharAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		ai := charAccuracy(rows[i])
		aj := charAccuracy(rows[j])
		if ai == aj {
			return rows[i].Char < rows[j].Char
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Character (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Char", "Accuracy", "Correct", "Missed"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Char,
			fmt.Sprintf("%.2f%%", charAccuracy(r)*100),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
		})
	}
	if _, err := fmt.Fprintln(w, renderPlainTable(headers, tableRows)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
