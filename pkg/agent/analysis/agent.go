// Package analysis ranks retrieval results with a length and tag based
// heuristic and turns the ranking into a one-sentence synthesis.
package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/utils/mathutil"
)

const (
	// DefaultMetric is the metric name reported when none is requested
	DefaultMetric = "effectiveness"

	// NoItemsSummary is the summary of a report with nothing ranked
	NoItemsSummary = "No items"
	// NoAnalysisText is the synthesis of an empty ranking
	NoAnalysisText = "No analysis produced."

	topItemTemplate = "Top item: %s"
)

// Agent compares retrieval results. It holds no state.
type Agent struct{}

// New creates a new analysis Agent
func New() *Agent {
	return &Agent{}
}

// Compare scores every item and returns them ranked by descending score.
// Items with equal scores keep their input order.
func (a *Agent) Compare(items []model.RetrievalResult, metric string) *model.RankingReport {
	if metric == "" {
		metric = DefaultMetric
	}

	ranked := make([]model.RankedItem, 0, len(items))
	var sumConfidence float64
	for _, it := range items {
		tagCount := len(it.Tags)
		score := (float64(utf8.RuneCountInString(it.Text))/200.0 + 0.2*float64(tagCount)) / 2.0

		item := model.RankedItem{
			Title:       it.Title,
			Score:       mathutil.Round(mathutil.Clamp(score, 0, 1), 3),
			Source:      it.Source,
			Confidence:  mathutil.Round(it.Confidence*0.9, 2),
			Explanation: fmt.Sprintf("Length-based proxy score with tag bonus (%d tags).", tagCount),
		}
		sumConfidence += item.Confidence
		ranked = append(ranked, item)
	}

	slices.SortStableFunc(ranked, func(x, y model.RankedItem) int {
		return cmp.Compare(y.Score, x.Score)
	})

	report := &model.RankingReport{
		Metric:      metric,
		Ranked:      ranked,
		SummaryText: NoItemsSummary,
	}
	if len(ranked) > 0 {
		report.SummaryText = fmt.Sprintf(topItemTemplate, ranked[0].Title)
		report.Confidence = mathutil.Round(sumConfidence/float64(len(ranked)), 2)
	}
	return report
}

// Synthesize builds a sentence about the top ranked item of report
func (a *Agent) Synthesize(report *model.RankingReport) *model.SynthesisResult {
	best := report.Top()
	if best == nil {
		return &model.SynthesisResult{Text: NoAnalysisText, Confidence: 0.0}
	}

	text := fmt.Sprintf("Based on available data, '%s' scores highest for %s (%s). Explanation: %s",
		best.Title, report.Metric, formatScore(best.Score), best.Explanation)
	return &model.SynthesisResult{Text: text, Confidence: best.Confidence}
}

// formatScore prints the shortest decimal form, always with a fractional part
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
