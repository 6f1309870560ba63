package analysis_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/huddle/pkg/agent/analysis"
	"github.com/m-mizutani/huddle/pkg/model"
)

func TestCompareEmpty(t *testing.T) {
	report := analysis.New().Compare(nil, "effectiveness")
	gt.Equal(t, report.SummaryText, "No items")
	gt.Equal(t, report.Confidence, 0.0)
	gt.Equal(t, report.Metric, "effectiveness")
	gt.A(t, report.Ranked).Length(0)
}

func TestCompareDefaultsMetric(t *testing.T) {
	report := analysis.New().Compare(nil, "")
	gt.Equal(t, report.Metric, analysis.DefaultMetric)
}

func TestCompareScoring(t *testing.T) {
	items := []model.RetrievalResult{
		{Title: "short", Text: strings.Repeat("a", 40), Tags: []string{"x"}, Source: "s1", Confidence: 0.5},
		{Title: "long", Text: strings.Repeat("b", 200), Tags: []string{"x", "y"}, Source: "s2", Confidence: 0.7},
		{Title: "huge", Text: strings.Repeat("c", 1000), Tags: nil, Source: "s3", Confidence: 0.9},
	}

	report := analysis.New().Compare(items, "speed")
	gt.A(t, report.Ranked).Length(3)

	// huge: (5 + 0) / 2 → clamped to 1
	gt.Equal(t, report.Ranked[0].Title, "huge")
	gt.Equal(t, report.Ranked[0].Score, 1.0)
	gt.Equal(t, report.Ranked[0].Confidence, 0.81)
	gt.Equal(t, report.Ranked[0].Explanation, "Length-based proxy score with tag bonus (0 tags).")

	// long: (1 + 0.4) / 2
	gt.Equal(t, report.Ranked[1].Title, "long")
	gt.Equal(t, report.Ranked[1].Score, 0.7)
	gt.Equal(t, report.Ranked[1].Confidence, 0.63)

	// short: (0.2 + 0.2) / 2
	gt.Equal(t, report.Ranked[2].Title, "short")
	gt.Equal(t, report.Ranked[2].Score, 0.2)
	gt.Equal(t, report.Ranked[2].Confidence, 0.45)

	gt.Equal(t, report.SummaryText, "Top item: huge")
	// mean of 0.81, 0.63, 0.45
	gt.Equal(t, report.Confidence, 0.63)
}

func TestCompareCountsRunes(t *testing.T) {
	items := []model.RetrievalResult{
		{Title: "unicode", Text: strings.Repeat("é", 100), Confidence: 0.5},
	}
	report := analysis.New().Compare(items, "")
	gt.Equal(t, report.Ranked[0].Score, 0.25)
}

func TestCompareRoundsTiesToEven(t *testing.T) {
	testCases := []struct {
		runes int
		want  float64
	}{
		{25, 0.062},
		{125, 0.312},
		{225, 0.562},
	}

	for _, tc := range testCases {
		t.Run(strconv.Itoa(tc.runes), func(t *testing.T) {
			items := []model.RetrievalResult{
				{Title: "tie", Text: strings.Repeat("a", tc.runes), Confidence: 0.5},
			}
			report := analysis.New().Compare(items, "")
			gt.Equal(t, report.Ranked[0].Score, tc.want)
		})
	}
}

func TestCompareStableOnTies(t *testing.T) {
	items := []model.RetrievalResult{
		{Title: "first", Text: "same", Confidence: 0.5},
		{Title: "second", Text: "same", Confidence: 0.5},
	}
	report := analysis.New().Compare(items, "")
	gt.Equal(t, report.Ranked[0].Title, "first")
	gt.Equal(t, report.Ranked[1].Title, "second")
}

func TestSynthesizeEmpty(t *testing.T) {
	agent := analysis.New()
	result := agent.Synthesize(agent.Compare(nil, ""))
	gt.Equal(t, result.Text, "No analysis produced.")
	gt.Equal(t, result.Confidence, 0.0)
}

func TestSynthesizeTopItem(t *testing.T) {
	agent := analysis.New()
	report := agent.Compare([]model.RetrievalResult{
		{Title: "Adam Optimizer", Text: strings.Repeat("x", 120), Tags: []string{"adam", "sgd"}, Confidence: 0.7},
	}, "effectiveness")

	result := agent.Synthesize(report)
	gt.Equal(t, result.Text, "Based on available data, 'Adam Optimizer' scores highest for effectiveness (0.5). Explanation: Length-based proxy score with tag bonus (2 tags).")
	gt.Equal(t, result.Confidence, 0.63)
}

func TestSynthesizeWholeScore(t *testing.T) {
	agent := analysis.New()
	report := agent.Compare([]model.RetrievalResult{
		{Title: "big", Text: strings.Repeat("x", 500), Confidence: 1},
	}, "coverage")

	result := agent.Synthesize(report)
	gt.S(t, result.Text).Contains("scores highest for coverage (1.0)")
	gt.Equal(t, result.Confidence, 0.9)
}
