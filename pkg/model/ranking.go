package model

// RankedItem is one retrieval result scored by the analysis agent
type RankedItem struct {
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// RankingReport is the outcome of comparing a list of retrieval results
type RankingReport struct {
	Metric      string       `json:"metric"`
	Ranked      []RankedItem `json:"ranked"`
	SummaryText string       `json:"summary_text"`
	Confidence  float64      `json:"confidence"`
}

// Top returns the highest ranked item, or nil if nothing was ranked
func (r *RankingReport) Top() *RankedItem {
	if r == nil || len(r.Ranked) == 0 {
		return nil
	}
	return &r.Ranked[0]
}

// SynthesisResult is the one-sentence conclusion drawn from a ranking
type SynthesisResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
