package model

// Document is a single entry of the retrievable catalog
type Document struct {
	Title  string   `json:"title" yaml:"title"`
	Text   string   `json:"text" yaml:"text"`
	Tags   []string `json:"tags" yaml:"tags"`
	Source string   `json:"source" yaml:"source"`
}

// RetrievalResult is a catalog document matched against a query with a
// heuristic confidence in [0, 1]
type RetrievalResult struct {
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	Source     string   `json:"source"`
	Confidence float64  `json:"confidence"`
}
