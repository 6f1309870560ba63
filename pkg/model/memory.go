package model

import (
	"maps"
	"time"
)

// MemoryID is a process-local, monotonically increasing record identifier.
// The first record stored in an index gets 1.
type MemoryID int64

// MemoryRecord represents a finding stored in the similarity index
type MemoryRecord struct {
	ID         MemoryID       `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Topic      string         `json:"topic"`
	Text       string         `json:"text"`
	Source     string         `json:"source"`
	Agent      string         `json:"agent"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata"`
}

// Clone returns a copy that does not share the metadata map
func (r MemoryRecord) Clone() MemoryRecord {
	r.Metadata = maps.Clone(r.Metadata)
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	return r
}

// ScoredRecord is a vector search hit. Score is the cosine similarity in [0, 1].
type ScoredRecord struct {
	Record MemoryRecord `json:"record"`
	Score  float64      `json:"score"`
}
