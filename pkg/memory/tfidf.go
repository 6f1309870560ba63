package memory

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// sparseVector maps a vocabulary column to its weight
type sparseVector map[int]float64

// vectorizer holds a TF-IDF feature space fitted on a corpus. Tokens are
// lower-cased runs of at least two letters, digits or underscores; term
// weights are raw counts scaled by smoothed idf and rows are L2-normalised.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// fit builds the vocabulary and idf weights from corpus and returns the
// weighted matrix, one row per corpus entry.
func fit(corpus []string) (*vectorizer, []sparseVector) {
	docs := make([][]string, len(corpus))
	df := make(map[string]int)
	for i, text := range corpus {
		docs[i] = tokenize(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, tok := range docs[i] {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	v := &vectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	matrix := make([]sparseVector, len(docs))
	for i, tokens := range docs {
		matrix[i] = v.weigh(tokens)
	}
	return v, matrix
}

// transform projects text into the fitted space. Unknown terms are dropped.
func (v *vectorizer) transform(text string) sparseVector {
	return v.weigh(tokenize(text))
}

func (v *vectorizer) weigh(tokens []string) sparseVector {
	vec := make(sparseVector)
	for _, tok := range tokens {
		if col, ok := v.vocab[tok]; ok {
			vec[col]++
		}
	}

	var norm float64
	for col, tf := range vec {
		w := tf * v.idf[col]
		vec[col] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for col := range vec {
		vec[col] /= norm
	}
	return vec
}

// cosineSimilarity calculates cosine similarity between two sparse vectors
func cosineSimilarity(a, b sparseVector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}

	var dotProduct, normA, normB float64
	for col, wa := range a {
		dotProduct += wa * b[col]
		normA += wa * wa
	}
	for _, wb := range b {
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return min(max(sim, 0), 1)
}
