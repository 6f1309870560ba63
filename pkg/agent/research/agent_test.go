package research_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/huddle/pkg/agent/research"
	"github.com/m-mizutani/huddle/pkg/model"
)

type constRandom float64

func (c constRandom) Float64() float64 { return float64(c) }

func testDocs() []model.Document {
	return []model.Document{
		{
			Title:  "Neural Networks Overview",
			Text:   "Neural networks are a family of models. Common types: feedforward, CNNs, RNNs.",
			Tags:   []string{"neural", "cnn", "rnn"},
			Source: "mock.org/nn",
		},
		{
			Title:  "Adam Optimizer",
			Text:   "Adam is an adaptive optimizer that generally converges faster than SGD.",
			Tags:   []string{"optimizers", "adam", "sgd"},
			Source: "mock.org/adam",
		},
		{
			Title: "Gradient Descent",
			Text:  "SGD with momentum is simple and memory efficient.",
			Tags:  []string{"optimizers", "sgd"},
		},
	}
}

func TestSearchScoresByTokenOverlap(t *testing.T) {
	agent := research.New(testDocs(), research.WithRandom(constRandom(0.6)))

	results := agent.Search("adam sgd", 5)
	gt.A(t, results).Length(3)

	// Adam doc matches both tokens, Gradient Descent only "sgd"
	gt.Equal(t, results[0].Title, "Adam Optimizer")
	gt.Equal(t, results[0].Confidence, 0.7)
	gt.Equal(t, results[1].Title, "Gradient Descent")
	gt.Equal(t, results[1].Confidence, 0.6)

	// zero score falls back to the random branch: 0.4 + 0.6*0.15
	gt.Equal(t, results[2].Title, "Neural Networks Overview")
	gt.Equal(t, results[2].Confidence, 0.49)
}

func TestSearchTitleBonus(t *testing.T) {
	agent := research.New(testDocs())

	results := agent.Search("Adam Optimizer", 1)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Title, "Adam Optimizer")
	// two tokens + title bonus of 2 → 0.5 + 0.4
	gt.Equal(t, results[0].Confidence, 0.9)
}

func TestSearchConfidenceIsCapped(t *testing.T) {
	docs := []model.Document{{
		Title: "one two three four five six",
		Text:  "one two three four five six",
	}}
	agent := research.New(docs)
	results := agent.Search("one two three four five six", 1)
	gt.Equal(t, results[0].Confidence, 0.95)
}

func TestSearchConfidenceRange(t *testing.T) {
	agent := research.New(testDocs(), research.WithSeed(42))
	queries := []string{"", "zzz", "neural", "adam sgd momentum", "What are the main types of neural networks?"}

	for _, q := range queries {
		for _, r := range agent.Search(q, 5) {
			gt.Number(t, r.Confidence).GreaterOrEqual(0.4)
			gt.Number(t, r.Confidence).LessOrEqual(0.95)
		}
	}
}

func TestSearchSeedIsReproducible(t *testing.T) {
	a1 := research.New(testDocs(), research.WithSeed(7))
	a2 := research.New(testDocs(), research.WithSeed(7))
	gt.Equal(t, a1.Search("quantum", 5), a2.Search("quantum", 5))
}

func TestSearchTopK(t *testing.T) {
	agent := research.New(testDocs())
	gt.A(t, agent.Search("sgd", 2)).Length(2)
	gt.A(t, agent.Search("sgd", 0)).Length(0)
	gt.A(t, agent.Search("sgd", 10)).Length(3)
}

func TestSearchStableOnTies(t *testing.T) {
	agent := research.New(testDocs(), research.WithRandom(constRandom(0)))
	results := agent.Search("nothing-matches", 5)
	gt.Equal(t, results[0].Title, "Neural Networks Overview")
	gt.Equal(t, results[1].Title, "Adam Optimizer")
	gt.Equal(t, results[2].Title, "Gradient Descent")
}

func TestSearchEmptyCatalog(t *testing.T) {
	agent := research.New(nil)
	results := agent.Search("anything", 5)
	gt.V(t, results).NotNil()
	gt.A(t, results).Length(0)
}

func TestSearchDefaultsSource(t *testing.T) {
	agent := research.New(testDocs())
	results := agent.Search("momentum", 1)
	gt.Equal(t, results[0].Title, "Gradient Descent")
	gt.Equal(t, results[0].Source, "mock_kb")
}
