// Package generator fabricates synthetic time series for the data server.
package generator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// Categories are the labels assigned to generated points
var Categories = []string{"A", "B", "C", "D"}

// DefaultRange is the span covered by a generated series when none is given
const DefaultRange = time.Minute

// Generator produces synthetic points from its own random source.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a Generator seeded from the runtime
func New() *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
}

// NewSeeded creates a deterministic Generator with a fixed clock, for tests
func NewSeeded(seed uint64, now func() time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed)),
		now: now,
	}
}

// Series returns count points spread evenly over span and ending now.
// Values follow a rising sine wave with noise.
func (g *Generator) Series(count int, span time.Duration) []timeseries.DataPoint {
	if count <= 0 {
		return []timeseries.DataPoint{}
	}
	if span <= 0 {
		span = DefaultRange
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UnixMilli()
	rangeMs := float64(span.Milliseconds())
	interval := rangeMs / float64(count)

	points := make([]timeseries.DataPoint, count)
	for i := range points {
		frac := float64(i) / float64(count)

		base := 50.0
		trend := frac * 20
		wave := math.Sin(frac*math.Pi*4) * 15
		noise := (g.rng.Float64() - 0.5) * 10

		points[i] = timeseries.DataPoint{
			Timestamp: int64(math.Round(float64(now) - rangeMs + float64(i)*interval)),
			Value:     timeseries.Round2(base + trend + wave + noise),
			Category:  g.category(),
		}
	}
	return points
}

// Live returns a single point stamped now
func (g *Generator) Live() timeseries.DataPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UnixMilli()
	value := math.Sin(float64(now)/1000)*50 + g.rng.Float64()*20 + 50

	return timeseries.DataPoint{
		Timestamp: now,
		Value:     timeseries.Round2(value),
		Category:  g.category(),
	}
}

func (g *Generator) category() string {
	return Categories[g.rng.IntN(len(Categories))]
}
