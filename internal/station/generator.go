package station

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// LastUpdatedLayout is the 24-hour HH:MM format of Snapshot.LastUpdated.
const LastUpdatedLayout = "15:04"

// Generator produces randomized snapshots within fixed ranges.
// It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	clock    clock.Clock
	location *time.Location
	newID    func() string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSource replaces the random source (useful for reproducible tests).
func WithSource(src rand.Source) GeneratorOption {
	return func(g *Generator) {
		if src != nil {
			g.rng = rand.New(src)
		}
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(c clock.Clock) GeneratorOption {
	return func(g *Generator) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLocation sets the timezone LastUpdated is rendered in.
func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) {
		if loc != nil {
			g.location = loc
		}
	}
}

// NewGenerator builds a Generator seeded from the runtime's random source.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:    clock.New(),
		location: time.Local,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh snapshot. It never fails.
func (g *Generator) Generate() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	condition := Conditions[g.rng.IntN(len(Conditions))]
	baseTemp := 24 + g.rng.IntN(10)

	current := CurrentConditions{
		Temp:       baseTemp,
		Condition:  condition,
		Humidity:   70 + g.rng.IntN(25),
		WindSpeed:  10 + g.rng.IntN(20),
		UVIndex:    3 + g.rng.IntN(8),
		Visibility: 8 + g.rng.IntN(12),
		FeelsLike:  baseTemp + g.rng.IntN(4) - 2,
		Pressure:   1010 + g.rng.IntN(20),
	}

	return &Snapshot{
		ID:          g.newID(),
		GeneratedAt: now.UTC(),
		Current:     current,
		LastUpdated: now.In(g.location).Format(LastUpdatedLayout),
		Forecast:    buildForecast(baseTemp),
	}
}
