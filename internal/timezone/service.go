package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// Lookup maps coordinates to an IANA zone name.
type Lookup interface {
	Zone(latitude, longitude float64) (string, error)
}

// Finder is the tzf-backed Lookup.
type Finder struct {
	finder tzf.F
}

// The polygon set is large, so one finder is shared per process.
var defaultFinder = sync.OnceValues(func() (*Finder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone finder: %w", err)
	}
	return &Finder{finder: f}, nil
})

// DefaultFinder returns the shared finder.
func DefaultFinder() (*Finder, error) {
	return defaultFinder()
}

// Zone returns the zone containing the station, e.g. "Asia/Hong_Kong".
func (f *Finder) Zone(latitude, longitude float64) (string, error) {
	name := f.finder.GetTimezoneName(longitude, latitude)
	if name == "" {
		return "", fmt.Errorf("no timezone at lat=%f, lon=%f", latitude, longitude)
	}
	return name, nil
}

// Station describes where a station is and, optionally, which zone it reports in.
type Station struct {
	Zone      string
	Latitude  float64
	Longitude float64
}

// Resolver decides which zone a station's clock readings are rendered in.
type Resolver struct {
	lookup   Lookup
	fallback *time.Location
}

// NewResolver builds a Resolver. lookup may be nil when no finder is
// available; fallback defaults to time.Local.
func NewResolver(lookup Lookup, fallback *time.Location) *Resolver {
	if fallback == nil {
		fallback = time.Local
	}
	return &Resolver{lookup: lookup, fallback: fallback}
}

// Locate returns the station's zone. A configured zone wins over the
// coordinate lookup. When neither yields a loadable zone the fallback is
// returned together with the reason, so callers can log it and carry on.
func (r *Resolver) Locate(s Station) (*time.Location, error) {
	name := s.Zone
	if name == "" {
		if r.lookup == nil {
			return r.fallback, fmt.Errorf("no timezone configured and no lookup available")
		}
		found, err := r.lookup.Zone(s.Latitude, s.Longitude)
		if err != nil {
			return r.fallback, err
		}
		name = found
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return r.fallback, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}
