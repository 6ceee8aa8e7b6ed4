// Package fare computes base fares from distance, service class and train type.
//
// A Calculator never mutates state while pricing: it reads an immutable
// Network snapshot, so the same inputs always produce the same fare.
package fare

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/kirinyoku/railtix/internal/domain"
)

const (
	DefaultPerKmRate         = 0.15
	DefaultPremiumMultiplier = 1.5
	DefaultFallbackKm        = 150.0

	earthRadiusKm = 6371.0
)

// DefaultClassMultipliers is keyed by normalized class name.
var DefaultClassMultipliers = map[string]float64{
	"economy":        1.0,
	"seconda classe": 1.0,
	"second":         1.0,
	"second class":   1.0,
	"standard":       1.3,
	"prima classe":   1.8,
	"first":          1.8,
	"first class":    1.8,
	"business":       2.5,
	"executive":      2.5,
}

var DefaultPremiumTrainTypes = []string{
	"Frecciarossa",
	"Frecciargento",
	"Frecciabianca",
	"Italo",
	"Eurostar",
}

type Config struct {
	PerKmRate         float64
	PremiumMultiplier float64
	FallbackKm        float64
	ClassMultipliers  map[string]float64
	PremiumTrainTypes []string
}

type coord struct {
	lat, lon float64
}

// Network is an immutable snapshot of station coordinates and known distances.
type Network struct {
	coords    map[string]coord
	distances map[string]float64
}

// NewNetwork indexes stations and distances by normalized name.
// Later duplicates win.
func NewNetwork(stations []domain.Station, distances []domain.DistanceEntry) *Network {
	n := &Network{
		coords:    make(map[string]coord, len(stations)),
		distances: make(map[string]float64, len(distances)),
	}
	for _, s := range stations {
		n.coords[normalize(s.Name)] = coord{lat: s.Latitude, lon: s.Longitude}
	}
	for _, d := range distances {
		if d.Km <= 0 {
			continue
		}
		n.distances[pairKey(d.From, d.To)] = d.Km
	}
	return n
}

// Distance resolves the distance between two stations: direct table entry,
// then the reverse entry, then the great-circle estimate from coordinates.
// ok is false when none of those apply.
func (n *Network) Distance(from, to string) (km float64, ok bool) {
	if n == nil {
		return 0, false
	}
	if km, ok := n.distances[pairKey(from, to)]; ok {
		return km, true
	}
	if km, ok := n.distances[pairKey(to, from)]; ok {
		return km, true
	}

	a, okA := n.coords[normalize(from)]
	b, okB := n.coords[normalize(to)]
	if okA && okB {
		return haversine(a, b), true
	}

	return 0, false
}

type Calculator struct {
	cfg     Config
	premium map[string]struct{}
	network atomic.Pointer[Network]
}

func New(network *Network, cfg Config) *Calculator {
	if cfg.PerKmRate <= 0 {
		cfg.PerKmRate = DefaultPerKmRate
	}

	if cfg.PremiumMultiplier <= 0 {
		cfg.PremiumMultiplier = DefaultPremiumMultiplier
	}

	if cfg.FallbackKm <= 0 {
		cfg.FallbackKm = DefaultFallbackKm
	}

	if len(cfg.ClassMultipliers) == 0 {
		cfg.ClassMultipliers = DefaultClassMultipliers
	} else {
		normalized := make(map[string]float64, len(cfg.ClassMultipliers))
		for k, v := range cfg.ClassMultipliers {
			normalized[normalize(k)] = v
		}
		cfg.ClassMultipliers = normalized
	}

	if len(cfg.PremiumTrainTypes) == 0 {
		cfg.PremiumTrainTypes = DefaultPremiumTrainTypes
	}

	c := &Calculator{
		cfg:     cfg,
		premium: make(map[string]struct{}, len(cfg.PremiumTrainTypes)),
	}
	for _, p := range cfg.PremiumTrainTypes {
		c.premium[normalize(p)] = struct{}{}
	}
	if network == nil {
		network = NewNetwork(nil, nil)
	}
	c.network.Store(network)

	return c
}

// SetNetwork swaps the station snapshot used for distance lookups.
func (c *Calculator) SetNetwork(n *Network) {
	if n == nil {
		return
	}
	c.network.Store(n)
}

// DistanceKm returns the resolved distance, using the fallback distance when
// the network knows nothing about the pair.
func (c *Calculator) DistanceKm(departure, arrival string) float64 {
	if km, ok := c.network.Load().Distance(departure, arrival); ok {
		return km
	}
	return c.cfg.FallbackKm
}

// BaseFare prices an itinerary before any tier or promotion discount.
func (c *Calculator) BaseFare(departure, arrival, serviceClass, trainType string) float64 {
	price := c.DistanceKm(departure, arrival) * c.cfg.PerKmRate
	price *= c.ClassMultiplier(serviceClass)
	if c.IsPremium(trainType) {
		price *= c.cfg.PremiumMultiplier
	}
	return Round2(price)
}

func (c *Calculator) ClassMultiplier(serviceClass string) float64 {
	if m, ok := c.cfg.ClassMultipliers[normalize(serviceClass)]; ok {
		return m
	}
	return 1.0
}

// IsPremium reports whether trainType is, or starts with, a premium label.
func (c *Calculator) IsPremium(trainType string) bool {
	t := normalize(trainType)
	if t == "" {
		return false
	}
	if _, ok := c.premium[t]; ok {
		return true
	}
	for p := range c.premium {
		if strings.HasPrefix(t, p+" ") {
			return true
		}
	}
	return false
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func haversine(a, b coord) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.lat - a.lat)
	dLon := toRad(b.lon - a.lon)
	lat1 := toRad(a.lat)
	lat2 := toRad(b.lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func pairKey(from, to string) string {
	return normalize(from) + "|" + normalize(to)
}
