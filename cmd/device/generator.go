package main

import (
	"math/rand"
	"time"

	"airwatch-server/internal/modules/readings/types"
)

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// generator produces plausible sensor payloads with a random walk around
// tropical urban baselines, so consecutive readings drift instead of jumping.
type generator struct {
	rng  *rand.Rand
	site types.Location

	temperature float64
	humidity    float64
	vocIndex    float64
	vocRaw      float64
	pm1         float64
	pm25        float64
	pm10        float64
	windSpeed   float64
	windIdx     int
}

func newGenerator(site types.Location) *generator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &generator{
		rng:         rng,
		site:        site,
		temperature: 28 + rng.Float64()*4,
		humidity:    70 + rng.Float64()*15,
		vocIndex:    100,
		vocRaw:      25000,
		pm1:         6,
		pm25:        12,
		pm10:        18,
		windSpeed:   2.5,
		windIdx:     rng.Intn(len(compassPoints)),
	}
}

func (g *generator) next() types.ReadingPayload {
	g.temperature = clamp(g.temperature+g.step(0.4), 20, 38)
	g.humidity = clamp(g.humidity+g.step(2), 30, 100)
	g.vocIndex = clamp(g.vocIndex+g.step(8), 0, 500)
	g.vocRaw = clamp(g.vocRaw+g.step(500), 15000, 40000)
	g.pm1 = clamp(g.pm1+g.step(1), 0, 80)
	g.pm25 = clamp(g.pm25+g.step(1.5), 0, 120)
	g.pm10 = clamp(g.pm10+g.step(2), 0, 180)
	g.windSpeed = clamp(g.windSpeed+g.step(0.6), 0, 20)

	// The vane mostly holds, occasionally swinging to a neighbouring point.
	if g.rng.Float64() < 0.3 {
		g.windIdx = (g.windIdx + len(compassPoints) + g.rng.Intn(3) - 1) % len(compassPoints)
	}

	rainfall := 0.0
	if g.rng.Float64() < 0.1 {
		rainfall = round1(g.rng.Float64() * 5)
	}

	now := time.Now().UTC()
	return types.ReadingPayload{
		Timestamp:     &now,
		Temperature:   ptr(round1(g.temperature)),
		Humidity:      ptr(round1(g.humidity)),
		VOCIndex:      ptr(round1(g.vocIndex)),
		VOCRaw:        ptr(round1(g.vocRaw)),
		PM1:           ptr(round1(g.pm1)),
		PM25:          ptr(round1(g.pm25)),
		PM10:          ptr(round1(g.pm10)),
		Rainfall:      ptr(rainfall),
		WindSpeed:     ptr(round1(g.windSpeed)),
		WindDirection: ptr(compassPoints[g.windIdx]),
		Location:      &g.site,
	}
}

func (g *generator) step(scale float64) float64 {
	return (g.rng.Float64()*2 - 1) * scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func ptr[T any](v T) *T { return &v }
