package reading

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	minTemperature = 40
	maxTemperature = 80

	humidityMean   = 60
	humidityStdDev = 20

	minHumidity = 0
	maxHumidity = 100
)

// Generator produces synthetic readings. The data channel is a pure function
// of the index; temperature and humidity come from Rand.
type Generator struct {
	now           func() time.Time
	rand          *rand.Rand
	clampHumidity bool
}

type Option func(*Generator)

// WithClock overrides the wall clock used to anchor the series.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRand overrides the random source, mostly for reproducible tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithClampHumidity bounds humidity to [0, 100].
func WithClampHumidity(clamp bool) Option {
	return func(g *Generator) {
		g.clampHumidity = clamp
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:  time.Now,
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the current time of the generator's clock in unix seconds.
func (g *Generator) Now() int64 {
	return g.now().Unix()
}

// Generate produces n readings for deviceID ending one second before now.
func (g *Generator) Generate(deviceID string, n int) []SensorReading {
	return g.GenerateAt(deviceID, n, g.Now())
}

// GenerateAt produces n readings for deviceID with timestamps now-n .. now-1,
// one second apart.
func (g *Generator) GenerateAt(deviceID string, n int, now int64) []SensorReading {
	if n <= 0 {
		return nil
	}
	readings := make([]SensorReading, 0, n)
	for x := 0; x < n; x++ {
		readings = append(readings, SensorReading{
			DeviceID:  deviceID,
			Timestamp: now + int64(x) - int64(n),
			Payload: Payload{
				Data:        Signal(x),
				Temperature: g.temperature(),
				Humidity:    g.humidity(),
			},
		})
	}
	return readings
}

// Signal is the pseudo-periodic data channel value at index x, roughly in
// [0, 100].
func Signal(x int) int64 {
	fx := float64(x)
	return int64(math.Round(50*math.Sin(0.1*fx)*math.Cos(fx) + 50))
}

func (g *Generator) temperature() int64 {
	return int64(minTemperature + g.rand.IntN(maxTemperature-minTemperature+1))
}

func (g *Generator) humidity() int64 {
	h := int64(math.Round(g.rand.NormFloat64()*humidityStdDev + humidityMean))
	if g.clampHumidity {
		h = max(minHumidity, min(maxHumidity, h))
	}
	return h
}
