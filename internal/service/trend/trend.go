// Package trend fabricates the CO trend series shown on the dashboard chart.
// It is demo data: no backend call, fixed shape, jitter within set bands.
package trend

import (
	"math/rand"
	"time"

	"sensor-dash/internal/domain"
)

// Series shape: one sample per minute over the last 50 minutes, per device.
const (
	seriesLen = 50

	// DangerDevice is the device whose series ramps into the danger range.
	DangerDevice = "b8:27:eb:bf:9d:51"
)

var devices = []string{DangerDevice, "00:0f:00:70:91:0a", "1c:bf:ce:15:ec:4d"}

// CO bands in the sensor's fractional ppm units (0.1305 == 130.5 ppm).
const (
	safeLow    = 0.003
	safeHigh   = 0.008
	rampLow    = 0.080
	rampHigh   = 0.120
	dangerLow  = 0.120
	dangerHigh = 0.1305
)

// Generator produces synthetic trend series. Clock and randomness are
// injectable so tests get a stable series.
type Generator struct {
	now  func() time.Time
	rand *rand.Rand
}

// NewGenerator creates a generator with the wall clock and a time-seeded
// rand source.
func NewGenerator() *Generator {
	return &Generator{
		now:  time.Now,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // demo jitter, not security
	}
}

// NewGeneratorWith creates a generator with an explicit clock and rand
// source, for tests.
func NewGeneratorWith(now func() time.Time, r *rand.Rand) *Generator {
	return &Generator{now: now, rand: r}
}

// Series returns 50 timestamped points for each of the three devices. The
// danger device holds the safe band for the first 30 minutes, ramps over the
// next ten, and peaks at 130.5 ppm over the final stretch; the other two
// devices stay in the safe band throughout.
func (g *Generator) Series() []domain.TrendPoint {
	now := g.now().UTC()
	points := make([]domain.TrendPoint, 0, seriesLen*len(devices))

	for i := 0; i < seriesLen; i++ {
		ts := now.Add(-time.Duration(seriesLen-i) * time.Minute).Unix()

		for _, device := range devices {
			var co float64
			switch {
			case device == DangerDevice && i > 40:
				co = g.uniform(dangerLow, dangerHigh)
			case device == DangerDevice && i > 30:
				co = g.uniform(rampLow, rampHigh)
			default:
				co = g.uniform(safeLow, safeHigh)
			}

			points = append(points, domain.TrendPoint{
				TS:     ts,
				Device: device,
				CO:     round6(co),
			})
		}
	}
	return points
}

func (g *Generator) uniform(low, high float64) float64 {
	return low + g.rand.Float64()*(high-low)
}

func round6(f float64) float64 {
	return float64(int64(f*1e6+0.5)) / 1e6
}
