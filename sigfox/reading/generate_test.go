package reading

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/tj/assert"
)

func fixedGenerator(now int64, opts ...Option) *Generator {
	opts = append([]Option{
		WithClock(func() time.Time { return time.Unix(now, 0) }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	return NewGenerator(opts...)
}

func TestGenerate(t *testing.T) {
	t.Run("five readings anchored at now", func(t *testing.T) {
		readings := fixedGenerator(1000).Generate(DefaultDeviceID, 5)
		assert.Len(t, readings, 5)

		var timestamps []int64
		for _, r := range readings {
			assert.Equal(t, DefaultDeviceID, r.DeviceID)
			timestamps = append(timestamps, r.Timestamp)
		}
		assert.Equal(t, []int64{995, 996, 997, 998, 999}, timestamps)
	})

	t.Run("zero readings", func(t *testing.T) {
		assert.Empty(t, fixedGenerator(1000).Generate(DefaultDeviceID, 0))
		assert.Empty(t, fixedGenerator(1000).Generate(DefaultDeviceID, -3))
	})

	t.Run("count and ordering", func(t *testing.T) {
		for _, n := range []int{1, 2, 17, 250} {
			readings := fixedGenerator(1_700_000_000).Generate("dev", n)
			assert.Len(t, readings, n)
			for x, r := range readings {
				assert.EqualValues(t, 1_700_000_000+int64(x)-int64(n), r.Timestamp)
				if x > 0 {
					assert.True(t, r.Timestamp > readings[x-1].Timestamp)
				}
			}
		}
	})

	t.Run("temperature stays in range", func(t *testing.T) {
		for _, r := range fixedGenerator(1000).Generate("dev", 2000) {
			assert.True(t, r.Payload.Temperature >= 40, "temperature %v", r.Payload.Temperature)
			assert.True(t, r.Payload.Temperature <= 80, "temperature %v", r.Payload.Temperature)
		}
	})

	t.Run("data follows the signal", func(t *testing.T) {
		for x, r := range fixedGenerator(1000).Generate("dev", 100) {
			want := int64(math.Round(50*math.Sin(0.1*float64(x))*math.Cos(float64(x)) + 50))
			assert.Equal(t, want, r.Payload.Data)
		}
	})

	t.Run("data ignores clock and randomness", func(t *testing.T) {
		a := NewGenerator(WithRand(rand.New(rand.NewPCG(7, 7)))).GenerateAt("dev", 30, 10)
		b := NewGenerator(WithRand(rand.New(rand.NewPCG(9, 9)))).GenerateAt("dev", 30, 99999)
		for i := range a {
			assert.Equal(t, a[i].Payload.Data, b[i].Payload.Data)
		}
	})

	t.Run("same seed reproduces readings", func(t *testing.T) {
		a := fixedGenerator(1000).Generate("dev", 50)
		b := fixedGenerator(1000).Generate("dev", 50)
		assert.Equal(t, a, b)
	})

	t.Run("humidity clamp", func(t *testing.T) {
		for _, r := range fixedGenerator(1000, WithClampHumidity(true)).Generate("dev", 5000) {
			assert.True(t, r.Payload.Humidity >= 0 && r.Payload.Humidity <= 100, "humidity %v", r.Payload.Humidity)
		}
	})
}

func TestSignal(t *testing.T) {
	assert.EqualValues(t, 50, Signal(0))
	// 50*sin(0.1)*cos(1)+50 = 52.697...
	assert.EqualValues(t, 53, Signal(1))
	// 50*sin(0.2)*cos(2)+50 = 45.866...
	assert.EqualValues(t, 46, Signal(2))

	for x := 0; x < 1000; x++ {
		v := Signal(x)
		assert.True(t, v >= 0 && v <= 100, "signal %v at %v", v, x)
	}
}

func TestRows(t *testing.T) {
	readings := []SensorReading{
		{DeviceID: "a", Timestamp: 10, Payload: Payload{Data: 1, Temperature: 41, Humidity: 61}},
		{DeviceID: "a", Timestamp: 11, Payload: Payload{Data: 2, Temperature: 42, Humidity: 62}},
	}
	rows := Rows(readings)
	assert.Len(t, rows, 6)
	assert.Equal(t, ChartRow{DeviceID: "a", Timestamp: 10, Channel: DataChannel, Value: 1}, rows[0])
	assert.Equal(t, ChartRow{DeviceID: "a", Timestamp: 10, Channel: TemperatureChannel, Value: 41}, rows[1])
	assert.Equal(t, ChartRow{DeviceID: "a", Timestamp: 10, Channel: HumidityChannel, Value: 61}, rows[2])
	assert.Equal(t, ChartRow{DeviceID: "a", Timestamp: 11, Channel: HumidityChannel, Value: 62}, rows[5])

	_, ok := Payload{}.Value(Channel("pressure"))
	assert.False(t, ok)
}
