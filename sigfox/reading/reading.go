// Package reading holds the sensor telemetry data model shared by the
// provisioning, export and API packages.
package reading

import "fmt"

// DefaultDeviceID is the Sigfox unit the synthetic readings are attributed to.
const DefaultDeviceID = "12CAC94"

// Payload is the measured part of a reading.
type Payload struct {
	Data        int64 `dynamodbav:"data" json:"data"`
	Temperature int64 `dynamodbav:"temperature" json:"temperature"`
	Humidity    int64 `dynamodbav:"humidity" json:"humidity"`
}

// SensorReading is one telemetry record. DeviceID and Timestamp form the
// composite key of the readings table.
type SensorReading struct {
	DeviceID  string  `dynamodbav:"deviceId" ddb:"hash" json:"deviceId"`
	Timestamp int64   `dynamodbav:"timestamp" ddb:"range" json:"timestamp"`
	Payload   Payload `dynamodbav:"payload" json:"payload"`
}

// Key identifies a reading within the table.
type Key struct {
	DeviceID  string
	Timestamp int64
}

func (r SensorReading) Key() Key {
	return Key{DeviceID: r.DeviceID, Timestamp: r.Timestamp}
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%v", k.DeviceID, k.Timestamp)
}

type Channel string

const (
	DataChannel        Channel = "data"
	TemperatureChannel Channel = "temperature"
	HumidityChannel    Channel = "humidity"
)

// Channels lists the payload channels in export order.
var Channels = []Channel{DataChannel, TemperatureChannel, HumidityChannel}

// ChartRow is the flattened form a chart renderer consumes: one value of one
// channel of one reading.
type ChartRow struct {
	DeviceID  string  `json:"deviceId"`
	Timestamp int64   `json:"timestamp"`
	Channel   Channel `json:"channel"`
	Value     float64 `json:"value"`
}

func (p Payload) Value(c Channel) (float64, bool) {
	switch c {
	case DataChannel:
		return float64(p.Data), true
	case TemperatureChannel:
		return float64(p.Temperature), true
	case HumidityChannel:
		return float64(p.Humidity), true
	}
	return 0, false
}

// Rows flattens the reading into one row per channel.
func (r SensorReading) Rows() []ChartRow {
	rows := make([]ChartRow, 0, len(Channels))
	for _, c := range Channels {
		v, _ := r.Payload.Value(c)
		rows = append(rows, ChartRow{
			DeviceID:  r.DeviceID,
			Timestamp: r.Timestamp,
			Channel:   c,
			Value:     v,
		})
	}
	return rows
}

func Rows(readings []SensorReading) []ChartRow {
	rows := make([]ChartRow, 0, len(readings)*len(Channels))
	for _, r := range readings {
		rows = append(rows, r.Rows()...)
	}
	return rows
}
