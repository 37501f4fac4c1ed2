package sigfoxexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// Header is the first line of every export.
var Header = []string{"deviceId", "timestamp", "channel", "value"}

func WriteCSV(w io.Writer, rows []reading.ChartRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.DeviceID,
			strconv.FormatInt(row.Timestamp, 10),
			string(row.Channel),
			strconv.FormatFloat(row.Value, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write export row %v/%v: %w", row.DeviceID, row.Timestamp, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]reading.ChartRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected export header %v", header)
		}
	}

	var rows []reading.ChartRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export: %w", err)
		}
		timestamp, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp, %q: %w", record[1], err)
		}
		value, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value, %q: %w", record[3], err)
		}
		rows = append(rows, reading.ChartRow{
			DeviceID:  record[0],
			Timestamp: timestamp,
			Channel:   reading.Channel(record[2]),
			Value:     value,
		})
	}
}
