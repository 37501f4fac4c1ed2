// Package sigfoxexport flattens sensor readings into chart rows and publishes
// them as CSV, to S3 or locally, for the dashboard to poll.
package sigfoxexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// maxLookback is how many days GetRawAsOf walks back looking for an export.
const maxLookback = 5

// QueryCallback loads the readings of a device, starting at since when since
// is positive.
type QueryCallback func(ctx context.Context, deviceID string, since int64) ([]reading.SensorReading, error)

type Handler struct {
	service sigfoxcli.Service
	logger  zerolog.Logger
	metrics sigfoxcli.Metrics
	s3      s3iface.S3API
	stdout  io.Writer
	now     func() time.Time

	exportName string

	query QueryCallback
}

func ExportKey(serviceName, exportName string, timestamp time.Time) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v", serviceName, exportName, timestamp.Format("2006-01-02"), timestamp.Format("15"), timestamp.Format("2006-01-02-15:04:05.csv"))
}

func NewHandler(
	service sigfoxcli.Service,
	exportName string,
	s3Api s3iface.S3API,
	metrics sigfoxcli.Metrics,
	query QueryCallback,
) *Handler {
	return &Handler{
		service:    service,
		logger:     sigfoxcli.Logger(service),
		metrics:    metrics,
		s3:         s3Api,
		stdout:     os.Stdout,
		now:        time.Now,
		exportName: exportName,
		query:      query,
	}
}

// Export writes the chart rows of deviceID and returns where they went: the
// S3 key, the local file, or "-" for stdout.
func (h *Handler) Export(ctx context.Context, deviceID string, since int64) (string, error) {
	start := h.now()
	readings, err := h.query(ctx, deviceID, since)
	if err != nil {
		h.logger.Warn().Err(err).Str("deviceId", deviceID).Msg("failed to load readings")
		return "", err
	}
	rows := reading.Rows(readings)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", err
	}

	location := "-"
	switch {
	case sigfoxcli.CommonOpts.Dry && ExportOpts.OutFile == "":
		if _, err := h.stdout.Write(buf.Bytes()); err != nil {
			return "", err
		}

	case sigfoxcli.CommonOpts.Dry:
		location = ExportOpts.OutFile
		if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
			return "", err
		}
		h.logger.Info().Str("filename", location).Int("rows", len(rows)).Int("size", buf.Len()).Msg("dry run, saving export locally")
		if err := os.WriteFile(location, buf.Bytes(), 0644); err != nil {
			return "", err
		}

	default:
		location = ExportKey(h.service.Name, h.exportName, start.UTC())
		h.logger.Info().Str("bucket", ExportOpts.Bucket).Str("filename", location).Int("rows", len(rows)).Int("size", buf.Len()).Msg("saving export to s3")
		_, err := h.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(ExportOpts.Bucket),
			Body:        bytes.NewReader(buf.Bytes()),
			Key:         aws.String(location),
			ContentType: aws.String("text/csv"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload export %v: %w", location, err)
		}
	}

	dimensions := map[sigfoxcli.DimensionName]string{sigfoxcli.OperationNameDimension: h.exportName}
	h.metrics.Gauge(ctx, sigfoxcli.ExportRowsMetric, float64(len(rows)), dimensions)
	return location, nil
}

func (h *Handler) Generate(ctx context.Context, _ json.RawMessage) error {
	ctx = h.logger.WithContext(ctx)
	h.logger.Info().Str("deviceId", ExportOpts.DeviceID).Int64("since", ExportOpts.Since).Msg("generating export")
	_, err := h.Export(ctx, ExportOpts.DeviceID, ExportOpts.Since)
	return err
}

// GetRawAsOf returns the newest export written on the day of timestamp or,
// failing that, on one of the days before it.
func GetRawAsOf(ctx context.Context, s3Api s3iface.S3API, bucket, serviceName, exportName string, timestamp time.Time) ([]byte, string, error) {
	for count := 0; ; count++ {
		prefix := fmt.Sprintf("%v/%v/%v", serviceName, exportName, timestamp.Format("2006-01-02"))
		listOutput, err := s3Api.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int64(1000),
			Prefix:  aws.String(prefix),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to read most recent export: failed to list objects: %w", err)
		}

		if len(listOutput.Contents) == 0 {
			if count >= maxLookback {
				return nil, "", fmt.Errorf("failed to find latest export after %v days: %v", maxLookback, timestamp)
			}
			yesterday := timestamp.AddDate(0, 0, -1)
			timestamp = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 23, 59, 59, 0, time.UTC)
			continue
		}

		sort.Slice(listOutput.Contents, func(i, j int) bool {
			return aws.StringValue(listOutput.Contents[i].Key) > aws.StringValue(listOutput.Contents[j].Key)
		})
		key := aws.StringValue(listOutput.Contents[0].Key)

		output, err := s3Api.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to read most recent file in %v: failed to get object, %v: %w", prefix, key, err)
		}
		defer output.Body.Close()

		data, err := io.ReadAll(output.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read most recent file in %v: failed to read s3 response, %v: %w", prefix, key, err)
		}
		return data, key, nil
	}
}

func GetLatest(ctx context.Context, s3Api s3iface.S3API, bucket, serviceName, exportName string) ([]reading.ChartRow, string, error) {
	data, key, err := GetRawAsOf(ctx, s3Api, bucket, serviceName, exportName, time.Now().UTC())
	if err != nil {
		return nil, "", err
	}
	rows, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse latest export, %v: %w", key, err)
	}
	return rows, key, nil
}

func (h *Handler) Start() error {
	if ExportOpts.GetLatest {
		data, key, err := GetRawAsOf(context.Background(), h.s3, ExportOpts.Bucket, h.service.Name, h.exportName, h.now().UTC())
		if err != nil {
			return err
		}
		h.logger.Info().Str("filename", key).Int("size", len(data)).Msg("found latest export")
		if ExportOpts.OutFile == "" {
			_, err := h.stdout.Write(data)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(ExportOpts.OutFile), 0755); err != nil {
			return err
		}
		return os.WriteFile(ExportOpts.OutFile, data, 0644)
	}

	switch {
	case sigfoxcli.CommonOpts.Console:
		return h.Generate(context.Background(), nil)

	default:
		lambda.Start(h.Generate)
	}
	return nil
}
