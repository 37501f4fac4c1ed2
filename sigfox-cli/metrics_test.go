package sigfoxcli

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/tj/assert"
)

type fakeCloudWatch struct {
	cloudwatchiface.CloudWatchAPI
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricDataWithContext(_ aws.Context, input *cloudwatch.PutMetricDataInput, _ ...request.Option) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, input)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetrics(t *testing.T) {
	service := Service{Name: "sigfox-provision", Version: "abc123"}

	t.Run("gauge carries default and extra dimensions", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := NewMetrics(service, cw)
		m.Gauge(context.Background(), ItemsWrittenMetric, 42, map[DimensionName]string{TableNameDimension: "sigfox"})

		assert.Len(t, cw.inputs, 1)
		input := cw.inputs[0]
		assert.Equal(t, metricsNamespace, aws.StringValue(input.Namespace))
		datum := input.MetricData[0]
		assert.Equal(t, string(ItemsWrittenMetric), aws.StringValue(datum.MetricName))
		assert.EqualValues(t, 42, aws.Float64Value(datum.Value))

		names := map[string]string{}
		for _, d := range datum.Dimensions {
			names[aws.StringValue(d.Name)] = aws.StringValue(d.Value)
		}
		assert.Equal(t, "sigfox", names[string(TableNameDimension)])
		assert.Equal(t, "sigfox-provision", names[string(ServiceNameDimension)])
		assert.Equal(t, "abc123", names[string(ServiceVersionDimension)])
	})

	t.Run("empty dimension values are dropped", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := NewMetrics(Service{Name: "svc"}, cw)
		m.Timing(context.Background(), ProvisionTimeMetric, time.Now())

		assert.Len(t, cw.inputs, 1)
		assert.Len(t, cw.inputs[0].MetricData[0].Dimensions, 1)
		assert.Equal(t, "Milliseconds", aws.StringValue(cw.inputs[0].MetricData[0].Unit))
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		m := NewMetrics(service, nil)
		m.Event(context.Background(), ResponseTimeMetric)
	})
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "TABLE_NAME", EnvVar("table-name"))
	assert.Equal(t, "NUM_INIT_ITEMS", EnvVar("num-init-items"))
	assert.Equal(t, "DRY", EnvVar("dry"))
}
