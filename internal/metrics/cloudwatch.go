// Package metrics provides optional, env-gated instrumentation around
// compiler invocations. It never participates in the compiler's
// algorithms; it is wired around compiler.Compile only.
package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "TakoMusic/Compiler"
	cloudwatchTimeoutSeconds = 5
)

// Client wraps a CloudWatch client for custom compiler metrics.
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a CloudWatch metrics client, disabled outside production.
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{enabled: false, environment: environment}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{client: client, enabled: true, environment: environment}, nil
}

// RecordCompile records one compiler invocation: a CompileCount (success)
// or CompileErrorCount (failure) count and its wall-clock latency,
// dimensioned by operation and environment.
func (m *Client) RecordCompile(op string, success bool, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "CompileCount"
		if !success {
			metricName = "CompileErrorCount"
		}

		dimensions := []types.Dimension{
			{Name: aws.String("Operation"), Value: aws.String(op)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "CompileLatencyMs", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record CompileLatencyMs metric: %v", err)
		}
	}()
}

// RecordDiagnosticCounts records how many error/warning diagnostics a
// compilation produced.
func (m *Client) RecordDiagnosticCounts(op string, errors, warnings int) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{Name: aws.String("Operation"), Value: aws.String(op)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		if err := m.putMetric(ctx, "DiagnosticErrors", float64(errors), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record DiagnosticErrors metric: %v", err)
		}
		if err := m.putMetric(ctx, "DiagnosticWarnings", float64(warnings), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record DiagnosticWarnings metric: %v", err)
		}
	}()
}

func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
