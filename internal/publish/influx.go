// internal/publish/influx.go
// Package publish ships stored results to external time-series sinks.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mwiater/edgebench/internal/appconfig"
	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
)

// Measurement is the InfluxDB measurement every result is written to.
const Measurement = "edgebench_result"

// Influx writes one point per result with the blocking write API.
type Influx struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

// NewInflux connects to the server described by cfg.
func NewInflux(cfg appconfig.Influx) (*Influx, error) {
	if cfg.URL == "" {
		return nil, errors.New("influx url is not configured")
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx org and bucket are required")
	}
	options := influxdb2.DefaultOptions()
	options.SetHTTPRequestTimeout(30)

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Publish writes every result and returns how many points were sent.
func (i *Influx) Publish(ctx context.Context, results []benchmark.ResultInfo) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	points := make([]*write.Point, 0, len(results))
	for _, ri := range results {
		points = append(points, Point(ri))
	}
	if err := i.writer.WritePoint(ctx, points...); err != nil {
		logging.LogError("influxdb write failed: %v", err)
		return 0, fmt.Errorf("write %d points: %w", len(points), err)
	}
	logging.LogEvent("Published %d results to influxdb", len(points))
	return len(points), nil
}

// Close releases the client.
func (i *Influx) Close() {
	i.client.Close()
}

// Point converts an entry into a point stamped with the run-set end time.
// Metric fields carry the entry's selected aggregation.
func Point(ri benchmark.ResultInfo) *write.Point {
	info := ri.Result.BasicInfo
	p := influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("id", ri.ID).
		AddTag("model", info.ModelName).
		AddTag("accelerator", info.Accelerator).
		AddTag("app_version", info.AppVersion).
		AddTag("aggregation", ri.Aggregation.String()).
		AddField("runs", info.NumberOfRuns).
		AddField("prefill_tokens", info.PrefillTokens).
		AddField("decode_tokens", info.DecodeTokens).
		SetTime(time.UnixMilli(info.EndMs))
	for _, m := range benchmark.Metrics {
		if v, ok := ri.Value(m.Metric); ok {
			p.AddField(string(m.Metric), v)
		}
	}
	return p
}
