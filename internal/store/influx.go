package store

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/agrisense/agrisense/internal/model"
)

const measurementName = "sensor_reading"

// InfluxConfig holds the connection settings for the Influx-backed store.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxStore persists canonical records as points in a single measurement:
// sensor_type and sensor_id as tags, coordinates and measurements as fields,
// the record timestamp as point time.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

func NewInfluxStore(cfg InfluxConfig) (*InfluxStore, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}, nil
}

// Close releases the underlying HTTP client.
func (s *InfluxStore) Close() { s.client.Close() }

func (s *InfluxStore) Put(ctx context.Context, rec model.CanonicalSensorRecord) error {
	tags := map[string]string{
		"sensor_type": string(rec.SensorType),
		"sensor_id":   rec.SensorID,
	}
	fields := map[string]interface{}{
		"lat": rec.Location.Lat,
		"lon": rec.Location.Lon,
	}
	for k, v := range rec.Measurements {
		fields[k] = v
	}
	point := influxdb2.NewPoint(measurementName, tags, fields, time.Unix(rec.Timestamp, 0).UTC())
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return Transient("influx put", err)
	}
	return nil
}

func (s *InfluxStore) Get(ctx context.Context, sensorID string, ts int64) (model.CanonicalSensorRecord, bool, error) {
	start := time.Unix(ts, 0).UTC()
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r.sensor_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
`, s.bucket, start.Format(time.RFC3339), start.Add(time.Second).Format(time.RFC3339), measurementName, sensorID)

	recs, err := s.runQuery(ctx, flux)
	if err != nil {
		return model.CanonicalSensorRecord{}, false, err
	}
	if len(recs) == 0 {
		return model.CanonicalSensorRecord{}, false, nil
	}
	return recs[0], true, nil
}

func (s *InfluxStore) Scan(ctx context.Context, sinceEpoch int64, cursor string) (Page, error) {
	if cursor != "" {
		// The Flux stream is consumed in one pass; there is never a second page.
		return Page{}, nil
	}
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])
`, s.bucket, time.Unix(sinceEpoch, 0).UTC().Format(time.RFC3339), measurementName)

	recs, err := s.runQuery(ctx, flux)
	if err != nil {
		return Page{}, err
	}
	return Page{Records: recs}, nil
}

func (s *InfluxStore) Query(ctx context.Context, sensorID string, mostRecentFirst bool, limit int) ([]model.CanonicalSensorRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == %q and r.sensor_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: %t)
  |> limit(n: %d)
`, s.bucket, measurementName, sensorID, mostRecentFirst, limit)
	return s.runQuery(ctx, flux)
}

func (s *InfluxStore) runQuery(ctx context.Context, flux string) ([]model.CanonicalSensorRecord, error) {
	res, err := s.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, Transient("influx query", err)
	}
	defer func() { _ = res.Close() }()

	var out []model.CanonicalSensorRecord
	for res.Next() {
		out = append(out, rowToRecord(res.Record()))
	}
	if res.Err() != nil {
		return nil, Transient("influx query", res.Err())
	}
	return out, nil
}

// rowToRecord rebuilds a canonical record from one pivoted Flux row.
func rowToRecord(row *query.FluxRecord) model.CanonicalSensorRecord {
	rec := model.CanonicalSensorRecord{
		Timestamp:    row.Time().Unix(),
		Measurements: make(map[string]float64),
	}
	if v, ok := row.ValueByKey("sensor_type").(string); ok {
		rec.SensorType = model.SensorType(v)
	}
	if v, ok := row.ValueByKey("sensor_id").(string); ok {
		rec.SensorID = v
	}
	if v, ok := floatAt(row, "lat"); ok {
		rec.Location.Lat = v
	}
	if v, ok := floatAt(row, "lon"); ok {
		rec.Location.Lon = v
	}
	for _, param := range []string{model.ParamHumidity, model.ParamSoilMoisture, model.ParamTemperature} {
		if v, ok := floatAt(row, param); ok {
			rec.Measurements[param] = v
		}
	}
	return rec
}

func floatAt(row *query.FluxRecord, key string) (float64, bool) {
	switch v := row.ValueByKey(key).(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}
