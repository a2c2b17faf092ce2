package model

// SensorType identifies one of the supported device families. The set is
// closed: normalization rejects anything else.
type SensorType string

const (
	TypeIoT2000     SensorType = "IoT-2000"
	TypeSensormatic SensorType = "sensormatic"
	TypeMQTTMaster  SensorType = "MQTT-Master"
)

// SensorTypes lists every supported type, in a fixed order.
var SensorTypes = []SensorType{TypeIoT2000, TypeSensormatic, TypeMQTTMaster}

// Known reports whether t is one of the supported sensor types.
func (t SensorType) Known() bool {
	switch t {
	case TypeIoT2000, TypeSensormatic, TypeMQTTMaster:
		return true
	}
	return false
}

// Parameter names used in CanonicalSensorRecord.Measurements.
const (
	ParamHumidity     = "humidity"
	ParamSoilMoisture = "soil_moisture"
	ParamTemperature  = "temperature"
)

// Location is a decimal-degree coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CanonicalSensorRecord is the single persisted and evaluated shape.
// Humidity and soil moisture are 0-100 percent, temperature is Celsius,
// timestamp is epoch seconds UTC. Records are immutable once stored;
// duplicates and out-of-order arrival per sensor are expected.
type CanonicalSensorRecord struct {
	SensorType   SensorType         `json:"sensor_type"`
	SensorID     string             `json:"sensor_id"`
	Timestamp    int64              `json:"timestamp"`
	Location     Location           `json:"location"`
	Measurements map[string]float64 `json:"measurements"`
}
