package model

// Direction says which bound a measurement violated.
type Direction string

const (
	DirectionLow  Direction = "low"
	DirectionHigh Direction = "high"
)

// Recommendation is one rendered threshold violation. It only exists between
// evaluation and aggregation; the aggregated text is what leaves the engine.
type Recommendation struct {
	Text      string
	Parameter string
	Direction Direction
	SensorID  string
}
