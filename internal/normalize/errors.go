package normalize

import "fmt"

// Kind classifies a validation failure. Validation errors are terminal:
// the offending event is rejected, never retried.
type Kind string

const (
	KindMalformedPayload  Kind = "malformed_payload"
	KindMissingField      Kind = "missing_field"
	KindBadTimestamp      Kind = "bad_timestamp"
	KindUnknownSensorType Kind = "unknown_sensor_type"
	KindMalformedGeo      Kind = "malformed_geo"
	KindOutOfRange        Kind = "out_of_range"
)

// ValidationError rejects one raw event with enough detail to log the
// offending payload. Callers switch on Kind rather than matching strings.
type ValidationError struct {
	Kind   Kind
	Field  string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed (%s)", e.Kind)
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func missingField(name string) error {
	return &ValidationError{Kind: KindMissingField, Field: name}
}
