package recommend

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/profile"
)

// NominalMessage is the fixed sentinel sent when no record violates any
// bound. It is a deliberate smoke-test signal, not silence-on-success;
// callers must not suppress it.
const NominalMessage = "(TESTING!) ✅ All sensors are operating within normal parameters."

// ConfigError means a stored record declares a sensor type the profile table
// does not cover. Fatal for that record only; the batch continues.
type ConfigError struct {
	SensorType model.SensorType
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no profile configured for sensor type %q", e.SensorType)
}

// Aggregate evaluates every record independently and joins the resulting
// texts with a blank line, in record order. Evaluation runs in parallel but
// results are collected back into input order before concatenation.
func Aggregate(records []model.CanonicalSensorRecord, profiles profile.Table) string {
	perRecord := make([][]model.Recommendation, len(records))

	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec model.CanonicalSensorRecord) {
			defer wg.Done()
			p, ok := profiles.Lookup(rec.SensorType)
			if !ok {
				log.Printf("recommend: %v (sensor=%s)", &ConfigError{SensorType: rec.SensorType}, rec.SensorID)
				return
			}
			perRecord[i] = Evaluate(rec, p, LocationString(rec.Location))
		}(i, rec)
	}
	wg.Wait()

	var texts []string
	for _, recs := range perRecord {
		for _, r := range recs {
			texts = append(texts, r.Text)
		}
	}
	if len(texts) == 0 {
		return NominalMessage
	}
	return strings.Join(texts, "\n\n")
}
