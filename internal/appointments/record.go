package appointments

import (
	"fmt"
	"strconv"
	"strings"
)

// Physiological ranges for the structured clinical record.
const (
	minHeightCM  = 40.0
	maxHeightCM  = 250.0
	minWeightKG  = 0.5
	maxWeightKG  = 300.0
	minTempC     = 32.0
	maxTempC     = 43.0
	minSystolic  = 50
	maxSystolic  = 250
	minDiastolic = 30
	maxDiastolic = 180
)

// ClinicalRecord is the structured vitals block a practitioner may attach when
// completing an appointment. Every field is optional; present fields must be
// physiologically plausible.
type ClinicalRecord struct {
	HeightCM      *float64 `json:"heightCm,omitempty"`
	WeightKG      *float64 `json:"weightKg,omitempty"`
	TemperatureC  *float64 `json:"temperatureC,omitempty"`
	BloodPressure *string  `json:"bloodPressure,omitempty"`
}

// Validate checks every present vital against its range. The first offending
// field is reported; nothing is ever partially applied.
func (c *ClinicalRecord) Validate() error {
	if c == nil {
		return nil
	}
	if c.HeightCM != nil && (*c.HeightCM < minHeightCM || *c.HeightCM > maxHeightCM) {
		return &ValidationError{Field: "heightCm", Reason: fmt.Sprintf("must be between %g and %g", minHeightCM, maxHeightCM)}
	}
	if c.WeightKG != nil && (*c.WeightKG < minWeightKG || *c.WeightKG > maxWeightKG) {
		return &ValidationError{Field: "weightKg", Reason: fmt.Sprintf("must be between %g and %g", minWeightKG, maxWeightKG)}
	}
	if c.TemperatureC != nil && (*c.TemperatureC < minTempC || *c.TemperatureC > maxTempC) {
		return &ValidationError{Field: "temperatureC", Reason: fmt.Sprintf("must be between %g and %g", minTempC, maxTempC)}
	}
	if c.BloodPressure != nil {
		if _, _, err := ParseBloodPressure(*c.BloodPressure); err != nil {
			return err
		}
	}
	return nil
}

// ParseBloodPressure parses a "systolic/diastolic" string such as "130/90"
// and range-checks both values. Systolic must strictly exceed diastolic.
func ParseBloodPressure(s string) (systolic, diastolic int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: `must be "systolic/diastolic", e.g. "120/80"`}
	}
	systolic, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: "systolic must be a number"}
	}
	diastolic, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: "diastolic must be a number"}
	}
	if systolic < minSystolic || systolic > maxSystolic {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: fmt.Sprintf("systolic must be between %d and %d", minSystolic, maxSystolic)}
	}
	if diastolic < minDiastolic || diastolic > maxDiastolic {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: fmt.Sprintf("diastolic must be between %d and %d", minDiastolic, maxDiastolic)}
	}
	if systolic <= diastolic {
		return 0, 0, &ValidationError{Field: "bloodPressure", Reason: "systolic must exceed diastolic"}
	}
	return systolic, diastolic, nil
}
