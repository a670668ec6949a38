package triage

import "time"

// Urgency is the coarse triage priority assigned to a symptom report.
type Urgency string

const (
	// UrgencyLow means home care and monitoring are likely sufficient
	UrgencyLow Urgency = "low"

	// UrgencyModerate means medical review within a day or two is advised
	UrgencyModerate Urgency = "moderate"

	// UrgencyHigh means the symptoms should be checked promptly
	UrgencyHigh Urgency = "high"
)

// DeviceReading holds simulated vital-sign values. Each field is
// independently optional; nil means the device reported nothing.
type DeviceReading struct {
	SpO2        *int     `json:"spo2,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
}

// Empty reports whether no vital-sign field is present.
func (d *DeviceReading) Empty() bool {
	return d == nil || (d.SpO2 == nil && d.Temperature == nil && d.HeartRate == nil)
}

// SymptomInput is one symptom report: free text (possibly empty) plus an
// optional device reading.
type SymptomInput struct {
	Text   string         `json:"text"`
	Device *DeviceReading `json:"device,omitempty"`
}

// Result is the outcome of a rule evaluation.
type Result struct {
	Urgency     Urgency   `json:"urgency"`
	Explanation []string  `json:"explanation"`
	Confidence  int       `json:"confidence"`
	Possible    []string  `json:"possible"`
	CreatedAt   time.Time `json:"timestamp"`
}

// Session is one recorded triage interaction, immutable once created.
type Session struct {
	ID     string       `json:"id"`
	Input  SymptomInput `json:"input"`
	Result Result       `json:"result"`
}
