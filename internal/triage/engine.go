package triage

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linnemanlabs/go-core/log"
)

var tracer = otel.Tracer("github.com/linnemanlabs/medai/internal/triage")

// Vital-sign thresholds that produce device warnings.
const (
	LowOxygenBelow = 92
	FeverAtOrAbove = 38.0
	LowHeartBelow  = 50
	HighHeartAbove = 120
)

// Confidence scoring parameters. Confidence starts at the base, earns a
// bonus for detailed descriptions and for corroborating device warnings,
// is floored for high-urgency results, and never exceeds the cap.
const (
	confidenceBase  = 0.60
	confidenceBonus = 0.15
	confidenceFloor = 0.80
	confidenceCap   = 0.95
	detailWordCount = 6
)

// symptomFlags are the boolean indicators derived from the report text.
// Patterns are independent and non-exclusive.
type symptomFlags struct {
	fever    bool
	cough    bool
	breath   bool
	chest    bool
	vomiting bool
	dizzy    bool
	bleeding bool
	rash     bool
}

var (
	reFever  = regexp.MustCompile(`fever|febrile|high temperature`)
	reCough  = regexp.MustCompile(`cough`)
	reBreath = regexp.MustCompile(`short(ness)? of breath|breathless|difficult(y)? breathing|breathing difficult|trouble breathing|can('|no)?t breathe|wheez`)
	reChest  = regexp.MustCompile(`chest (pain|pressure|tightness)|tight chest`)
	reVomit  = regexp.MustCompile(`vomit|nausea|nauseous|throwing up`)
	reDizzy  = regexp.MustCompile(`dizzy|dizziness|faint|light-?headed`)
	reBleed  = regexp.MustCompile(`bleed|blood`)
	reRash   = regexp.MustCompile(`rash|hives|skin eruption`)

	reTokens = regexp.MustCompile(`[a-z0-9]+`)
)

// EngineHooks are optional callbacks for instrumentation. Zero value is valid.
type EngineHooks struct {
	// OnEvaluate fires after each evaluation with the final urgency, the
	// number of device warnings raised, and the evaluation duration in seconds.
	OnEvaluate func(urgency Urgency, deviceWarnings int, duration float64)
}

// Engine evaluates symptom reports against the fixed triage rule table.
// Evaluation is deterministic for identical inputs except for the result
// timestamp, and never fails.
type Engine struct {
	logger log.Logger
	hooks  EngineHooks
	now    func() time.Time
}

// NewEngine creates a new triage engine.
func NewEngine(logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		logger: logger,
		hooks:  hooks,
		now:    time.Now,
	}
}

// Evaluate maps a symptom report to a triage result. Empty text is a valid
// "no symptoms reported" input and yields the low-urgency default.
func (e *Engine) Evaluate(ctx context.Context, in *SymptomInput) *Result {
	start := time.Now()
	_, span := tracer.Start(ctx, "triage.Evaluate")
	defer span.End()

	text := strings.ToLower(in.Text)
	words := len(reTokens.FindAllString(text, -1))
	flags := matchFlags(text)
	warnings := deviceWarnings(in.Device)

	urgency, reason := decideUrgency(flags, warnings)

	explanation := []string{reason}
	for _, w := range warnings {
		explanation = append(explanation, fmt.Sprintf("Device reading: %s.", w))
	}

	// Critical vitals always escalate, regardless of what the text rules
	// decided. This upgrades only, never downgrades.
	if criticalVitals(in.Device) {
		urgency = UrgencyHigh
	}

	confidence := confidenceBase
	if words > detailWordCount {
		confidence += confidenceBonus
	}
	if len(warnings) > 0 {
		confidence += confidenceBonus
	}
	if urgency == UrgencyHigh && confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	r := &Result{
		Urgency:     urgency,
		Explanation: explanation,
		Confidence:  int(math.Round(confidence * 100)),
		Possible:    possibleConditions(flags),
		CreatedAt:   e.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("medai.triage.urgency", string(urgency)),
		attribute.Int("medai.triage.confidence", r.Confidence),
		attribute.Int("medai.triage.device_warnings", len(warnings)),
	)

	duration := time.Since(start).Seconds()
	if e.hooks.OnEvaluate != nil {
		e.hooks.OnEvaluate(urgency, len(warnings), duration)
	}

	e.logger.Info(ctx, "evaluated symptom report",
		"urgency", urgency,
		"confidence", r.Confidence,
		"words", words,
		"device_warnings", len(warnings),
	)

	return r
}

func matchFlags(text string) symptomFlags {
	return symptomFlags{
		fever:    reFever.MatchString(text),
		cough:    reCough.MatchString(text),
		breath:   reBreath.MatchString(text),
		chest:    reChest.MatchString(text),
		vomiting: reVomit.MatchString(text),
		dizzy:    reDizzy.MatchString(text),
		bleeding: reBleed.MatchString(text),
		rash:     reRash.MatchString(text),
	}
}

// deviceWarnings produces one textual note per vital-sign threshold crossed.
func deviceWarnings(d *DeviceReading) []string {
	if d.Empty() {
		return nil
	}
	var warnings []string
	if d.SpO2 != nil && *d.SpO2 < LowOxygenBelow {
		warnings = append(warnings, fmt.Sprintf("low oxygen saturation (SpO2 %d%%)", *d.SpO2))
	}
	if d.Temperature != nil && *d.Temperature >= FeverAtOrAbove {
		warnings = append(warnings, fmt.Sprintf("fever-range temperature (%.1f C)", *d.Temperature))
	}
	if d.HeartRate != nil && (*d.HeartRate < LowHeartBelow || *d.HeartRate > HighHeartAbove) {
		warnings = append(warnings, fmt.Sprintf("abnormal heart rate (%d bpm)", *d.HeartRate))
	}
	return warnings
}

// criticalVitals reports whether the reading crosses a threshold that
// forces high urgency on its own (oxygen or heart rate, not temperature).
func criticalVitals(d *DeviceReading) bool {
	if d.Empty() {
		return false
	}
	if d.SpO2 != nil && *d.SpO2 < LowOxygenBelow {
		return true
	}
	if d.HeartRate != nil && (*d.HeartRate < LowHeartBelow || *d.HeartRate > HighHeartAbove) {
		return true
	}
	return false
}

// decideUrgency walks the rule table in priority order and stops at the
// first matching branch. The ordering is load-bearing: fever+rash sits
// below fever-alone and cannot fire. Do not reorder.
func decideUrgency(f symptomFlags, warnings []string) (Urgency, string) {
	switch {
	case f.chest || f.breath || anyWarningMatches(warnings, "oxygen", "heart", "breath"):
		return UrgencyHigh, "Breathing or chest symptoms can be serious and should be checked promptly."
	case f.fever && f.cough:
		return UrgencyModerate, "Fever with cough may need medical review within 24-48 hours."
	case f.fever:
		return UrgencyLow, "Fever alone often responds to home care; monitor for changes."
	case f.rash && f.fever:
		return UrgencyModerate, "Fever with a rash may signal an infection that needs review."
	case f.vomiting || f.dizzy:
		return UrgencyModerate, "Vomiting or dizziness carries a risk of dehydration."
	default:
		return UrgencyLow, "Symptoms seem mild; rest and monitor at home."
	}
}

func anyWarningMatches(warnings []string, substrings ...string) bool {
	for _, w := range warnings {
		for _, sub := range substrings {
			if strings.Contains(w, sub) {
				return true
			}
		}
	}
	return false
}

// possibleConditions appends one entry per matching check, in fixed order.
// Checks are independent and non-exclusive.
func possibleConditions(f symptomFlags) []string {
	var possible []string
	if f.fever && f.cough {
		possible = append(possible, "Flu or respiratory infection")
	}
	if f.cough && f.breath {
		possible = append(possible, "Lower respiratory tract issue (e.g., pneumonia)")
	}
	if f.rash {
		possible = append(possible, "Allergic reaction or skin infection")
	}
	if f.vomiting {
		possible = append(possible, "Gastroenteritis or food-related illness")
	}
	if len(possible) == 0 {
		possible = append(possible, "Common cold or minor viral illness")
	}
	return possible
}
