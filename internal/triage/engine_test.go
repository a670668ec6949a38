package triage

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/linnemanlabs/go-core/log"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestEngine() *Engine {
	e := NewEngine(log.Nop(), EngineHooks{})
	e.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestEvaluate_EmptyText(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{Text: ""})

	if r.Urgency != UrgencyLow {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyLow)
	}
	if r.Confidence != 60 {
		t.Errorf("confidence = %d, want 60", r.Confidence)
	}
	if len(r.Possible) != 1 || r.Possible[0] != "Common cold or minor viral illness" {
		t.Errorf("possible = %v, want [Common cold or minor viral illness]", r.Possible)
	}
	if len(r.Explanation) != 1 {
		t.Fatalf("explanation = %v, want single default line", r.Explanation)
	}
	if !strings.Contains(r.Explanation[0], "mild") {
		t.Errorf("explanation = %q, want the mild-symptoms default", r.Explanation[0])
	}
	if r.CreatedAt.IsZero() {
		t.Error("expected a result timestamp")
	}
}

func TestEvaluate_FeverAndCough(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{Text: "fever and cough for two days"})

	if r.Urgency != UrgencyModerate {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyModerate)
	}
	if !strings.Contains(r.Explanation[0], "Fever with cough") {
		t.Errorf("explanation = %q, want the fever+cough line", r.Explanation[0])
	}
	found := false
	for _, p := range r.Possible {
		if p == "Flu or respiratory infection" {
			found = true
		}
	}
	if !found {
		t.Errorf("possible = %v, want to include Flu or respiratory infection", r.Possible)
	}
}

func TestEvaluate_UrgencyPriorityOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Urgency
	}{
		{"chest pain is high", "sudden chest pain", UrgencyHigh},
		{"breathing difficulty is high", "shortness of breath since morning", UrgencyHigh},
		{"chest pain beats fever and cough", "chest pain with fever and cough", UrgencyHigh},
		{"fever with cough is moderate", "I have a fever and a bad cough", UrgencyModerate},
		{"fever alone is low", "running a fever since yesterday", UrgencyLow},
		// fever short-circuits before the fever+rash branch is reached
		{"fever with rash stays low", "fever and a rash on my arm", UrgencyLow},
		{"rash alone is low", "itchy rash on my leg", UrgencyLow},
		{"vomiting is moderate", "vomiting all night", UrgencyModerate},
		{"dizziness is moderate", "feeling dizzy when standing", UrgencyModerate},
		{"bleeding alone is low", "a small cut keeps bleeding", UrgencyLow},
		{"unrecognized text is low", "stubbed my toe", UrgencyLow},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := e.Evaluate(context.Background(), &SymptomInput{Text: tt.text})
			if r.Urgency != tt.want {
				t.Errorf("Evaluate(%q) urgency = %q, want %q", tt.text, r.Urgency, tt.want)
			}
		})
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{Text: "CHEST PAIN and WHEEZING"})
	if r.Urgency != UrgencyHigh {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyHigh)
	}
}

func TestEvaluate_LowOxygenForcesHigh(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{
		Text:   "",
		Device: &DeviceReading{SpO2: intPtr(85)},
	})

	if r.Urgency != UrgencyHigh {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyHigh)
	}
	if r.Confidence < 80 {
		t.Errorf("confidence = %d, want >= 80", r.Confidence)
	}
	foundDeviceLine := false
	for _, line := range r.Explanation {
		if strings.HasPrefix(line, "Device reading:") && strings.Contains(line, "oxygen") {
			foundDeviceLine = true
		}
	}
	if !foundDeviceLine {
		t.Errorf("explanation = %v, want a low-oxygen device line", r.Explanation)
	}
}

func TestEvaluate_AbnormalHeartRateForcesHigh(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	for _, hr := range []int{45, 130} {
		r := e.Evaluate(context.Background(), &SymptomInput{
			Text:   "mild headache",
			Device: &DeviceReading{HeartRate: intPtr(hr)},
		})
		if r.Urgency != UrgencyHigh {
			t.Errorf("heart rate %d: urgency = %q, want %q", hr, r.Urgency, UrgencyHigh)
		}
	}
}

func TestEvaluate_FeverTemperatureDoesNotForceHigh(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{
		Text:   "",
		Device: &DeviceReading{Temperature: floatPtr(38.5)},
	})

	// A fever-range temperature raises a warning and an explanation line
	// but does not escalate urgency on its own.
	if r.Urgency != UrgencyLow {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyLow)
	}
	foundDeviceLine := false
	for _, line := range r.Explanation {
		if strings.HasPrefix(line, "Device reading:") && strings.Contains(line, "temperature") {
			foundDeviceLine = true
		}
	}
	if !foundDeviceLine {
		t.Errorf("explanation = %v, want a temperature device line", r.Explanation)
	}
}

func TestEvaluate_NormalReadingNoWarnings(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{
		Text:   "",
		Device: &DeviceReading{SpO2: intPtr(98), Temperature: floatPtr(36.8), HeartRate: intPtr(72)},
	})

	if r.Urgency != UrgencyLow {
		t.Errorf("urgency = %q, want %q", r.Urgency, UrgencyLow)
	}
	if len(r.Explanation) != 1 {
		t.Errorf("explanation = %v, want no device lines", r.Explanation)
	}
	if r.Confidence != 60 {
		t.Errorf("confidence = %d, want 60 (no warnings, short text)", r.Confidence)
	}
}

func TestEvaluate_Confidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		device *DeviceReading
		want   int
	}{
		{"base", "headache", nil, 60},
		{"detail bonus above six words", "I have had a dull headache since early this morning", nil, 75},
		{"warning bonus", "headache", &DeviceReading{Temperature: floatPtr(38.2)}, 75},
		{"detail and warning bonus", "I have had a dull headache since early this morning", &DeviceReading{Temperature: floatPtr(38.2)}, 90},
		{"high urgency floor", "chest pain", nil, 80},
		{"bonuses stack under high urgency", "severe chest pain that started about an hour ago", &DeviceReading{SpO2: intPtr(85)}, 90},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := e.Evaluate(context.Background(), &SymptomInput{Text: tt.text, Device: tt.device})
			if r.Confidence != tt.want {
				t.Errorf("confidence = %d, want %d", r.Confidence, tt.want)
			}
		})
	}
}

func TestEvaluate_PossibleConditionsAccumulate(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	r := e.Evaluate(context.Background(), &SymptomInput{
		Text: "fever, cough, trouble breathing, a rash and vomiting",
	})

	want := []string{
		"Flu or respiratory infection",
		"Lower respiratory tract issue (e.g., pneumonia)",
		"Allergic reaction or skin infection",
		"Gastroenteritis or food-related illness",
	}
	if len(r.Possible) != len(want) {
		t.Fatalf("possible = %v, want %v", r.Possible, want)
	}
	for i := range want {
		if r.Possible[i] != want[i] {
			t.Errorf("possible[%d] = %q, want %q", i, r.Possible[i], want[i])
		}
	}
}

func TestEvaluate_AlwaysWellFormed(t *testing.T) {
	t.Parallel()

	texts := []string{
		"", " ", "!!!", "fever", "chest pain fever cough rash vomiting dizzy bleeding",
		strings.Repeat("word ", 500), "été fièvre", "1234567890",
	}

	e := newTestEngine()
	for _, text := range texts {
		r := e.Evaluate(context.Background(), &SymptomInput{Text: text})
		switch r.Urgency {
		case UrgencyLow, UrgencyModerate, UrgencyHigh:
		default:
			t.Errorf("Evaluate(%q) urgency = %q, not a valid level", text, r.Urgency)
		}
		if r.Confidence < 0 || r.Confidence > 95 {
			t.Errorf("Evaluate(%q) confidence = %d, want 0..95", text, r.Confidence)
		}
		if len(r.Possible) < 1 {
			t.Errorf("Evaluate(%q) returned no possible conditions", text)
		}
		if len(r.Explanation) < 1 {
			t.Errorf("Evaluate(%q) returned no explanation", text)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	in := &SymptomInput{Text: "fever and cough", Device: &DeviceReading{SpO2: intPtr(91)}}

	a := e.Evaluate(context.Background(), in)
	b := e.Evaluate(context.Background(), in)

	if a.Urgency != b.Urgency || a.Confidence != b.Confidence {
		t.Errorf("repeated evaluation differs: %+v vs %+v", a, b)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("timestamps differ under a fixed clock: %v vs %v", a.CreatedAt, b.CreatedAt)
	}
}

func TestEvaluate_HooksFire(t *testing.T) {
	t.Parallel()

	var gotUrgency Urgency
	var gotWarnings int
	var gotDuration float64

	e := NewEngine(log.Nop(), EngineHooks{
		OnEvaluate: func(urgency Urgency, deviceWarnings int, duration float64) {
			gotUrgency = urgency
			gotWarnings = deviceWarnings
			gotDuration = duration
		},
	})

	e.Evaluate(context.Background(), &SymptomInput{
		Text:   "chest pain",
		Device: &DeviceReading{SpO2: intPtr(85), Temperature: floatPtr(38.5)},
	})

	if gotUrgency != UrgencyHigh {
		t.Errorf("hook urgency = %q, want %q", gotUrgency, UrgencyHigh)
	}
	if gotWarnings != 2 {
		t.Errorf("hook warnings = %d, want 2", gotWarnings)
	}
	if gotDuration < 0 {
		t.Errorf("hook duration = %f, want >= 0", gotDuration)
	}
}

func TestEvaluate_EmitsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e := newTestEngine()
	e.Evaluate(context.Background(), &SymptomInput{Text: "chest pain"})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "triage.Evaluate" {
		t.Errorf("span name = %q, want triage.Evaluate", spans[0].Name)
	}

	foundUrgency := false
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "medai.triage.urgency" && attr.Value.AsString() == string(UrgencyHigh) {
			foundUrgency = true
		}
	}
	if !foundUrgency {
		t.Error("expected medai.triage.urgency=high attribute on span")
	}
}
