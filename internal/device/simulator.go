// Package device produces synthetic vital-sign readings for the triage
// demo. Readings are purely transient input state; nothing is persisted.
package device

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/linnemanlabs/medai/internal/triage"
)

// Simulated value ranges, inclusive.
const (
	spo2Min  = 90
	spo2Max  = 100
	tempMin  = 36.0
	tempMax  = 39.0
	heartMin = 55
	heartMax = 115
)

// Simulator draws random vital-sign readings from fixed ranges.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Simulator using the given source. A nil source falls back
// to an auto-seeded generator; tests inject a fixed seed for determinism.
func New(src rand.Source) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulator{rng: rand.New(src)}
}

// Sample produces a full reading: SpO2 as a whole percentage, temperature
// in degrees Celsius to one decimal place, heart rate in whole bpm.
func (s *Simulator) Sample() triage.DeviceReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	spo2 := spo2Min + s.rng.IntN(spo2Max-spo2Min+1)
	temp := math.Round((tempMin+s.rng.Float64()*(tempMax-tempMin))*10) / 10
	heart := heartMin + s.rng.IntN(heartMax-heartMin+1)

	return triage.DeviceReading{
		SpO2:        &spo2,
		Temperature: &temp,
		HeartRate:   &heart,
	}
}

// Clear returns a reading with every field absent.
func (s *Simulator) Clear() triage.DeviceReading {
	return triage.DeviceReading{}
}
