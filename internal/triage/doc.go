// Package triage provides the business boundary for MedAI's symptom triage.
// It defines the Engine (pure rule evaluation), Service (session lifecycle,
// notification dispatch), Store interface (bounded history persistence), and
// domain models.
package triage
