package designspec

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultLatencyBudget  = 2000
	DefaultNeedsCitations = "false"
	DefaultSafetyLevel    = "moderate"
	DefaultTelemetryOptIn = "off"
	DefaultOutDir         = "ui-agent-output"
)

var ErrInvalidBrief = errors.New("designspec: invalid brief")

// Brief is the user's design request. It is passed by value and never
// mutated once a run has started.
type Brief struct {
	Purpose        string `json:"purpose" yaml:"purpose"`
	Audience       string `json:"audience" yaml:"audience"`
	Tone           string `json:"tone" yaml:"tone"`
	Subject        string `json:"subject" yaml:"subject"`
	Brand          string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Constraints    string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	AIUseCases     string `json:"ai_use_cases,omitempty" yaml:"ai_use_cases,omitempty"`
	LatencyBudget  int    `json:"latency_budget,omitempty" yaml:"latency_budget,omitempty"`
	NeedsCitations string `json:"needs_citations,omitempty" yaml:"needs_citations,omitempty"`
	SafetyLevel    string `json:"safety_level,omitempty" yaml:"safety_level,omitempty"`
	TelemetryOptIn string `json:"telemetry_opt_in,omitempty" yaml:"telemetry_opt_in,omitempty"`
	OutDir         string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
}

// WithDefaults returns a copy with unset optional fields filled in.
// An empty defaultOutDir falls back to DefaultOutDir.
func (b Brief) WithDefaults(defaultOutDir string) Brief {
	if b.LatencyBudget <= 0 {
		b.LatencyBudget = DefaultLatencyBudget
	}
	if strings.TrimSpace(b.NeedsCitations) == "" {
		b.NeedsCitations = DefaultNeedsCitations
	}
	if strings.TrimSpace(b.SafetyLevel) == "" {
		b.SafetyLevel = DefaultSafetyLevel
	}
	if strings.TrimSpace(b.TelemetryOptIn) == "" {
		b.TelemetryOptIn = DefaultTelemetryOptIn
	}
	if strings.TrimSpace(b.OutDir) == "" {
		b.OutDir = defaultOutDir
		if strings.TrimSpace(b.OutDir) == "" {
			b.OutDir = DefaultOutDir
		}
	}
	return b
}

// Validate reports the required fields that are blank.
func (b Brief) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"purpose", b.Purpose},
		{"audience", b.Audience},
		{"tone", b.Tone},
		{"subject", b.Subject},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidBrief, strings.Join(missing, ", "))
	}
	return nil
}
