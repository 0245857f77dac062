package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Band maps a half-open value range [Min, Max) to a base urgency factor.
// Max == 0 means unbounded above.
type Band struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Factor float64 `yaml:"factor"` // base score contribution, 0-100 scale
}

// Rule is the per-signal-type scoring configuration.
type Rule struct {
	SelfReported bool   `yaml:"self_reported"`
	Bands        []Band `yaml:"bands"`
}

// Thresholds are the severity bucket boundaries on the 0-100 score scale.
// A score equal to a boundary belongs to the higher bucket.
type Thresholds struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// Table is the full rule set. It can be loaded from YAML, with unspecified
// sections falling back to the built-in defaults.
type Table struct {
	Version    string              `yaml:"version"`
	Rules      map[SignalType]Rule `yaml:"rules"`
	Thresholds Thresholds          `yaml:"thresholds"`

	TrustBase float64 `yaml:"trust_base"` // self-reported dampening floor
	TrustSpan float64 `yaml:"trust_span"` // self-reported dampening range
}

// DefaultTable returns the built-in rule set.
func DefaultTable() Table {
	return Table{
		Version: "2026.02",
		Rules: map[SignalType]Rule{
			SignalHeartRate: {
				Bands: []Band{
					{Min: 0, Max: 40, Factor: 80},
					{Min: 40, Max: 50, Factor: 45},
					{Min: 50, Max: 100, Factor: 10},
					{Min: 100, Max: 120, Factor: 40},
					{Min: 120, Max: 140, Factor: 60},
					{Min: 140, Max: 0, Factor: 85},
				},
			},
			SignalSystolicBP: {
				Bands: []Band{
					{Min: 0, Max: 90, Factor: 70},
					{Min: 90, Max: 130, Factor: 10},
					{Min: 130, Max: 150, Factor: 35},
					{Min: 150, Max: 180, Factor: 60},
					{Min: 180, Max: 0, Factor: 90},
				},
			},
			SignalSpO2: {
				Bands: []Band{
					{Min: 0, Max: 88, Factor: 95},
					{Min: 88, Max: 92, Factor: 70},
					{Min: 92, Max: 95, Factor: 35},
					{Min: 95, Max: 0, Factor: 5},
				},
			},
			SignalBodyTemp: {
				Bands: []Band{
					{Min: 0, Max: 35, Factor: 75},
					{Min: 35, Max: 37.6, Factor: 5},
					{Min: 37.6, Max: 39, Factor: 40},
					{Min: 39, Max: 0, Factor: 80},
				},
			},
			SignalSymptom: {
				SelfReported: true,
				// Value is a 0-10 self-reported intensity scale.
				Bands: []Band{
					{Min: 0, Max: 1, Factor: 5},
					{Min: 1, Max: 4, Factor: 40},
					{Min: 4, Max: 7, Factor: 60},
					{Min: 7, Max: 0, Factor: 85},
				},
			},
			SignalMedAdherence: {
				SelfReported: true,
				// Value is the fraction of doses taken, 0-1.
				Bands: []Band{
					{Min: 0, Max: 0.5, Factor: 65},
					{Min: 0.5, Max: 0.8, Factor: 40},
					{Min: 0.8, Max: 0, Factor: 5},
				},
			},
		},
		Thresholds: Thresholds{Medium: 25, High: 50, Critical: 75},
		TrustBase:  0.85,
		TrustSpan:  0.30,
	}
}

// LoadTable reads a YAML rule file and overlays it on the defaults. Sections
// missing from the file keep their default values.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()

	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read rule table: %w", err)
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("parse rule table: %w", err)
	}
	if err := table.validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

func (t Table) validate() error {
	if t.Version == "" {
		return fmt.Errorf("rule table: version is required")
	}
	if !(t.Thresholds.Medium < t.Thresholds.High && t.Thresholds.High < t.Thresholds.Critical) {
		return fmt.Errorf("rule table: thresholds must be strictly increasing")
	}
	for signalType, rule := range t.Rules {
		if len(rule.Bands) == 0 {
			return fmt.Errorf("rule table: %s has no bands", signalType)
		}
		for _, band := range rule.Bands {
			if band.Max != 0 && band.Max <= band.Min {
				return fmt.Errorf("rule table: %s band [%g,%g) is empty", signalType, band.Min, band.Max)
			}
		}
	}
	return nil
}

// severityFor buckets a 0-100 score. Boundary scores belong to the higher
// bucket.
func (t Table) severityFor(score float64) Severity {
	switch {
	case score >= t.Thresholds.Critical:
		return SeverityCritical
	case score >= t.Thresholds.High:
		return SeverityHigh
	case score >= t.Thresholds.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// bandFor finds the band covering value. Bands are half-open [Min, Max);
// Max == 0 is unbounded above.
func (r Rule) bandFor(value float64) (Band, bool) {
	for _, band := range r.Bands {
		if value >= band.Min && (band.Max == 0 || value < band.Max) {
			return band, true
		}
	}
	return Band{}, false
}
