package policy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Section переопределения одной политики.
type Section struct {
	Weights     map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty" toml:"weights,omitempty"`
	Breakpoints *Breakpoints       `json:"breakpoints,omitempty" yaml:"breakpoints,omitempty" toml:"breakpoints,omitempty"`
	Thresholds  map[string]float64 `json:"thresholds,omitempty" yaml:"thresholds,omitempty" toml:"thresholds,omitempty"`
}

// Overrides содержимое файла настройки политик.
type Overrides struct {
	Strict   *Section `json:"strict,omitempty" yaml:"strict,omitempty" toml:"strict,omitempty"`
	Balanced *Section `json:"balanced,omitempty" yaml:"balanced,omitempty" toml:"balanced,omitempty"`
	Lenient  *Section `json:"lenient,omitempty" yaml:"lenient,omitempty" toml:"lenient,omitempty"`
}

func (o *Overrides) section(name Name) *Section {
	switch name {
	case Strict:
		return o.Strict
	case Lenient:
		return o.Lenient
	default:
		return o.Balanced
	}
}

// Validate применяет переопределения ко всем политикам и собирает ошибки.
func (o *Overrides) Validate() error {
	var errs []error
	for _, name := range Names {
		p := Default(name)
		if err := o.apply(&p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (o *Overrides) apply(p *Profile) error {
	sec := o.section(p.Name)
	if sec == nil {
		return nil
	}

	var problems []string

	known := make(map[Condition]bool, len(Conditions))
	for _, c := range Conditions {
		known[c] = true
	}
	for _, key := range sortedKeys(sec.Weights) {
		v := sec.Weights[key]
		c := Condition(key)
		if !known[c] {
			problems = append(problems, fmt.Sprintf("unknown condition %q", key))
			continue
		}
		if v < 0 || v > 100 {
			problems = append(problems, fmt.Sprintf("weight %s=%v out of range [0,100]", key, v))
			continue
		}
		p.Weights[c] = v
	}

	if sec.Breakpoints != nil {
		if err := sec.Breakpoints.validate(); err != nil {
			problems = append(problems, err.Error())
		} else {
			p.Breakpoints = *sec.Breakpoints
		}
	}

	floats := p.Thresholds.floatFields()
	ints := p.Thresholds.intFields()
	for _, key := range sortedKeys(sec.Thresholds) {
		v := sec.Thresholds[key]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			problems = append(problems, fmt.Sprintf("threshold %s=%v must be a finite non-negative number", key, v))
			continue
		}
		if f, ok := floats[key]; ok {
			*f = v
			continue
		}
		if n, ok := ints[key]; ok {
			if v != math.Trunc(v) {
				problems = append(problems, fmt.Sprintf("threshold %s=%v must be an integer", key, v))
				continue
			}
			*n = int(v)
			continue
		}
		problems = append(problems, fmt.Sprintf("unknown threshold %q", key))
	}

	if p.Thresholds.MinGrid < 4 {
		problems = append(problems, fmt.Sprintf("min_grid=%d must be at least 4", p.Thresholds.MinGrid))
	}
	if p.Thresholds.ELAQuality < 1 || p.Thresholds.ELAQuality > 100 {
		problems = append(problems, fmt.Sprintf("ela_quality=%d must be in [1,100]", p.Thresholds.ELAQuality))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
