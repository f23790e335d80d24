// Package policy описывает профили порогов strict/balanced/lenient.
//
// Профиль собирается один раз на оценку из имени политики, контекста снимка
// и необязательных переопределений из файла и дальше передаётся детекторам
// и движку решений только по значению.
package policy

import (
	"fmt"
	"strings"

	"docguard/internal/domain/entity"
)

// Name имя политики.
type Name string

const (
	Strict   Name = "strict"
	Balanced Name = "balanced"
	Lenient  Name = "lenient"
)

// Names все известные политики в порядке чувствительности.
var Names = []Name{Strict, Balanced, Lenient}

// Parse разбирает имя политики. Пустая строка даёт balanced.
// Для неизвестного имени возвращается balanced и ok=false.
func Parse(s string) (Name, bool) {
	switch Name(strings.ToLower(strings.TrimSpace(s))) {
	case Strict:
		return Strict, true
	case Balanced, "":
		return Balanced, true
	case Lenient:
		return Lenient, true
	default:
		return Balanced, false
	}
}

// Condition условие движка решений.
type Condition string

const (
	CondText      Condition = "cond_text"
	CondNoise     Condition = "cond_noise"
	CondLocalized Condition = "cond_localized"
	CondELA       Condition = "cond_ela"
	CondELASlope  Condition = "cond_ela_slope"
	CondCopyMove  Condition = "cond_copymove"
	CondMetadata  Condition = "cond_metadata"
)

// Conditions фиксированный порядок оценки условий.
var Conditions = []Condition{
	CondText, CondNoise, CondLocalized, CondELA, CondELASlope, CondCopyMove, CondMetadata,
}

// Weights баллы за каждое сработавшее условие.
type Weights map[Condition]float64

// Clone возвращает независимую копию таблицы.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Breakpoints нижние границы баллов для уровней.
type Breakpoints struct {
	Low    float64 `json:"low" yaml:"low" toml:"low"`
	Medium float64 `json:"medium" yaml:"medium" toml:"medium"`
	High   float64 `json:"high" yaml:"high" toml:"high"`
}

// Tier переводит балл в уровень.
func (b Breakpoints) Tier(score float64) entity.Tier {
	switch {
	case score >= b.High:
		return entity.TierHigh
	case score >= b.Medium:
		return entity.TierMedium
	case score >= b.Low:
		return entity.TierLow
	default:
		return entity.TierNormal
	}
}

func (b Breakpoints) validate() error {
	if b.Low < 0 || b.High > 100 || b.Low > b.Medium || b.Medium > b.High {
		return fmt.Errorf("breakpoints must satisfy 0 <= low <= medium <= high <= 100, got %+v", b)
	}
	return nil
}

// Profile неизменяемый набор порогов, весов и границ уровней на одну оценку.
type Profile struct {
	Name        Name
	Thresholds  Thresholds
	Weights     Weights
	Breakpoints Breakpoints
}

// Weight балл условия, 0 если условие не взвешено.
func (p Profile) Weight(c Condition) float64 {
	return p.Weights[c]
}

func defaultWeights() Weights {
	return Weights{
		CondText:      35,
		CondNoise:     25,
		CondLocalized: 30,
		CondELA:       20,
		CondELASlope:  10,
		CondCopyMove:  30,
		CondMetadata:  15,
	}
}

// Default профиль политики без учёта контекста.
func Default(name Name) Profile {
	t := baseThresholds()
	b := Breakpoints{Low: 20, Medium: 40, High: 70}

	switch name {
	case Strict:
		t.ELARatio = 1.1
		t.ELAFocalRatio = 2.5
		t.OutlierZ = 2.2
		t.OutlierFloor = 0.04
		t.LocalizedCompactness = 7
		t.HaloHigh = 0.30
		t.CondNoiseHalo = 0.25
		t.CondLocalizedCompactness = 5
		t.StrokeCVMax = 0.25
		t.CopyMoveRatio = 0.8
		t.CondCopyMoveScore = 0.15
		b = Breakpoints{Low: 15, Medium: 35, High: 60}
	case Lenient:
		t.ELARatio = 1.4
		t.ELAFocalRatio = 4
		t.OutlierZ = 3
		t.OutlierFloor = 0.08
		t.LocalizedCompactness = 5
		t.HaloHigh = 0.45
		t.CondNoiseHalo = 0.40
		t.CondLocalizedCompactness = 3
		t.StrokeCVMax = 0.15
		t.CopyMoveRatio = 0.7
		t.CondCopyMoveScore = 0.4
		b = Breakpoints{Low: 25, Medium: 50, High: 80}
	default:
		name = Balanced
	}

	return Profile{
		Name:        name,
		Thresholds:  t,
		Weights:     defaultWeights(),
		Breakpoints: b,
	}
}

const lowDPI = 150

// Resolve собирает профиль на одну оценку: политика из контекста,
// переопределения из файла, ослабления для скриншотов, пережатых фото и низкого DPI.
// Предупреждения описывают откат на balanced.
func Resolve(ectx entity.EvaluationContext, ov *Overrides, defaultSeed uint64) (Profile, []string) {
	var warnings []string

	name, ok := Parse(ectx.Policy)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown policy %q, falling back to %s", ectx.Policy, Balanced))
	}

	p := Default(name)
	if ov != nil {
		if err := ov.apply(&p); err != nil {
			warnings = append(warnings, fmt.Sprintf("policy overrides ignored: %v", err))
			p = Default(name)
		}
	}

	t := &p.Thresholds
	t.Seed = defaultSeed
	if ectx.Seed != 0 {
		t.Seed = ectx.Seed
	}

	if ectx.IsScreenshot {
		// скриншоты сами по себе дают ореолы и резкие края рендера
		t.HaloHigh *= 1.5
		t.CondNoiseHalo *= 1.5
		t.HaloDelta *= 1.3
		t.ELARatio *= 1.25
		t.ELAFocalRatio *= 1.25
		t.ELASlopeEnabled = false
		t.PureColorEnabled = false
	}
	if ectx.IsWhatsAppLike {
		t.ELARatio *= 1.3
		t.ELAFocalRatio *= 1.3
		t.ELASlopeEnabled = false
		t.HaloHigh *= 1.2
		t.CondNoiseHalo *= 1.2
	}
	if ectx.DPI > 0 && ectx.DPI < lowDPI {
		t.OutlierZ += 0.5
		t.StrokeCVMax *= 0.75
		t.HaloDelta *= 1.2
	}

	return p, warnings
}
