package entity

import (
	"fmt"
	"image"
	"strings"
)

// Tier приоритет проверки документа.
type Tier int

const (
	TierNormal Tier = iota
	TierLow
	TierMedium
	TierHigh
	// TierPriority выставляется правилом совпадения независимых сигналов, а не по баллу.
	TierPriority
)

var tierNames = [...]string{"NORMAL", "LOW", "MEDIUM", "HIGH", "PRIORITY"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText сериализует уровень строкой.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText разбирает строковое имя уровня.
func (t *Tier) UnmarshalText(b []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, n := range tierNames {
		if n == name {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", string(b))
}

// Evidence одно сработавшее условие с метриками, которые его вызвали.
type Evidence struct {
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Confidence  float64 `json:"confidence"`
}

// Verdict итог оценки одного изображения.
type Verdict struct {
	Score       float64    `json:"score"`
	Tier        Tier       `json:"tier"`
	Policy      string     `json:"policy"`
	Evidence    []Evidence `json:"evidence"`
	Fingerprint string     `json:"fingerprint"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Detectors   Report     `json:"detectors"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// EvidenceLines человекочитаемые строки доказательств по порядку.
func (v *Verdict) EvidenceLines() []string {
	out := make([]string, 0, len(v.Evidence))
	for _, e := range v.Evidence {
		out = append(out, e.Description)
	}
	return out
}

// EvaluationContext необязательный контекст оценки от вызывающего кода.
type EvaluationContext struct {
	Policy         string `json:"policy,omitempty"`
	IsScreenshot   bool   `json:"is_screenshot,omitempty"`
	IsWhatsAppLike bool   `json:"is_whatsapp_like,omitempty"`
	DPI            int    `json:"dpi,omitempty"`
	// DeclaredTextRegions готовые текстовые области (например, из OCR).
	DeclaredTextRegions []image.Rectangle `json:"declared_text_regions,omitempty"`
	// Seed зерно для выборок; 0 означает зерно по умолчанию из конфигурации.
	Seed uint64 `json:"seed,omitempty"`
	// Raw исходные байты файла для анализа метаданных, если есть.
	Raw []byte `json:"-"`
	// Format формат исходного файла (jpeg, png, ...).
	Format string `json:"format,omitempty"`
}
