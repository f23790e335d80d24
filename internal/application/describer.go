package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// TextDescriber описывает вердикт коротким текстом для человека.
type TextDescriber struct {
	// ShowUnavailable добавляет список детекторов, которые не отработали.
	ShowUnavailable bool
}

func NewTextDescriber() *TextDescriber {
	return &TextDescriber{ShowUnavailable: true}
}

var _ port.VerdictDescriber = (*TextDescriber)(nil)

var tierHeadlines = map[entity.Tier]string{
	entity.TierNormal:   "✅ Признаков подделки не найдено",
	entity.TierLow:      "🟡 Низкий приоритет проверки",
	entity.TierMedium:   "🟠 Средний приоритет проверки",
	entity.TierHigh:     "🔴 Высокий приоритет проверки",
	entity.TierPriority: "🚨 Срочная проверка: совпали независимые признаки",
}

// Describe собирает заголовок уровня, балл, доказательства и недоступные детекторы.
func (d *TextDescriber) Describe(ctx context.Context, v *entity.Verdict) (string, error) {
	if v == nil {
		return "", fmt.Errorf("describe: nil verdict")
	}

	var sb strings.Builder
	headline, ok := tierHeadlines[v.Tier]
	if !ok {
		headline = v.Tier.String()
	}
	sb.WriteString(headline)
	fmt.Fprintf(&sb, "\nУровень: %s, балл %.0f, политика %s", v.Tier, v.Score, v.Policy)

	if len(v.Evidence) > 0 {
		sb.WriteString("\n\nПризнаки:")
		for _, e := range v.Evidence {
			fmt.Fprintf(&sb, "\n• %s", e.Description)
		}
	}

	if d.ShowUnavailable {
		unavailable := v.Detectors.Unavailable()
		names := make([]string, 0, len(unavailable))
		for name := range unavailable {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 0 {
			sb.WriteString("\n\nНе проверено:")
			for _, name := range names {
				fmt.Fprintf(&sb, "\n• %s: %s", name, unavailable[name])
			}
		}
	}
	return sb.String(), nil
}
