// Package decision сводит результаты детекторов в итоговый балл, уровень и список доказательств.
package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// Outcome результат движка решений.
type Outcome struct {
	Score    float64
	Tier     entity.Tier
	Priority bool
	Fired    []policy.Condition
	Evidence []entity.Evidence
}

// check проверяет одно условие: сработало ли, описание с метриками и уверенность.
type check func(r entity.Report, t policy.Thresholds) (bool, string, float64)

// rules таблица условий в фиксированном порядке. Баллы берутся из профиля.
var rules = []struct {
	cond  policy.Condition
	check check
}{
	{policy.CondText, checkText},
	{policy.CondNoise, checkNoise},
	{policy.CondLocalized, checkLocalized},
	{policy.CondELA, checkELA},
	{policy.CondELASlope, checkELASlope},
	{policy.CondCopyMove, checkCopyMove},
	{policy.CondMetadata, checkMetadata},
}

// Decide чистая функция: одинаковый отчёт и профиль дают одинаковый результат.
// Недоступный детектор не может вызвать ни одно условие.
func Decide(r entity.Report, p policy.Profile) Outcome {
	out := Outcome{Evidence: make([]entity.Evidence, 0)}
	fired := make(map[policy.Condition]bool, len(rules))

	for _, rule := range rules {
		ok, desc, conf := rule.check(r, p.Thresholds)
		if !ok {
			continue
		}
		w := p.Weight(rule.cond)
		fired[rule.cond] = true
		out.Fired = append(out.Fired, rule.cond)
		out.Score += w
		out.Evidence = append(out.Evidence, entity.Evidence{
			Condition:   string(rule.cond),
			Description: desc,
			Weight:      w,
			Confidence:  round(clamp(conf, 0, 1), 3),
		})
	}

	out.Score = clamp(out.Score, 0, 100)

	sort.SliceStable(out.Evidence, func(i, j int) bool {
		return out.Evidence[i].Weight > out.Evidence[j].Weight
	})

	// совпадение независимых детекторов сильнее любого одиночного балла
	if fired[policy.CondText] && fired[policy.CondNoise] && fired[policy.CondLocalized] {
		out.Priority = true
		out.Tier = entity.TierPriority
		return out
	}

	out.Tier = p.Breakpoints.Tier(out.Score)
	return out
}

func checkText(r entity.Report, _ policy.Thresholds) (bool, string, float64) {
	m, ok := r.Overlay.Metrics()
	if !ok || (!m.SyntheticDetected && !m.OverlayDetected) {
		return false, "", 0
	}

	synthetic := 0
	minCV := math.Inf(1)
	for _, c := range m.Synthetic {
		if c.Uniform || c.PureColor {
			synthetic++
			minCV = math.Min(minCV, c.StrokeCV)
		}
	}
	parts := []string{
		fmt.Sprintf("synthetic=%d", synthetic),
		fmt.Sprintf("overlays=%d", len(m.Overlays)),
	}
	if !math.IsInf(minCV, 1) {
		parts = append(parts, fmt.Sprintf("min_stroke_cv=%.2f", minCV))
	}

	conf := 0.7
	if m.SyntheticDetected && m.OverlayDetected {
		conf = 0.9
	}
	return true, "synthetic/overlay text detected (" + strings.Join(parts, ", ") + ")", conf
}

func checkNoise(r entity.Report, t policy.Thresholds) (bool, string, float64) {
	m, ok := r.Noise.Metrics()
	if !ok || m.OutlierRatio <= t.OutlierFloor || m.HaloRatio < t.CondNoiseHalo {
		return false, "", 0
	}
	desc := fmt.Sprintf("halo ratio elevated (halo_ratio=%.2f, outlier_ratio=%.2f, sampled=%d)",
		m.HaloRatio, m.OutlierRatio, m.HaloSampled)
	return true, desc, confidence(m.HaloRatio, t.CondNoiseHalo)
}

func checkLocalized(r entity.Report, t policy.Thresholds) (bool, string, float64) {
	m, ok := r.Noise.Metrics()
	if !ok || !m.LocalEditSuspected || m.MinCompactness > t.CondLocalizedCompactness {
		return false, "", 0
	}
	desc := fmt.Sprintf("noise/edge localized anomaly (clusters=%d, min_compactness=%.2f, outlier_ratio=%.2f, severity=%s)",
		m.LocalizedClusters, m.MinCompactness, m.OutlierRatio, m.Severity)
	// меньшая компактность сильнее
	return true, desc, confidence(t.CondLocalizedCompactness, m.MinCompactness)
}

func checkELA(r entity.Report, t policy.Thresholds) (bool, string, float64) {
	m, ok := r.ELA.Metrics()
	if !ok {
		return false, "", 0
	}
	global := m.Ratio >= t.ELARatio
	focal := m.FocalRatio >= t.ELAFocalRatio
	if !global && !focal {
		return false, "", 0
	}
	desc := fmt.Sprintf("ELA recompression signal (ela_ratio=%.2f, focal_ratio=%.2f, p95=%.1f)",
		m.Ratio, m.FocalRatio, m.P95)
	conf := math.Max(confidence(m.Ratio, t.ELARatio), confidence(m.FocalRatio, t.ELAFocalRatio))
	return true, desc, conf
}

func checkELASlope(r entity.Report, t policy.Thresholds) (bool, string, float64) {
	m, ok := r.ELA.Metrics()
	if !ok || !t.ELASlopeEnabled || !m.SlopeChecked || !m.SlopeAnomaly {
		return false, "", 0
	}
	return true, fmt.Sprintf("ELA quality slope anomaly (slope=%.3f, levels=%d)", m.Slope, len(m.Curve)), 0.6
}

func checkCopyMove(r entity.Report, t policy.Thresholds) (bool, string, float64) {
	m, ok := r.CopyMove.Metrics()
	if !ok || m.Score <= 0 || m.Score < t.CondCopyMoveScore {
		return false, "", 0
	}
	desc := fmt.Sprintf("copy-move duplicated regions (matches=%d, density=%.1f/MP, score=%.2f)",
		m.MatchCount, m.Density, m.Score)
	return true, desc, m.Score
}

func checkMetadata(r entity.Report, _ policy.Thresholds) (bool, string, float64) {
	m, ok := r.Metadata.Metrics()
	if !ok || len(m.Anomalies) == 0 {
		return false, "", 0
	}
	return true, "metadata editing traces (" + strings.Join(m.Anomalies, "; ") + ")", 0.6
}

// confidence 0.5 на пороге, 1.0 при двукратном превышении.
func confidence(value, threshold float64) float64 {
	if threshold <= 0 {
		return 1
	}
	return clamp(0.5*value/threshold, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
