package decision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

func balanced() policy.Profile {
	return policy.Default(policy.Balanced)
}

func cleanReport() entity.Report {
	return entity.Report{
		ELA:      entity.Available(entity.ELAMetrics{Quality: 90, Ratio: 0.9, FocalRatio: 1.2}),
		Noise:    entity.Available(entity.NoiseMetrics{Severity: entity.SeverityNone}),
		CopyMove: entity.Available(entity.CopyMoveMetrics{Keypoints: 400}),
		Overlay:  entity.Available(entity.OverlayMetrics{}),
		Metadata: entity.Unavailable[entity.MetadataMetrics]("no metadata"),
	}
}

func localizedNoise() entity.NoiseMetrics {
	return entity.NoiseMetrics{
		OutlierRatio:       0.20,
		Clusters:           []entity.Cluster{{Tiles: 4, Compactness: 2.0, Localized: true}},
		LocalizedClusters:  1,
		MinCompactness:     2.0,
		HaloRatio:          0.55,
		HaloSampled:        1000,
		LocalEditSuspected: true,
		Severity:           entity.SeverityMedium,
	}
}

func TestDecide_CleanImage(t *testing.T) {
	out := Decide(cleanReport(), balanced())
	require.Equal(t, 0.0, out.Score)
	require.Equal(t, entity.TierNormal, out.Tier)
	require.NotNil(t, out.Evidence)
	require.Empty(t, out.Evidence)
	require.False(t, out.Priority)
}

func TestDecide_AllUnavailable(t *testing.T) {
	out := Decide(entity.Report{}, balanced())
	require.Equal(t, 0.0, out.Score)
	require.Equal(t, entity.TierNormal, out.Tier)
	require.Empty(t, out.Evidence)
}

func TestDecide_LocalizedNoiseWithHalo(t *testing.T) {
	r := cleanReport()
	r.Noise = entity.Available(localizedNoise())

	out := Decide(r, balanced())
	require.GreaterOrEqual(t, out.Tier, entity.TierMedium)
	require.Equal(t, []policy.Condition{policy.CondNoise, policy.CondLocalized}, out.Fired)

	lines := make([]string, 0, len(out.Evidence))
	for _, e := range out.Evidence {
		lines = append(lines, e.Description)
	}
	require.Len(t, lines, 2)
	// вес локализации выше, поэтому она первая
	require.Contains(t, lines[0], "noise/edge localized anomaly")
	require.Contains(t, lines[0], "min_compactness=2.00")
	require.Contains(t, lines[1], "halo ratio elevated")
	require.Contains(t, lines[1], "halo_ratio=0.55")
}

func TestDecide_HaloNeedsOutliersAboveFloor(t *testing.T) {
	p := balanced()
	r := cleanReport()
	r.Noise = entity.Available(entity.NoiseMetrics{OutlierRatio: p.Thresholds.OutlierFloor, HaloRatio: 0.55, HaloSampled: 1000})
	require.Empty(t, Decide(r, p).Fired)

	r.Noise = entity.Available(entity.NoiseMetrics{OutlierRatio: p.Thresholds.OutlierFloor + 0.01, HaloRatio: 0.55, HaloSampled: 1000})
	require.Equal(t, []policy.Condition{policy.CondNoise}, Decide(r, p).Fired)
}

func TestDecide_PriorityOverride(t *testing.T) {
	r := cleanReport()
	r.Noise = entity.Available(localizedNoise())
	r.Overlay = entity.Available(entity.OverlayMetrics{
		SyntheticDetected: true,
		Synthetic:         []entity.SyntheticTextCandidate{{StrokeCV: 0.05, Uniform: true}},
	})

	p := balanced()
	// даже при нулевых весах совпадение трёх условий даёт высший приоритет
	for c := range p.Weights {
		p.Weights[c] = 0
	}
	out := Decide(r, p)
	require.True(t, out.Priority)
	require.Equal(t, entity.TierPriority, out.Tier)
	require.Equal(t, 0.0, out.Score)
}

func TestDecide_ScoreCapped(t *testing.T) {
	r := entity.Report{
		ELA:      entity.Available(entity.ELAMetrics{Ratio: 3, FocalRatio: 9, SlopeChecked: true, SlopeAnomaly: true}),
		Noise:    entity.Available(localizedNoise()),
		CopyMove: entity.Available(entity.CopyMoveMetrics{MatchCount: 300, Density: 80, Score: 1}),
		Overlay: entity.Available(entity.OverlayMetrics{
			SyntheticDetected: true,
			OverlayDetected:   true,
			Overlays:          []entity.OverlayCandidate{{AspectRatio: 5}},
		}),
		Metadata: entity.Available(entity.MetadataMetrics{Anomalies: []string{"edited with Adobe Photoshop"}}),
	}
	out := Decide(r, balanced())
	require.Equal(t, 100.0, out.Score)
	require.Len(t, out.Fired, len(policy.Conditions))
	for i := 1; i < len(out.Evidence); i++ {
		require.GreaterOrEqual(t, out.Evidence[i-1].Weight, out.Evidence[i].Weight)
	}
	for _, e := range out.Evidence {
		require.GreaterOrEqual(t, e.Confidence, 0.0)
		require.LessOrEqual(t, e.Confidence, 1.0)
	}
}

func TestDecide_UnavailableDetectorNeverFires(t *testing.T) {
	r := cleanReport()
	r.Noise = entity.Unavailable[entity.NoiseMetrics]("image too small for tile grid")
	r.CopyMove = entity.Unavailable[entity.CopyMoveMetrics]("insufficient keypoints: 12 < 50")
	out := Decide(r, balanced())
	require.Equal(t, 0.0, out.Score)
	require.Empty(t, out.Fired)
}

func TestDecide_ELASlopeRespectsContext(t *testing.T) {
	r := cleanReport()
	r.ELA = entity.Available(entity.ELAMetrics{Ratio: 0.8, SlopeChecked: true, SlopeAnomaly: true})

	out := Decide(r, balanced())
	require.Equal(t, []policy.Condition{policy.CondELASlope}, out.Fired)

	wa, _ := policy.Resolve(entity.EvaluationContext{IsWhatsAppLike: true}, nil, 1)
	out = Decide(r, wa)
	require.Empty(t, out.Fired)
}

func TestDecide_CopyMoveThreshold(t *testing.T) {
	r := cleanReport()
	r.CopyMove = entity.Available(entity.CopyMoveMetrics{MatchCount: 3, Density: 3, Score: 0.075})
	require.Empty(t, Decide(r, balanced()).Fired)

	r.CopyMove = entity.Available(entity.CopyMoveMetrics{MatchCount: 40, Density: 40, Score: 1})
	out := Decide(r, balanced())
	require.Equal(t, []policy.Condition{policy.CondCopyMove}, out.Fired)
	require.Equal(t, 30.0, out.Score)
	require.Equal(t, entity.TierLow, out.Tier)
}

func TestDecide_TierMonotonicInScore(t *testing.T) {
	p := balanced()
	r := cleanReport()
	r.Noise = entity.Available(localizedNoise())

	prevScore, prevTier := -1.0, entity.TierNormal
	// добавляем условия по одному: балл растёт, уровень не падает
	steps := []func(*entity.Report){
		func(*entity.Report) {},
		func(r *entity.Report) {
			r.CopyMove = entity.Available(entity.CopyMoveMetrics{Score: 1, MatchCount: 50})
		},
		func(r *entity.Report) {
			r.Metadata = entity.Available(entity.MetadataMetrics{Anomalies: []string{"x"}})
		},
	}
	for _, step := range steps {
		step(&r)
		out := Decide(r, p)
		require.Greater(t, out.Score, prevScore)
		require.GreaterOrEqual(t, out.Tier, prevTier)
		prevScore, prevTier = out.Score, out.Tier
	}
}

func TestDecide_Deterministic(t *testing.T) {
	r := cleanReport()
	r.Noise = entity.Available(localizedNoise())
	a := Decide(r, balanced())
	b := Decide(r, balanced())
	require.Equal(t, a, b)
}
