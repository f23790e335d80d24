package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func TestTextDescriber_Describe(t *testing.T) {
	v := &entity.Verdict{
		Score:  55,
		Tier:   entity.TierMedium,
		Policy: "balanced",
		Evidence: []entity.Evidence{
			{Condition: "cond_localized", Description: "noise/edge localized anomaly (clusters=1)", Weight: 30},
			{Condition: "cond_noise", Description: "halo ratio elevated (halo_ratio=0.55)", Weight: 25},
		},
		Detectors: entity.Report{
			ELA:      entity.Available(entity.ELAMetrics{}),
			Noise:    entity.Available(entity.NoiseMetrics{}),
			CopyMove: entity.Unavailable[entity.CopyMoveMetrics]("insufficient keypoints: 12 < 50"),
			Overlay:  entity.Available(entity.OverlayMetrics{}),
			Metadata: entity.Available(entity.MetadataMetrics{}),
		},
	}

	text, err := NewTextDescriber().Describe(context.Background(), v)
	require.NoError(t, err)

	require.Contains(t, text, "Средний приоритет")
	require.Contains(t, text, "Уровень: MEDIUM, балл 55, политика balanced")
	require.Less(t, strings.Index(text, "localized anomaly"), strings.Index(text, "halo ratio"))
	require.Contains(t, text, "copy_move: insufficient keypoints: 12 < 50")
}

func TestTextDescriber_NilVerdict(t *testing.T) {
	_, err := NewTextDescriber().Describe(context.Background(), nil)
	require.Error(t, err)
}
