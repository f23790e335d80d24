package entity

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func TestTier_Text(t *testing.T) {
	for tier := TierNormal; tier <= TierPriority; tier++ {
		text, err := tier.MarshalText()
		require.NoError(t, err)

		var back Tier
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, tier, back)
	}

	var tier Tier
	require.NoError(t, tier.UnmarshalText([]byte(" medium ")))
	require.Equal(t, TierMedium, tier)
	require.Error(t, tier.UnmarshalText([]byte("CRITICAL")))
	require.Equal(t, "Tier(9)", Tier(9).String())
}

func verdictSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	data, err := os.ReadFile("verdict.schema.json")
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource("verdict.schema.json", strings.NewReader(string(data))))
	schema, err := compiler.Compile("verdict.schema.json")
	require.NoError(t, err)
	return schema
}

func validateVerdict(t *testing.T, schema *jsonschema.Schema, v *Verdict) error {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var doc any
	require.NoError(t, json.Unmarshal(data, &doc))
	return schema.Validate(doc)
}

func sampleVerdict() *Verdict {
	return &Verdict{
		Score:  55,
		Tier:   TierMedium,
		Policy: "balanced",
		Evidence: []Evidence{
			{Condition: "cond_localized", Description: "noise/edge localized anomaly", Weight: 30, Confidence: 0.8},
		},
		Fingerprint: strings.Repeat("ab", 32),
		Width:       640,
		Height:      480,
		Detectors: Report{
			ELA:      Available(ELAMetrics{Quality: 90}),
			Noise:    Available(NoiseMetrics{Severity: SeverityMedium}),
			CopyMove: Unavailable[CopyMoveMetrics]("insufficient keypoints: 12 < 50"),
			Overlay:  Unavailable[OverlayMetrics]("empty roi: no text regions"),
			Metadata: Unavailable[MetadataMetrics]("no source bytes"),
		},
		Warnings: []string{"copy_move unavailable: insufficient keypoints: 12 < 50"},
	}
}

func TestVerdict_MatchesSchema(t *testing.T) {
	schema := verdictSchema(t)
	require.NoError(t, validateVerdict(t, schema, sampleVerdict()))

	clean := sampleVerdict()
	clean.Score, clean.Tier, clean.Evidence = 0, TierNormal, []Evidence{}
	require.NoError(t, validateVerdict(t, schema, clean))
}

func TestVerdict_SchemaRejects(t *testing.T) {
	schema := verdictSchema(t)

	over := sampleVerdict()
	over.Score = 120
	require.Error(t, validateVerdict(t, schema, over))

	badFingerprint := sampleVerdict()
	badFingerprint.Fingerprint = "xyz"
	require.Error(t, validateVerdict(t, schema, badFingerprint))

	noEvidence := sampleVerdict()
	noEvidence.Evidence = nil
	require.Error(t, validateVerdict(t, schema, noEvidence))
}

func TestVerdict_EvidenceLines(t *testing.T) {
	require.Equal(t, []string{"noise/edge localized anomaly"}, sampleVerdict().EvidenceLines())
}
