package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_ZeroValueIsNotEvaluated(t *testing.T) {
	var r Result[ELAMetrics]
	require.False(t, r.IsAvailable())
	require.Equal(t, "not evaluated", r.Reason())

	_, ok := r.Metrics()
	require.False(t, ok)
}

func TestResult_JSON(t *testing.T) {
	data, err := json.Marshal(Available(CopyMoveMetrics{Keypoints: 120, Score: 0.25}))
	require.NoError(t, err)
	require.JSONEq(t, `{"available":true,"metrics":{"keypoints":120,"match_count":0,"density_per_mp":0,"score_0_1":0.25}}`, string(data))

	data, err = json.Marshal(Unavailable[CopyMoveMetrics]("insufficient keypoints: 3 < 50"))
	require.NoError(t, err)
	require.JSONEq(t, `{"available":false,"reason":"insufficient keypoints: 3 < 50"}`, string(data))

	var back Result[CopyMoveMetrics]
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, "insufficient keypoints: 3 < 50", back.Reason())
}

func TestReport_Unavailable(t *testing.T) {
	r := Report{
		ELA:      Available(ELAMetrics{}),
		Noise:    Available(NoiseMetrics{}),
		CopyMove: Unavailable[CopyMoveMetrics]("insufficient keypoints: 3 < 50"),
		Overlay:  Available(OverlayMetrics{}),
	}
	require.Equal(t, map[string]string{
		DetectorCopyMove: "insufficient keypoints: 3 < 50",
		DetectorMetadata: "not evaluated",
	}, r.Unavailable())
}

func TestOutlierMask_Ratio(t *testing.T) {
	require.Equal(t, 0.0, OutlierMask{}.Ratio())
	m := OutlierMask{NX: 2, NY: 2, Cells: []bool{true, false, false, true}}
	require.Equal(t, 2, m.Count())
	require.Equal(t, 0.5, m.Ratio())
}
