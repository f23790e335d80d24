package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func TestGatherImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	files, err := gatherImages(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.webp"),
	}, files)
}

func TestGatherImages_Empty(t *testing.T) {
	_, err := gatherImages(t.TempDir())
	require.ErrorIs(t, err, errNoImages)
}

func TestWriteELA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	m := &entity.ELAMap{Width: 3, Height: 2, Values: []float64{0, 5, 10, 10, 5, 0}}
	require.NoError(t, writeELA(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 3, img.Bounds().Dx())
	r, _, _, _ := img.At(2, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestWriteJSON(t *testing.T) {
	results := []fileResult{{File: "a.png", Verdict: &entity.Verdict{Tier: entity.TierHigh, Evidence: []entity.Evidence{}}}}

	var single bytes.Buffer
	require.NoError(t, writeJSON(&single, results, true))
	var one map[string]any
	require.NoError(t, json.Unmarshal(single.Bytes(), &one))
	require.Equal(t, "a.png", one["file"])
	require.Equal(t, "HIGH", one["verdict"].(map[string]any)["tier"])

	var many bytes.Buffer
	require.NoError(t, writeJSON(&many, results, false))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(many.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestAnyAtLeast(t *testing.T) {
	results := []fileResult{
		{File: "a", Verdict: &entity.Verdict{Tier: entity.TierLow}},
		{File: "b", Error: "boom"},
	}
	require.True(t, anyAtLeast(results, entity.TierLow))
	require.False(t, anyAtLeast(results, entity.TierMedium))
}
