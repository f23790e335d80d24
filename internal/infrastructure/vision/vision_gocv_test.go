//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// noiseBuffer случайная текстура, богатая ключевыми точками.
func noiseBuffer(w, h int, seed uint64) *entity.PixelBuffer {
	rng := rand.New(rand.NewPCG(seed, seed))
	pix := make([]uint8, w*h*3)
	for i := 0; i < w*h; i++ {
		v := uint8(rng.IntN(256))
		pix[i*3], pix[i*3+1], pix[i*3+2] = v, v, v
	}
	return &entity.PixelBuffer{Width: w, Height: h, Channels: 3, Pix: pix}
}

// clonePatch копирует квадрат size×size из (sx,sy) в (sx+dx, sy+dy) по снимку исходника.
func clonePatch(buf *entity.PixelBuffer, sx, sy, size, dx, dy int) *entity.PixelBuffer {
	out := &entity.PixelBuffer{Width: buf.Width, Height: buf.Height, Channels: 3, Pix: append([]uint8(nil), buf.Pix...)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			src := ((sy+y)*buf.Width + sx + x) * 3
			dst := ((sy+y+dy)*buf.Width + sx + x + dx) * 3
			copy(out.Pix[dst:dst+3], buf.Pix[src:src+3])
		}
	}
	return out
}

func flatBuffer(w, h int, v uint8) *entity.PixelBuffer {
	pix := make([]uint8, w*h*3)
	for i := range pix {
		pix[i] = v
	}
	return &entity.PixelBuffer{Width: w, Height: h, Channels: 3, Pix: pix}
}

func request(buf *entity.PixelBuffer) port.DetectRequest {
	return port.DetectRequest{Buffer: buf, Thresholds: balanced()}
}

func TestCopyMoveDetector_FarCloneIsFound(t *testing.T) {
	base := noiseBuffer(400, 400, 3)
	d := NewCopyMoveDetector()

	clean, ok := d.Detect(context.Background(), request(base)).Metrics()
	require.True(t, ok)

	forged, ok := d.Detect(context.Background(), request(clonePatch(base, 50, 50, 100, 200, 200))).Metrics()
	require.True(t, ok)
	require.Greater(t, forged.MatchCount, clean.MatchCount)
	require.Greater(t, forged.Score, 0.0)
	for _, m := range forged.Matches {
		require.GreaterOrEqual(t, m.Distance, 20.0)
	}
}

func TestCopyMoveDetector_ShortOffsetIgnored(t *testing.T) {
	base := noiseBuffer(400, 400, 5)
	r := NewCopyMoveDetector().Detect(context.Background(), request(clonePatch(base, 150, 150, 100, 10, 0)))
	m, ok := r.Metrics()
	require.True(t, ok)
	require.Zero(t, m.Score)
}

func TestCopyMoveDetector_FlatImageUnavailable(t *testing.T) {
	r := NewCopyMoveDetector().Detect(context.Background(), request(flatBuffer(300, 300, 200)))
	require.False(t, r.IsAvailable())
	require.Contains(t, r.Reason(), "insufficient keypoints")
}

func TestELADetector_Available(t *testing.T) {
	r := NewELADetector().Detect(context.Background(), request(noiseBuffer(256, 256, 1)))
	m, ok := r.Metrics()
	require.True(t, ok)
	require.Equal(t, 90, m.Quality)
	require.Greater(t, m.Mean, 0.0)
	require.True(t, m.SlopeChecked)
	require.Len(t, m.Curve, 4)
	require.NotNil(t, m.Map)
	require.Equal(t, 256*256, len(m.Map.Values))
}

func TestNoiseDetector_Deterministic(t *testing.T) {
	buf := noiseBuffer(320, 320, 11)
	d := NewNoiseDetector()
	m1, ok := d.Detect(context.Background(), request(buf)).Metrics()
	require.True(t, ok)
	m2, ok := d.Detect(context.Background(), request(buf)).Metrics()
	require.True(t, ok)
	require.Equal(t, m1, m2)
	require.GreaterOrEqual(t, m1.Grid.NX, 4)
}

func TestOverlayDetector_PastedColoredStroke(t *testing.T) {
	const w, h = 300, 300
	buf := flatBuffer(w, h, 200)
	fill := func(r image.Rectangle, b, g, rd uint8) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				i := (y*w + x) * 3
				buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = b, g, rd
			}
		}
	}
	for x := 60; x < 240; x += 12 {
		fill(image.Rect(x, 155, x+4, 178), 0, 0, 0)
	}
	fill(image.Rect(60, 185, 200, 193), 0, 0, 255)

	req := request(buf)
	req.TextRegions = []entity.TextRegion{{Box: image.Rect(50, 150, 250, 182), Source: entity.RegionSourceDeclared}}

	m, ok := NewOverlayDetector().Detect(context.Background(), req).Metrics()
	require.True(t, ok)
	require.True(t, m.OverlayDetected, m.OverlayReason)
	require.True(t, m.SyntheticDetected)
}

func TestTextLocator_FindsLines(t *testing.T) {
	const w, h = 300, 200
	buf := flatBuffer(w, h, 230)
	for x := 40; x < 260; x += 8 {
		for y := 80; y < 96; y++ {
			for dx := 0; dx < 3; dx++ {
				i := (y*w + x + dx) * 3
				buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = 20, 20, 20
			}
		}
	}
	boxes, err := NewTextLocator().Locate(context.Background(), buf)
	require.NoError(t, err)
	require.NotEmpty(t, boxes)
	require.True(t, boxes[0].Overlaps(image.Rect(40, 80, 260, 96)))
}

func TestHighlighter_ProducesJPEG(t *testing.T) {
	buf := noiseBuffer(64, 64, 2)
	out, err := NewHighlighter().Highlight(buf, &entity.Verdict{})
	require.NoError(t, err)
	require.Greater(t, len(out), 2)
	require.Equal(t, []byte{0xFF, 0xD8}, out[:2])
}

func TestHighlighter_LeavesBufferIntact(t *testing.T) {
	for _, channels := range []int{3, 1} {
		buf := noiseBuffer(64, 64, 3)
		if channels == 1 {
			gray, err := entity.NewPixelBuffer(64, 64, 1, buf.Gray())
			require.NoError(t, err)
			buf = gray
		}
		before := append([]uint8(nil), buf.Pix...)

		v := &entity.Verdict{}
		v.Detectors.Noise = entity.Available(entity.NoiseMetrics{
			Clusters: []entity.Cluster{{Bounds: image.Rect(8, 8, 40, 40), Tiles: 1, Localized: true}},
		})
		out, err := NewHighlighter().Highlight(buf, v)
		require.NoError(t, err)
		require.Equal(t, []byte{0xFF, 0xD8}, out[:2])
		require.Equal(t, before, buf.Pix, "channels=%d", channels)
	}
}
