package ocr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func TestEncodePNG_KeepsChannelOrder(t *testing.T) {
	buf := &entity.PixelBuffer{Width: 2, Height: 1, Channels: 3, Pix: []uint8{255, 0, 0, 0, 0, 255}}
	data, err := encodePNG(buf)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	require.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{r, g, b})
	r, _, _, _ = img.At(1, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestLocalizer_Source(t *testing.T) {
	require.Equal(t, entity.RegionSourceOCR, NewLocalizer().Source())
}
