package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPixelBuffer_Validate(t *testing.T) {
	cases := []struct {
		name string
		buf  *PixelBuffer
		want error
	}{
		{"nil", nil, ErrEmptyImage},
		{"no pixels", &PixelBuffer{Width: 2, Height: 2, Channels: 1}, ErrEmptyImage},
		{"zero width", &PixelBuffer{Width: 0, Height: 2, Channels: 1, Pix: []uint8{1, 2}}, ErrInvalidDimensions},
		{"four channels", &PixelBuffer{Width: 1, Height: 1, Channels: 4, Pix: []uint8{1, 2, 3, 4}}, ErrUnsupportedChannels},
		{"short data", &PixelBuffer{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 11)}, ErrInvalidDimensions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.buf.Validate()
			require.ErrorIs(t, err, tc.want)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
		})
	}

	_, err := NewPixelBuffer(2, 1, 3, make([]uint8, 6))
	require.NoError(t, err)
}

func TestPixelBuffer_GrayAndBGR(t *testing.T) {
	// синий, зелёный, красный в порядке BGR
	buf, err := NewPixelBuffer(3, 1, 3, []uint8{255, 0, 0, 0, 255, 0, 0, 0, 255})
	require.NoError(t, err)

	require.Equal(t, []uint8{29, 150, 76}, buf.Gray())

	b, g, r := buf.BGR(2, 0)
	require.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{b, g, r})

	gray, err := NewPixelBuffer(1, 1, 1, []uint8{7})
	require.NoError(t, err)
	b, g, r = gray.BGR(0, 0)
	require.Equal(t, [3]uint8{7, 7, 7}, [3]uint8{b, g, r})
	require.InDelta(t, 1e-6, gray.Megapixels(), 1e-12)
}

func TestInputError_Message(t *testing.T) {
	err := &InputError{Reason: "decode", Err: ErrEmptyImage}
	require.Equal(t, "input error: decode: empty image", err.Error())
	require.Equal(t, "input error: empty image", (&InputError{Err: ErrEmptyImage}).Error())
}
