package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name         string
		costPrice    float64
		sellingPrice float64
		quantity     int64
		wantErr      error
	}{
		{"ok", 80, 120, 10, nil},
		{"zero quantity ok", 80, 120, 0, nil},
		{"selling equals cost", 80, 80, 10, nil},
		{"negative quantity", 80, 120, -1, ErrInvalidQuantity},
		{"negative price", 80, -1, 10, ErrInvalidPrice},
		{"below cost", 80, 79.99, 10, ErrPriceBelowCost},
		{"free product", 0, 0, 10, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.costPrice, tc.sellingPrice, tc.quantity)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	require.Equal(t, BandCritical, BandFor(0))
	require.Equal(t, BandCritical, BandFor(5))
	require.Equal(t, BandReorder, BandFor(6))
	require.Equal(t, BandReorder, BandFor(20))
	require.Equal(t, BandSafe, BandFor(21))
}

func TestParseQuantity(t *testing.T) {
	v, err := ParseQuantity("42")
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	_, err = ParseQuantity("not-a-number")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ParseQuantity("4.5")
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestParseAndValidate(t *testing.T) {
	qty, price, err := ParseAndValidate("10", "120", 80)
	require.NoError(t, err)
	require.EqualValues(t, 10, qty)
	require.Equal(t, 120.0, price)

	_, _, err = ParseAndValidate("10", "50", 80)
	require.ErrorIs(t, err, ErrPriceBelowCost)
}

func TestParsePrice(t *testing.T) {
	v, err := ParsePrice("99.95")
	require.NoError(t, err)
	require.Equal(t, 99.95, v)

	_, err = ParsePrice("abc")
	require.ErrorIs(t, err, ErrInvalidPrice)
}
