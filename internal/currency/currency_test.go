package currency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountRupees(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		want   int64
	}{
		{"rupees pass through", Rupees(6_000_000), 6_000_000},
		{"one lakh", Lakhs(1), 100_000},
		{"fifty lakh", Lakhs(50), 5_000_000},
		{"fractional lakh", Lakhs(82.5), 8_250_000},
		{"one crore", Crores(1), 10_000_000},
		{"one and a half crore", Crores(1.5), 15_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.Rupees())
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"50L", 5_000_000, false},
		{"1Cr", 10_000_000, false},
		{"1.5Cr", 15_000_000, false},
		{"75 lakh", 7_500_000, false},
		{"2 crore", 20_000_000, false},
		{"₹45L", 4_500_000, false},
		{"7,500,000", 7_500_000, false},
		{"0", 0, false},
		{"", 0, true},
		{"cheap", 0, true},
		{"-5L", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Rupees())
		})
	}
}

func TestFormatShort(t *testing.T) {
	assert.Equal(t, "₹75 L", FormatShort(7_500_000))
	assert.Equal(t, "₹1 Cr", FormatShort(10_000_000))
	assert.Equal(t, "₹1.25 Cr", FormatShort(12_500_000))
	assert.Equal(t, "₹95,000", FormatShort(95_000))
	assert.Equal(t, "₹500", FormatShort(500))
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "₹60 L - ₹1.1 Cr", FormatRange(6_000_000, 11_000_000))
	assert.Equal(t, "₹60 L", FormatRange(6_000_000, 0))
	assert.Equal(t, "₹60 L", FormatRange(6_000_000, 6_000_000))
}

func TestGroupIndian(t *testing.T) {
	assert.Equal(t, "12,34,567", groupIndian(1_234_567))
	assert.Equal(t, "1,00,000", groupIndian(100_000))
	assert.Equal(t, "999", groupIndian(999))
}
