package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"plain zero", "0", 0, false},
		{"plain bytes", "1024", 1024, false},
		{"bytes suffix", "1024B", 1024, false},
		{"mebibytes Mi", "512Mi", 512 * MiB, false},
		{"mebibytes MiB", "512MiB", 512 * MiB, false},
		{"gibibytes", "2Gi", 2 * GiB, false},
		{"megabytes", "100MB", 100 * MB, false},
		{"lowercase", "1gi", GiB, false},
		{"space between", "1 Gi", GiB, false},
		{"float", "1.5Gi", ByteSize(1.5 * float64(GiB)), false},

		{"empty", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"invalid unit", "1Xi", 0, true},
		{"negative", "-1Gi", 0, true},
		{"no number", "Gi", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMegabytes(t *testing.T) {
	assert.Equal(t, int64(512), (512 * MiB).Megabytes())
	assert.Equal(t, int64(2048), (2 * GiB).Megabytes())
	assert.Equal(t, int64(0), (512 * KiB).Megabytes())
	assert.Equal(t, int64(1), (MiB + 1).Megabytes())
}

func TestMarshalTextRoundTrip(t *testing.T) {
	for _, in := range []ByteSize{0, 1000, 4 * KiB, 512 * MiB, 3 * GiB, GiB + 1} {
		text, err := in.MarshalText()
		require.NoError(t, err)

		var out ByteSize
		require.NoError(t, out.UnmarshalText(text))
		assert.Equal(t, in, out, "text=%s", text)
	}

	text, _ := (512 * MiB).MarshalText()
	assert.Equal(t, "512Mi", string(text))
}

func TestString(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "1.50GiB", ByteSize(1536*MiB).String())
}
