package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type launch struct {
	Runnable  string `json:"runnable" yaml:"runnable"`
	Instances int    `json:"instances" yaml:"instances"`
}

func TestPrinterFormats(t *testing.T) {
	data := launch{Runnable: "oracle", Instances: 3}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(data))
	assert.JSONEq(t, `{"runnable":"oracle","instances":3}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(data))
	assert.Equal(t, "runnable: oracle\ninstances: 3\n", buf.String())

	// Table output without a renderer falls back to JSON.
	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(data))
	assert.JSONEq(t, `{"runnable":"oracle","instances":3}`, buf.String())
}

func TestPrinterStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)
	p.Success("instance initialized")
	p.Warning("leader is live")
	assert.Equal(t, "instance initialized\nleader is live\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatJSON, true).Success("ok")
	assert.Empty(t, buf.String())
}
