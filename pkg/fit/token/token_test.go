package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		key     string
		value   string
		wantErr bool
	}{
		{name: "simple", input: "sep=;", key: "sep", value: ";"},
		{name: "surrounding whitespace", input: "  rpm_idle = 850 ", key: "rpm_idle", value: "850"},
		{name: "empty value", input: "encoding=", key: "encoding", value: ""},
		{name: "embedded equals", input: "expr=a=b=c", key: "expr", value: "a=b=c"},
		{name: "underscore and digits in key", input: "p_max2=660", key: "p_max2", value: "660"},
		{name: "absolute model path", input: "fuel=PETROL", key: "fuel", value: "PETROL"},
		{name: "no equals", input: "just-a-word", wantErr: true},
		{name: "key starts with digit", input: "1sep=;", wantErr: true},
		{name: "key starts with underscore", input: "_sep=;", wantErr: true},
		{name: "key with dash before equals", input: "a-b=c", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "only equals", input: "=value", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv, err := ParseKeyValue(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSyntax), "error should be ErrSyntax, got %v", err)
				var synErr *SyntaxError
				require.True(t, errors.As(err, &synErr))
				assert.Equal(t, tc.input, synErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.key, kv.Key)
			assert.Equal(t, tc.value, kv.Value)
		})
	}
}

// The round-trip property: rebuilding key + "=" + value reproduces the input
// once surrounding whitespace and the whitespace around '=' are normalized.
func TestParseKeyValueRoundTrip(t *testing.T) {
	inputs := []string{"a=b", " a =b", "a= b ", "\ta\t=\tb\t", "key=v=w"}
	for _, in := range inputs {
		kv, err := ParseKeyValue(in)
		require.NoError(t, err, "input %q", in)
		again, err := ParseKeyValue(kv.Key + "=" + kv.Value)
		require.NoError(t, err)
		assert.Equal(t, kv, again, "round trip changed result for %q", in)
	}
}

func TestParseColumnSpec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		col     string
		units   string
		wantErr bool
	}{
		{name: "bare name", input: "CM", col: "CM"},
		{name: "name with units", input: "Pnorm (kW)", col: "Pnorm", units: "kW"},
		{name: "units without space", input: "FC(g/s)", col: "FC", units: "g/s"},
		{name: "surrounding whitespace", input: "  RPM  ", col: "RPM"},
		{name: "whitespace before units", input: " T  (Nm) ", col: "T", units: "Nm"},
		{name: "multi word name", input: "Fuel consumption", col: "Fuel consumption"},
		{name: "multi word with units", input: "Fuel waste (g/h)", col: "Fuel waste", units: "g/h"},
		{name: "closing paren in name", input: "A)b", col: "A)b"},
		{name: "open paren in units", input: "A((b)", col: "A", units: "(b"},
		{name: "skip marker", input: "X", col: "X"},
		{name: "empty input", input: "", wantErr: true},
		{name: "only whitespace", input: "  ", wantErr: true},
		{name: "leading paren", input: "(kW)", wantErr: true},
		{name: "unclosed units", input: "A(b", wantErr: true},
		{name: "empty units", input: "A()", wantErr: true},
		{name: "trailing text after units", input: "A (u) x", wantErr: true},
		{name: "second units group", input: "A(u)(v)", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs, err := ParseColumnSpec(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSyntax), "error should be ErrSyntax, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.col, cs.Name)
			assert.Equal(t, tc.units, cs.Units)
		})
	}
}

// Whitespace variations of the same specifier must normalize identically.
func TestParseColumnSpecWhitespaceNormalization(t *testing.T) {
	variants := []string{"Pnorm (kW)", "Pnorm(kW)", "  Pnorm  (kW)  ", "\tPnorm (kW)\t"}
	want := ColumnSpec{Name: "Pnorm", Units: "kW"}
	for _, in := range variants {
		cs, err := ParseColumnSpec(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, cs, "input %q", in)
	}
}
