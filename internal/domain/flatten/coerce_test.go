package flatten_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/coviddash/internal/domain/flatten"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{name: "json number", in: json.Number("-86.64408227"), want: -86.64408227},
		{name: "float64", in: 10.5, want: 10.5},
		{name: "numeric string", in: "32.53952745", want: 32.53952745},
		{name: "padded string", in: " 7 ", want: 7},
		{name: "empty string", in: "", wantErr: true},
		{name: "word", in: "north", wantErr: true},
		{name: "bool", in: true, wantErr: true},
		{name: "object", in: map[string]any{}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := flatten.Float(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, flatten.ErrBadValue)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{name: "json integer", in: json.Number("81234567"), want: 81234567},
		{name: "json fraction truncates", in: json.Number("12.9"), want: 12},
		{name: "negative fraction truncates toward zero", in: json.Number("-3.7"), want: -3},
		{name: "float64", in: 42.0, want: 42},
		{name: "numeric string", in: "15", want: 15},
		{name: "fractional string", in: "15.5", want: 15},
		{name: "overflow", in: json.Number("1e30"), wantErr: true},
		{name: "word", in: "many", wantErr: true},
		{name: "array", in: []any{}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := flatten.Int(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, flatten.ErrBadValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestString(t *testing.T) {
	s, err := flatten.String("2022-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2022-03-14", s)

	s, err = flatten.String(json.Number("1001"))
	require.NoError(t, err)
	assert.Equal(t, "1001", s)

	s, err = flatten.String(2.5)
	require.NoError(t, err)
	assert.Equal(t, "2.5", s)

	_, err = flatten.String(map[string]any{"a": 1})
	require.ErrorIs(t, err, flatten.ErrBadValue)
}

func TestFloats_ReportsBadLeaf(t *testing.T) {
	doc := decode(t, `{"v":[1,"x",3]}`)

	_, err := flatten.Floats(doc, flatten.MustPath("v.*"))
	require.ErrorIs(t, err, flatten.ErrBadValue)
	assert.Contains(t, err.Error(), "value 1")
}

func TestStrings_SkipsNulls(t *testing.T) {
	doc := decode(t, `["a",null,"c"]`)

	got, err := flatten.Strings(doc, flatten.MustPath("*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
}
