package bytesize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"0", 0},
		{"512", 512},
		{"512B", 512},
		{"32KiB", 32 * KiB},
		{"32ki", 32 * KiB},
		{"32 KiB", 32 * KiB},
		{"  1Mi  ", MiB},
		{"1MiB", MiB},
		{"2GiB", 2 * GiB},
		{"1TiB", TiB},
		{"64KB", 64 * KB},
		{"64k", 64 * KB},
		{"1mb", MB},
		{"3G", 3 * GB},
		{"1.5Mi", MiB + 512*KiB},
		{"0.5KiB", 512},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "KiB", "12XB", "-1", "1.2.3Ki", "99999999999999999999", "20000000TiB"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, 32*KiB, MustParse("32KiB"))
	assert.Panics(t, func() { MustParse("lots") })
}

func TestString(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0"},
		{512, "512"},
		{KiB, "1KiB"},
		{32 * KiB, "32KiB"},
		{1536, "1536"},
		{MiB, "1MiB"},
		{3 * GiB, "3GiB"},
		{2 * TiB, "2TiB"},
		{64 * KB, "64000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())

		back, err := Parse(tt.in.String())
		require.NoError(t, err)
		assert.Equal(t, tt.in, back, "round trip of %s", tt.want)
	}
}

func TestHumanString(t *testing.T) {
	assert.Equal(t, "100 B", ByteSize(100).HumanString())
	assert.Equal(t, "1.50 KiB", ByteSize(1536).HumanString())
	assert.Equal(t, "2.00 GiB", (2 * GiB).HumanString())
}

func TestConversions(t *testing.T) {
	assert.Equal(t, 32768, (32 * KiB).Int())
	assert.Equal(t, int64(MiB), MiB.Int64())
	assert.Equal(t, int64(1<<63-1), ByteSize(1<<64-1).Int64())
}

func TestTextEncoding(t *testing.T) {
	type doc struct {
		BlockSize ByteSize `yaml:"block_size" json:"block_size"`
	}

	t.Run("YAML", func(t *testing.T) {
		var d doc
		require.NoError(t, yaml.Unmarshal([]byte("block_size: 64KiB\n"), &d))
		assert.Equal(t, 64*KiB, d.BlockSize)

		out, err := yaml.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, "block_size: 64KiB\n", string(out))
	})

	t.Run("JSON", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"block_size":"1Mi"}`), &d))
		assert.Equal(t, MiB, d.BlockSize)

		out, err := json.Marshal(d)
		require.NoError(t, err)
		assert.JSONEq(t, `{"block_size":"1MiB"}`, string(out))
	})

	t.Run("Invalid", func(t *testing.T) {
		var b ByteSize
		assert.Error(t, b.UnmarshalText([]byte("huge")))
	})
}

func TestJSONSchema(t *testing.T) {
	s := ByteSize(0).JSONSchema()
	require.Len(t, s.OneOf, 2)
	assert.Equal(t, "integer", s.OneOf[0].Type)
	assert.Equal(t, "string", s.OneOf[1].Type)
}
