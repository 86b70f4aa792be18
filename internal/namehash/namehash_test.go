package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringGolden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"chr0001_body.g1m", "221e9ffb"},
		{"chr0001_body.ktid", "6f3fede0"},
		{"chr0001_body.mtl", "2259b839"},
		{"se_attack_01.srsa", "f7cf7e31"},
		{"se_attack_01.srst", "e4e5e404"},
		{"mot_idle.g1a", "5daec1d5"},
		{"ui_icon_TEX_sword.g1t", "7cd99217"},
		{"TEX_sword.g1t", "3537bcbc"},
		{"a.g1m", "a9d6f387"},
		{"ワールド.g1t", "7636b52c"},
		{"x", "1b0ec767"},
		{"", "9d7a2b4f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, String(tt.name))
		})
	}
}

func TestSumDeterministic(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"chr0001_body.g1m", "mot_idle.g1a", "ワールド.g1t"} {
		first := Sum(name)
		for range 10 {
			require.Equal(t, first, Sum(name))
		}
	}
}

func TestSumIgnoresDirectory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, String("chr0001_body.g1m"), String("models/chr0001_body.g1m"))
}

func TestExtensionIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, String("chr0001_body.g1m"), String("chr0001_body.G1M"))
	assert.NotEqual(t, String("chr0001_body.g1m"), String("CHR0001_BODY.g1m"))
}

func TestInputLayout(t *testing.T) {
	t.Parallel()

	got := Input("body.g1m")
	want := []byte{'R', '_', 'G', '1', 'M', 0xEF, 0xBC, 0xBB, 'b', 'o', 'd', 'y', 0xEF, 0xBC, 0xBD}
	assert.Equal(t, want, got)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00000001", Format(1))
	assert.Equal(t, "deadbeef", Format(0xDEADBEEF))
}

func TestStripMarkers(t *testing.T) {
	t.Parallel()

	wrapped := "R_G1M" + string(Prefix[:]) + "chr0001_body" + string(Suffix[:])
	assert.Equal(t, "chr0001_body", StripMarkers(wrapped))
	assert.Equal(t, "plain", StripMarkers("plain"))
	assert.Equal(t, "only"+string(Prefix[:]), StripMarkers("only"+string(Prefix[:])))

	reversed := string(Suffix[:]) + "x" + string(Prefix[:])
	assert.Equal(t, reversed, StripMarkers(reversed))
}
