package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want mediatime.Time
	}{
		{"45.5", mediatime.MustParse("45.5")},
		{"01:30", mediatime.Seconds(90)},
		{"01:00:02.25", mediatime.MustParse("3602.25")},
		{"1001/30000", mediatime.New(1001, 30000)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%s: got %s", tt.in, got)
	}

	_, err := ParseTimestamp("1:2:3:4")
	assert.Error(t, err)
	_, err = ParseTimestamp("aa:10")
	assert.Error(t, err)

	for _, in := range []string{"999999999999999999:00", "9223372036854775807:00:00", "153722867280912930:9223372036854775807"} {
		assert.NotPanics(t, func() {
			_, err = ParseTimestamp(in)
		}, in)
		assert.Error(t, err, in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:02.050", FormatTimestamp(mediatime.MustParse("2.05")))
	assert.Equal(t, "01:01:01.500", FormatTimestamp(mediatime.MustParse("3661.5")))
	assert.Equal(t, "-00:00:01.000", FormatTimestamp(mediatime.Seconds(-1)))
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.001)
	assert.Equal(t, 0.0, ParseFrameRate("30"))
	assert.Equal(t, 0.0, ParseFrameRate("30/0"))
}

func TestPartialPathAndCommit(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.mp4")
	partial := PartialPath(final, "job1")

	assert.Equal(t, dir, filepath.Dir(partial))
	assert.Equal(t, ".mp4", filepath.Ext(partial))

	require.NoError(t, os.WriteFile(partial, []byte("data"), 0644))
	require.NoError(t, Commit(partial, final))
	assert.True(t, FileExists(final))
	assert.False(t, FileExists(partial))
}
