package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clip(id string, start, end string) *clips.Clip {
	return &clips.Clip{
		ID:     id,
		Source: id + ".mp4",
		Start:  mediatime.MustParse(start),
		End:    mediatime.MustParse(end),
		Volume: 1,
		Speed:  1,
	}
}

func threeClips() *Project {
	p := New("demo")
	p.Clips = []*clips.Clip{clip("a", "0", "2"), clip("b", "10", "13"), clip("c", "1", "2.5")}
	return p
}

func TestOffsetsAndTotalDuration(t *testing.T) {
	p := threeClips()

	offsets := p.Offsets()
	require.Len(t, offsets, 3)
	assert.True(t, offsets[0].Equal(mediatime.Zero))
	assert.True(t, offsets[1].Equal(mediatime.Seconds(2)))
	assert.True(t, offsets[2].Equal(mediatime.Seconds(5)))
	assert.True(t, p.TotalDuration().Equal(mediatime.MustParse("6.5")))
	assert.True(t, p.Placement(2).End().Equal(p.TotalDuration()))
}

func TestClipAt(t *testing.T) {
	p := threeClips()
	assert.Equal(t, 0, p.ClipAt(mediatime.Zero))
	assert.Equal(t, 1, p.ClipAt(mediatime.Seconds(2)))
	assert.Equal(t, 2, p.ClipAt(mediatime.MustParse("6.4")))
	assert.Equal(t, -1, p.ClipAt(mediatime.MustParse("6.5")))
}

func TestCloneDoesNotShareState(t *testing.T) {
	p := threeClips()
	p.Captions = []*Caption{{ID: "x", Language: "en", Start: mediatime.Zero, End: mediatime.Seconds(1), Text: "hi"}}

	cp := p.Clone()
	cp.Clips[0].Volume = 0.2
	cp.Clips = cp.Clips[:1]
	cp.Captions[0].Text = "changed"

	assert.Len(t, p.Clips, 3)
	assert.Equal(t, 1.0, p.Clips[0].Volume)
	assert.Equal(t, "hi", p.Captions[0].Text)
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	p := threeClips()
	p.Clips[1].ID = "a"
	assert.ErrorIs(t, p.Validate(), ErrDuplicateID)
}

func TestValidateRejectsUnrepresentableTimeline(t *testing.T) {
	p := New("huge")
	p.Clips = []*clips.Clip{clip("a", "0", "9223372036854775000"), clip("b", "0", "9223372036854775000")}
	assert.ErrorIs(t, p.Validate(), mediatime.ErrOverflow)

	p.Clips = p.Clips[:1]
	require.NoError(t, p.Validate())

	p.AudioTracks = []*AudioTrack{{ID: "bed", Source: "music.mp3", Volume: 1, Range: mediatime.Range{
		Start: mediatime.Seconds(9223372036854775000), Duration: mediatime.Seconds(9223372036854775000),
	}}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidTrack)
}

func TestLoadRejectsOverflowingProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edited.yaml")
	doc := `id: p1
name: edited
clips:
  - id: a
    source: a.mp4
    start: "0"
    end: "9223372036854775000"
    volume: 1
    speed: 1
  - id: b
    source: b.mp4
    start: "0"
    end: "9223372036854775000"
    volume: 1
    speed: 1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	var err error
	assert.NotPanics(t, func() { _, err = Load(path) })
	assert.ErrorIs(t, err, mediatime.ErrOverflow)
}

func TestActiveCaption(t *testing.T) {
	p := New("captions")
	p.Captions = []*Caption{
		{ID: "1", Language: "en", Start: mediatime.Seconds(0), End: mediatime.Seconds(2), Text: "hello"},
		{ID: "2", Language: "en", Start: mediatime.Seconds(2), End: mediatime.Seconds(4), Text: "world"},
		{ID: "3", Language: "es", Start: mediatime.Seconds(0), End: mediatime.Seconds(4), Text: "hola"},
	}

	assert.Equal(t, "hello", p.ActiveCaption(mediatime.MustParse("1.99"), "en").Text)
	assert.Equal(t, "world", p.ActiveCaption(mediatime.Seconds(2), "en").Text)
	assert.Nil(t, p.ActiveCaption(mediatime.Seconds(4), "en"))
	assert.Equal(t, "hola", p.ActiveCaption(mediatime.Seconds(3), "es").Text)
	assert.Nil(t, p.ActiveCaption(mediatime.Seconds(1), "fr"))
	assert.Equal(t, []string{"en", "es"}, p.Languages())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := threeClips()
	p.Clips[1].AudioOffset = mediatime.MustParse("-0.5")
	p.Clips[2].Filters = []clips.Filter{{Type: "mono", Intensity: 0.8}}
	p.AudioTracks = []*AudioTrack{{ID: "bed", Source: "music.mp3", Range: mediatime.Range{Duration: mediatime.Seconds(5)}, Volume: 0.3}}
	p.Export = ExportSettings{Preset: "tiktok", Quality: "high"}

	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, p.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got.Clips, 3)
	assert.True(t, got.Clips[1].AudioOffset.Equal(mediatime.MustParse("-0.5")))
	assert.Equal(t, p.Clips[2].Filters, got.Clips[2].Filters)
	assert.True(t, got.TotalDuration().Equal(p.TotalDuration()))
	assert.Equal(t, "tiktok", got.Export.Preset)
	assert.True(t, got.AudioTracks[0].Range.Duration.Equal(mediatime.Seconds(5)))
}
