package clips

import (
	"testing"

	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClip(t *testing.T) {
	c, err := New("a.mp4", mediatime.Seconds(1), mediatime.MustParse("3.5"))
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1.0, c.Volume)
	assert.Equal(t, 1.0, c.Speed)
	assert.True(t, c.Duration().Equal(mediatime.MustParse("2.5")))
	assert.True(t, c.SourceRange().End().Equal(c.End))
}

func TestValidate(t *testing.T) {
	base := Clip{ID: "c", Source: "a.mp4", Start: mediatime.Seconds(1), End: mediatime.Seconds(2), Volume: 1, Speed: 1}

	tests := []struct {
		name   string
		mutate func(*Clip)
		want   error
	}{
		{"zero length", func(c *Clip) { c.End = c.Start }, ErrInvalidWindow},
		{"inverted", func(c *Clip) { c.End = mediatime.Zero }, ErrInvalidWindow},
		{"negative start", func(c *Clip) { c.Start = mediatime.Seconds(-1) }, ErrInvalidWindow},
		{"loud", func(c *Clip) { c.Volume = 1.5 }, ErrInvalidVolume},
		{"stopped", func(c *Clip) { c.Speed = 0 }, ErrInvalidSpeed},
		{"no source", func(c *Clip) { c.Source = "" }, ErrMissingSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), tt.want)
		})
	}
	assert.NoError(t, base.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	c := &Clip{ID: "c", Filters: []Filter{{Type: "warm", Intensity: 0.5}}, Metadata: map[string]string{"k": "v"}}
	cp := c.Clone()
	cp.Filters[0].Intensity = 1
	cp.Metadata["k"] = "changed"

	assert.Equal(t, 0.5, c.Filters[0].Intensity)
	assert.Equal(t, "v", c.Metadata["k"])
	assert.Equal(t, c.ID, cp.ID)
}
