package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/keagan/reelcut/pkg/mediatime"
)

var (
	ErrUnreadable = errors.New("source media unreadable")
	ErrNoVideo    = errors.New("no readable video channel")
	ErrNoAudio    = errors.New("no readable audio channel")
)

// Channel names a media channel.
type Channel string

const (
	ChannelVideo Channel = "video"
	ChannelAudio Channel = "audio"
	ChannelAll   Channel = "all"
)

// SourceError reports a problem with one clip's source media. It is fatal
// for the anchor clip and a warning for every other clip.
type SourceError struct {
	ClipID  string
	Source  string
	Channel Channel
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("clip %s (%s) %s: %v", e.ClipID, e.Source, e.Channel, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the size is unknown.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Asset is what the composition needs to know about a media source.
type Asset struct {
	Source string

	// Duration is zero when the container does not report one.
	Duration mediatime.Time

	// NaturalSize is the coded frame size before orientation correction.
	NaturalSize Size

	// Rotation is the clockwise display rotation in degrees.
	Rotation int

	FrameRate float64
	HasVideo  bool
	HasAudio  bool
}

// OrientedSize is the display size after applying Rotation.
func (a *Asset) OrientedSize() Size {
	switch normalizeRotation(a.Rotation) {
	case 90, 270:
		return Size{Width: a.NaturalSize.Height, Height: a.NaturalSize.Width}
	}
	return a.NaturalSize
}

func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// Loader resolves a source reference to an Asset.
type Loader interface {
	Load(ctx context.Context, source string) (*Asset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, source string) (*Asset, error)

func (f LoaderFunc) Load(ctx context.Context, source string) (*Asset, error) {
	return f(ctx, source)
}
