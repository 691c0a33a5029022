package export

import (
	"math"

	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/render"
)

// AspectFit scales src uniformly to fit inside dst and centers it, leaving
// symmetric letterbox or pillarbox bars.
func AspectFit(src, dst composition.Size) render.Transform {
	if src.IsZero() || dst.IsZero() {
		return render.Transform{Scale: 1}
	}
	scale := math.Min(float64(dst.Width)/float64(src.Width), float64(dst.Height)/float64(src.Height))
	return render.Transform{
		Scale:      scale,
		TranslateX: (float64(dst.Width) - float64(src.Width)*scale) / 2,
		TranslateY: (float64(dst.Height) - float64(src.Height)*scale) / 2,
	}
}
