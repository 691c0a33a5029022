package editor

import (
	"testing"

	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/stretchr/testify/assert"
)

func TestSnap(t *testing.T) {
	candidates := []mediatime.Time{sec("2.0"), sec("5.0")}
	threshold := sec("0.1")

	assert.True(t, Snap(sec("2.05"), candidates, threshold).Equal(sec("2")))
	assert.True(t, Snap(sec("3.5"), candidates, threshold).Equal(sec("3.5")))
	assert.True(t, Snap(sec("4.9"), candidates, threshold).Equal(sec("5")), "exactly at threshold")
	assert.True(t, Snap(sec("4.89"), candidates, threshold).Equal(sec("4.89")))
}

func TestSnapTieGoesToFirstCandidate(t *testing.T) {
	candidates := []mediatime.Time{sec("1.9"), sec("2.1")}
	assert.True(t, Snap(sec("2"), candidates, sec("0.1")).Equal(sec("1.9")))

	reversed := []mediatime.Time{sec("2.1"), sec("1.9")}
	assert.True(t, Snap(sec("2"), reversed, sec("0.1")).Equal(sec("2.1")))
}

func TestSnapCandidates(t *testing.T) {
	got := SnapCandidates(fixture(), sec("4.2"))
	want := []string{"0", "2", "5", "6.5", "4.2"}
	if assert.Len(t, got, len(want)) {
		for i, w := range want {
			assert.True(t, got[i].Equal(sec(w)), "candidate %d = %s", i, got[i])
		}
	}
}
