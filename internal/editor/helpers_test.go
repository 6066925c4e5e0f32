package editor

import (
	"testing"

	"github.com/sppas/phoenix/internal/anndata"
)

// span is one interval of a test tier with its label.
type span struct {
	begin, end float64
	label      string
}

// buildTier appends an interval tier to trs, with radius-less boundaries.
func buildTier(t *testing.T, trs *anndata.Transcription, name string, spans ...span) *anndata.Tier {
	t.Helper()
	tier, err := trs.CreateTier(name, anndata.TagString)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range spans {
		if _, err := tier.Create(anndata.Interval(s.begin, s.end, 0), anndata.NewLabel(anndata.StrTag(s.label))); err != nil {
			t.Fatalf("create %v: %v", s, err)
		}
	}
	return tier
}

// laneOn builds a lane over [start, end] drawn on width pixels from x=0.
func laneOn(trs *anndata.Transcription, tier *anndata.Tier, start, end, width float64) *TierLane {
	l := NewTierLane(trs, tier)
	l.SetTimeMap(NewTimeMap(start, end, 0, width))
	return l
}

func firstText(a *anndata.Annotation) string {
	if a == nil || len(a.Labels) == 0 || len(a.Labels[0].Alternatives) == 0 {
		return ""
	}
	return a.Labels[0].Alternatives[0].Tag.Content
}
