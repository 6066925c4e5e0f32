package anndata

import (
	"errors"
	"math"
	"testing"

	"github.com/sppas/phoenix/internal/apperrors"
)

func intervalTier(t *testing.T, bounds ...float64) *Tier {
	t.Helper()
	tier := NewTier("T1", TagString)
	for i := 0; i+1 < len(bounds); i++ {
		label := NewLabel(StrTag(string(rune('a' + i))))
		if _, err := tier.Create(Interval(bounds[i], bounds[i+1], 0.005), label); err != nil {
			t.Fatalf("create [%v,%v]: %v", bounds[i], bounds[i+1], err)
		}
	}
	return tier
}

func TestTierAdd_ZeroLengthInterval(t *testing.T) {
	tier := NewTier("T1", TagString)
	if _, err := tier.Create(Interval(2, 2, 0)); err != nil {
		t.Fatalf("zero-length interval: %v", err)
	}
}

func TestTierAdd_KeepsSortedOrder(t *testing.T) {
	tier := NewTier("words", TagString)
	for _, b := range []float64{3, 1, 2} {
		if _, err := tier.Create(Interval(b, b+1, 0)); err != nil {
			t.Fatalf("create %v: %v", b, err)
		}
	}
	for i := 0; i+1 < tier.Len(); i++ {
		if tier.At(i).Location.Begin.Midpoint > tier.At(i+1).Location.Begin.Midpoint {
			t.Fatalf("adjacent annotations out of order at %d", i)
		}
	}
	if got := tier.At(0).Location.Begin.Midpoint; got != 1 {
		t.Fatalf("first begin = %v, want 1", got)
	}
	if !tier.IsInterval() {
		t.Fatalf("tier kind = %s, want interval", tier.Kind())
	}
}

func TestTierAdd_Rejects(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		lab  []Label
		want error
	}{
		{"same place, other label", Interval(1, 2, 0), []Label{NewLabel(StrTag("z"))}, ErrConflict},
		{"inverted", Interval(4, 3.5, 0), nil, ErrInverted},
		{"point in interval tier", PointLocation(NewPoint(5, 0)), nil, ErrKindMismatch},
		{"wrong tag type", Interval(5, 6, 0), []Label{NewLabel(MustTag("3", TagInt))}, ErrTagType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := intervalTier(t, 1, 2, 3)
			before := tier.Snapshot()
			_, err := tier.Create(tt.loc, tt.lab...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !apperrors.IsModelViolation(err) {
				t.Fatalf("expected a model violation, got %v", err)
			}
			restored := NewTier("x", TagString)
			restored.Restore(before)
			if !SameAnnotations(tier, restored) {
				t.Fatalf("tier changed after rejected add")
			}
		})
	}
}

func TestPointTier_SameMidpoint(t *testing.T) {
	tier := NewTier("tones", TagString)
	if _, err := tier.Create(PointLocation(NewPoint(1, 0.01)), NewLabel(StrTag("H"))); err != nil {
		t.Fatal(err)
	}
	if _, err := tier.Create(PointLocation(NewPoint(1, 0.5)), NewLabel(StrTag("L"))); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if _, err := tier.Create(PointLocation(NewPoint(1, 0.5)), NewLabel(StrTag("H"))); err != nil {
		t.Fatalf("same labels at the same midpoint: %v", err)
	}
}

func TestTierAdd_Overlaps(t *testing.T) {
	tier := NewTier("T1", TagString)
	for _, iv := range [][2]float64{{4.98, 5.5}, {4.5, 5.02}, {4.5, 4.8}, {4.7, 4.7}} {
		if _, err := tier.Create(Interval(iv[0], iv[1], 0)); err != nil {
			t.Fatalf("create %v: %v", iv, err)
		}
	}
	want := [][2]float64{{4.5, 4.8}, {4.5, 5.02}, {4.7, 4.7}, {4.98, 5.5}}
	for i, w := range want {
		loc := tier.At(i).Location
		if loc.Begin.Midpoint != w[0] || loc.End.Midpoint != w[1] {
			t.Fatalf("annotation %d = %s, want %v", i, loc, w)
		}
	}
	if err := tier.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	if got := tier.Find(5.0, 5.0); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Find(5) = %v, want [1 3]", got)
	}
}

func TestTierSetLabels_Conflict(t *testing.T) {
	tier := NewTier("T1", TagString)
	tier.Create(Interval(1, 2, 0), NewLabel(StrTag("a")))
	tier.Create(Interval(1, 2, 0.01), NewLabel(StrTag("a")))
	if err := tier.SetLabels(1, []Label{NewLabel(StrTag("b"))}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if got := tier.At(1).Labels[0].Alternatives[0].Tag.Content; got != "a" {
		t.Fatalf("labels changed to %q", got)
	}
}

func TestTierNear_Overlapping(t *testing.T) {
	tier := NewTier("T1", TagString)
	for _, iv := range [][2]float64{{0, 4}, {1, 2}, {2, 3}} {
		tier.Create(Interval(iv[0], iv[1], 0))
	}
	if got := tier.Near(3.5, Backward); got != 2 {
		t.Fatalf("Near(3.5, back) = %d, want 2", got)
	}
	if got := tier.EndingBefore(5); len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("EndingBefore(5) = %v, want [0 2 1]", got)
	}
	if got := tier.Near(0.5, Forward); got != 1 {
		t.Fatalf("Near(0.5, fwd) = %d, want 1", got)
	}
}

func TestTierNear(t *testing.T) {
	tier := intervalTier(t, 1, 2, 3, 4)
	tests := []struct {
		at   float64
		dir  Direction
		want int
	}{
		{0, Forward, 0},
		{1, Forward, 1},
		{2.5, Forward, 2},
		{3, Forward, -1},
		{2, Backward, -1},
		{2.5, Backward, 0},
		{3.5, Backward, 1},
		{1, Backward, -1},
	}
	for _, tt := range tests {
		if got := tier.Near(tt.at, tt.dir); got != tt.want {
			t.Errorf("Near(%v, %d) = %d, want %d", tt.at, tt.dir, got, tt.want)
		}
	}
}

func TestTierFind(t *testing.T) {
	tier := intervalTier(t, 1, 2, 3, 4)
	got := tier.Find(1.99, 2.01)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("Find = %v, want [0 1]", got)
	}
	if got := tier.Find(5, 6); len(got) != 0 {
		t.Fatalf("Find outside = %v", got)
	}
}

func TestMoveBoundary_SharedAndConflict(t *testing.T) {
	tier := intervalTier(t, 1, 2, 3)
	shared := NewPoint(2, 0.005)
	if got := tier.SharingBoundary(shared); len(got) != 2 {
		t.Fatalf("sharing = %v, want two annotations", got)
	}

	changed, err := tier.MoveBoundary(shared, 1.5)
	if err != nil {
		t.Fatalf("move to 1.5: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("changed = %v", changed)
	}
	if tier.At(0).Location.End.Midpoint != 1.5 || tier.At(1).Location.Begin.Midpoint != 1.5 {
		t.Fatalf("boundary not moved: %s %s", tier.At(0).Location, tier.At(1).Location)
	}
	if tier.At(0).Location.End.Radius != 0.005 {
		t.Fatalf("radius not kept")
	}

	before := tier.Snapshot()
	_, err = tier.MoveBoundary(NewPoint(1.5, 0), 0.8)
	if !apperrors.IsModelViolation(err) {
		t.Fatalf("move to 0.8: err = %v, want model violation", err)
	}
	restored := NewTier("x", TagString)
	restored.Restore(before)
	if !SameAnnotations(tier, restored) {
		t.Fatalf("failed move changed the tier")
	}
}

func TestMoveBoundary_OnlySharingAnnotationsChange(t *testing.T) {
	tier := intervalTier(t, 1, 2, 3, 4)
	before := tier.Copy()
	if _, err := tier.MoveBoundary(NewPoint(3, 0), 3.2); err != nil {
		t.Fatal(err)
	}
	if tier.At(0).Location != before.At(0).Location {
		t.Fatalf("unrelated annotation changed")
	}
	if tier.At(1).Location.End.Midpoint != 3.2 || tier.At(2).Location.Begin.Midpoint != 3.2 {
		t.Fatalf("sharing annotations not moved")
	}
	if err := tier.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestMoveBoundary_IntoOverlap(t *testing.T) {
	tier := NewTier("t", TagString)
	tier.Create(Interval(1, 2, 0), NewLabel(StrTag("a")))
	tier.Create(Interval(3, 4, 0), NewLabel(StrTag("b")))
	if _, err := tier.MoveBoundary(NewPoint(2, 0), 3.5); err != nil {
		t.Fatalf("move over the next interval: %v", err)
	}
	if got := tier.At(0).Location.End.Midpoint; got != 3.5 {
		t.Fatalf("end = %v, want 3.5", got)
	}
	if _, err := tier.MoveBoundary(NewPoint(3.5, 0), 1); err != nil {
		t.Fatalf("move to a zero-length interval: %v", err)
	}
	if _, err := tier.MoveBoundary(NewPoint(3, 0), 4.5); !errors.Is(err, ErrInverted) {
		t.Fatalf("err = %v, want inverted", err)
	}
}

func TestMoveBoundary_ReordersAndConflicts(t *testing.T) {
	tier := NewTier("t", TagString)
	tier.Create(Interval(0, 2, 0), NewLabel(StrTag("a")))
	tier.Create(Interval(1, 3, 0), NewLabel(StrTag("b")))
	tier.Create(Interval(2, 4, 0), NewLabel(StrTag("c")))
	c := tier.At(2)

	changed, err := tier.MoveBoundary(NewPoint(2, 0), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if tier.At(1) != c || c.Location.Begin.Midpoint != 0.5 {
		t.Fatalf("moved annotation not re-sorted: %s at 1", tier.At(1).Location)
	}
	if len(changed) != 2 || changed[0] != 0 || changed[1] != 1 {
		t.Fatalf("changed = %v, want [0 1]", changed)
	}
	if err := tier.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}

	// [1,3] "b" cannot land on [1,4] "c".
	tier2 := NewTier("t", TagString)
	tier2.Create(Interval(1, 3, 0), NewLabel(StrTag("b")))
	tier2.Create(Interval(1, 4, 0), NewLabel(StrTag("c")))
	before := tier2.Snapshot()
	if _, err := tier2.MoveBoundary(NewPoint(3, 0), 4); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	restored := NewTier("x", TagString)
	restored.Restore(before)
	if !SameAnnotations(tier2, restored) {
		t.Fatalf("failed move changed the tier")
	}
}

func TestSetBoundaryRadius(t *testing.T) {
	tier := intervalTier(t, 1, 2, 3)
	if _, err := tier.SetBoundaryRadius(NewPoint(2, 0), 0.05); err != nil {
		t.Fatal(err)
	}
	if tier.At(0).Location.End.Radius != 0.05 || tier.At(1).Location.Begin.Radius != 0.05 {
		t.Fatalf("radius not applied")
	}
	if _, err := tier.SetBoundaryRadius(NewPoint(2, 0), -1); err == nil {
		t.Fatalf("negative radius accepted")
	}
}

func TestAnnotationCopyIsDeep(t *testing.T) {
	a := NewAnnotation(Interval(1, 2, 0), Label{Alternatives: []Alternative{{Tag: StrTag("x"), Score: Score(0.4)}}})
	c := a.Copy()
	*c.Labels[0].Alternatives[0].Score = 0.9
	c.Meta["note"] = "changed"
	if *a.Labels[0].Alternatives[0].Score != 0.4 {
		t.Fatalf("score shared between copies")
	}
	if _, ok := a.Meta["note"]; ok {
		t.Fatalf("metadata shared between copies")
	}
	if c.ID() != a.ID() {
		t.Fatalf("copy should keep the id")
	}
}

func TestMetadataReadOnlyKeys(t *testing.T) {
	m := newMetadata()
	if err := m.Set(KeyID, "other"); !errors.Is(err, ErrReadOnlyKey) {
		t.Fatalf("id overwrite: err = %v", err)
	}
	if err := m.Set("private_score", "1"); !errors.Is(err, ErrReadOnlyKey) {
		t.Fatalf("private key: err = %v", err)
	}
	if err := m.Set("speaker", "A"); err != nil {
		t.Fatalf("plain key: %v", err)
	}
}

func TestTranscriptionDuration(t *testing.T) {
	trs := NewTranscription("a")
	t1, _ := trs.CreateTier("T1", TagString)
	t1.Create(Interval(0, 2, 0.01))
	t2, _ := trs.CreateTier("T2", TagString)
	t2.Create(PointLocation(NewPoint(3, 0.1)))
	if got := trs.Duration(); math.Abs(got-3.1) > 1e-9 {
		t.Fatalf("Duration = %v, want 3.1", got)
	}
	if _, err := trs.CreateTier("t1", TagString); !errors.Is(err, ErrTierName) {
		t.Fatalf("duplicate tier name accepted: %v", err)
	}
	if got := trs.UniqueName("T1"); got != "T1-2" {
		t.Fatalf("UniqueName = %q", got)
	}
}

func TestNewTag(t *testing.T) {
	tests := []struct {
		in      string
		typ     TagType
		want    string
		wantErr bool
	}{
		{"bonjour", TagString, "bonjour", false},
		{" 42 ", TagInt, "42", false},
		{"4.2x", TagInt, "", true},
		{"1.50", TagFloat, "1.5", false},
		{"TRUE", TagBool, "true", false},
		{"maybe", TagBool, "", true},
	}
	for _, tt := range tests {
		got, err := NewTag(tt.in, tt.typ)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewTag(%q, %s) err = %v", tt.in, tt.typ, err)
			continue
		}
		if err == nil && got.Content != tt.want {
			t.Errorf("NewTag(%q, %s) = %q, want %q", tt.in, tt.typ, got.Content, tt.want)
		}
	}
}

func TestLabelBest(t *testing.T) {
	l := Label{Alternatives: []Alternative{
		{Tag: StrTag("a"), Score: Score(0.2)},
		{Tag: StrTag("b"), Score: Score(0.7)},
	}}
	if best, _ := l.Best(); best.Content != "b" {
		t.Fatalf("Best = %q", best.Content)
	}
	tests := []struct {
		name string
		alts []Alternative
		want string
	}{
		{"unscored first", []Alternative{{Tag: StrTag("a")}, {Tag: StrTag("b"), Score: Score(0.3)}, {Tag: StrTag("c"), Score: Score(0.6)}}, "c"},
		{"unscored between", []Alternative{{Tag: StrTag("a"), Score: Score(0.1)}, {Tag: StrTag("b")}, {Tag: StrTag("c"), Score: Score(0.05)}}, "a"},
		{"no scores", []Alternative{{Tag: StrTag("a")}, {Tag: StrTag("b")}}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if best, _ := (Label{Alternatives: tt.alts}).Best(); best.Content != tt.want {
				t.Fatalf("Best = %q, want %q", best.Content, tt.want)
			}
		})
	}
	if _, ok := (Label{}).Best(); ok {
		t.Fatalf("empty label has no best tag")
	}
}
