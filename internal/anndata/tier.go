package anndata

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Direction of a temporal walk through a tier.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Tier is a sequence of annotations of one kind sorted by begin midpoint,
// then end midpoint. Intervals may overlap, but annotations sharing the
// same location must carry the same labels.
type Tier struct {
	Name    string
	TagType TagType
	Meta    Metadata

	kind Kind
	anns []*Annotation
}

func NewTier(name string, typ TagType) *Tier {
	return &Tier{Name: name, TagType: typ, Meta: newMetadata()}
}

func (t *Tier) ID() string { return t.Meta[KeyID] }

func (t *Tier) Len() int { return len(t.anns) }

func (t *Tier) IsEmpty() bool { return len(t.anns) == 0 }

// Kind is the kind of the first annotation, or the one declared by
// SetKind on an empty tier.
func (t *Tier) Kind() Kind { return t.kind }

func (t *Tier) IsInterval() bool { return t.kind == KindInterval }
func (t *Tier) IsPoint() bool    { return t.kind == KindPoint }

// SetKind declares the kind of an empty tier.
func (t *Tier) SetKind(k Kind) error {
	if len(t.anns) > 0 && k != t.kind {
		return violation("%w: tier %q already holds %s annotations", ErrKindMismatch, t.Name, t.kind)
	}
	t.kind = k
	return nil
}

// At returns the annotation at index i or nil.
func (t *Tier) At(i int) *Annotation {
	if i < 0 || i >= len(t.anns) {
		return nil
	}
	return t.anns[i]
}

// Annotations returns the backing order; callers must not reorder it.
func (t *Tier) Annotations() []*Annotation { return t.anns }

// IndexOf returns the index of the annotation with the given id, or -1.
func (t *Tier) IndexOf(id string) int {
	for i, a := range t.anns {
		if a.ID() == id {
			return i
		}
	}
	return -1
}

// before orders locations by begin midpoint, then end midpoint.
func before(a, b Location) bool {
	if a.Begin.Midpoint != b.Begin.Midpoint {
		return a.Begin.Midpoint < b.Begin.Midpoint
	}
	return a.End.Midpoint < b.End.Midpoint
}

// sameLocation compares midpoints only; radii are not identity.
func sameLocation(a, b Location) bool {
	return a.Begin.Midpoint == b.Begin.Midpoint && a.End.Midpoint == b.End.Midpoint
}

// insertionIndex returns where a location would be stored to keep the
// tier sorted, after the annotations at the same location.
func (t *Tier) insertionIndex(loc Location) int {
	return sort.Search(len(t.anns), func(i int) bool {
		return before(loc, t.anns[i].Location)
	})
}

// checkConflict rejects labels that differ from those of another
// annotation at the same location. self is skipped.
func (t *Tier) checkConflict(loc Location, labels []Label, self *Annotation) error {
	i := sort.Search(len(t.anns), func(i int) bool {
		return !before(t.anns[i].Location, loc)
	})
	for ; i < len(t.anns) && sameLocation(t.anns[i].Location, loc); i++ {
		if t.anns[i] != self && !LabelsEqual(t.anns[i].Labels, labels) {
			return violation("%w at %s", ErrConflict, loc)
		}
	}
	return nil
}

// Validate checks that ann could be added without breaking the tier.
func (t *Tier) Validate(ann *Annotation) error {
	if err := ann.Location.Validate(); err != nil {
		return violation("%w", err)
	}
	if t.kind != KindUnknown && ann.Location.Kind() != t.kind {
		return violation("%w: cannot add a %s to %s tier %q", ErrKindMismatch, ann.Location.Kind(), t.kind, t.Name)
	}
	if err := CheckLabelsType(ann.Labels, t.TagType); err != nil {
		return violation("%w", err)
	}
	return t.checkConflict(ann.Location, ann.Labels, nil)
}

// Add inserts ann at its sorted position and returns the index.
func (t *Tier) Add(ann *Annotation) (int, error) {
	if err := t.Validate(ann); err != nil {
		return -1, err
	}
	if ann.Meta == nil {
		ann.Meta = newMetadata()
	}
	i := t.insertionIndex(ann.Location)
	t.anns = append(t.anns, nil)
	copy(t.anns[i+1:], t.anns[i:])
	t.anns[i] = ann
	if t.kind == KindUnknown {
		t.kind = ann.Location.Kind()
	}
	return i, nil
}

// Create builds an annotation at loc and adds it.
func (t *Tier) Create(loc Location, labels ...Label) (int, error) {
	return t.Add(NewAnnotation(loc, labels...))
}

// Remove deletes and returns the annotation at i.
func (t *Tier) Remove(i int) (*Annotation, error) {
	if i < 0 || i >= len(t.anns) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	a := t.anns[i]
	t.anns = append(t.anns[:i], t.anns[i+1:]...)
	return a, nil
}

// SetLabels replaces the labels of annotation i after a type check.
func (t *Tier) SetLabels(i int, labels []Label) error {
	a := t.At(i)
	if a == nil {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	if err := CheckLabelsType(labels, t.TagType); err != nil {
		return violation("%w", err)
	}
	if err := t.checkConflict(a.Location, labels, a); err != nil {
		return err
	}
	a.Labels = labels
	return nil
}

// Find returns the indexes of annotations overlapping [start, end].
func (t *Tier) Find(start, end float64) []int {
	var out []int
	for i, a := range t.anns {
		if a.Location.Begin.Lowest() > end {
			break
		}
		if a.Location.Overlaps(start, end) {
			out = append(out, i)
		}
	}
	return out
}

// Near returns the first annotation beginning strictly after t (Forward),
// or the one with the latest end strictly before t (Backward). -1 if none.
func (t *Tier) Near(at float64, dir Direction) int {
	if dir == Forward {
		i := sort.Search(len(t.anns), func(i int) bool {
			return t.anns[i].Location.Begin.Midpoint > at
		})
		if i == len(t.anns) {
			return -1
		}
		return i
	}
	if idx := t.EndingBefore(at); len(idx) > 0 {
		return idx[0]
	}
	return -1
}

// EndingBefore returns the annotations ending strictly before at, latest
// end first. Equal ends keep the later index first. Ends are not sorted
// in overlapping tiers, so this is the order of a backward walk.
func (t *Tier) EndingBefore(at float64) []int {
	var out []int
	for i := len(t.anns) - 1; i >= 0; i-- {
		if t.anns[i].Location.End.Midpoint < at {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return t.anns[out[a]].Location.End.Midpoint > t.anns[out[b]].Location.End.Midpoint
	})
	return out
}

// SharingBoundary returns the indexes of annotations with p as an endpoint.
func (t *Tier) SharingBoundary(p Point) []int {
	var out []int
	for i, a := range t.anns {
		if a.Location.HasBoundary(p) {
			out = append(out, i)
		}
	}
	return out
}

// MoveBoundary repoints every endpoint equal to old to a new midpoint,
// keeping each endpoint's radius. Changes are staged on copies and
// installed only if the whole tier stays valid; on error the tier is
// untouched. A move may reorder the tier; the returned indexes are those
// of the changed annotations after the move.
func (t *Tier) MoveBoundary(old Point, midpoint float64) ([]int, error) {
	return t.replaceBoundary(old, func(p Point) Point { return NewPoint(midpoint, p.Radius) })
}

// SetBoundaryRadius changes the radius of every endpoint equal to p.
func (t *Tier) SetBoundaryRadius(p Point, radius float64) ([]int, error) {
	if radius < 0 {
		return nil, violation("%w: negative radius", ErrInvalidLocation)
	}
	return t.replaceBoundary(p, func(q Point) Point { return NewPoint(q.Midpoint, radius) })
}

func (t *Tier) replaceBoundary(old Point, repl func(Point) Point) ([]int, error) {
	idx := t.SharingBoundary(old)
	if len(idx) == 0 {
		return nil, violation("%w: %s", ErrNoBoundary, old)
	}
	staged := make([]*Annotation, len(t.anns))
	copy(staged, t.anns)
	locs := make(map[*Annotation]Location, len(idx))
	for _, i := range idx {
		c := t.anns[i].Copy()
		loc := c.Location
		if loc.Begin.Equal(old) {
			loc.Begin = repl(loc.Begin)
		}
		if loc.End.Equal(old) {
			loc.End = repl(loc.End)
		}
		c.Location = loc
		staged[i] = c
		locs[t.anns[i]] = loc
	}
	sort.SliceStable(staged, func(a, b int) bool { return before(staged[a].Location, staged[b].Location) })
	if err := checkOrder(staged); err != nil {
		return nil, err
	}
	// Install on the held annotations so that pointers kept by lanes stay
	// valid, then sort them the same way the staged copies were.
	for a, loc := range locs {
		a.Location = loc
	}
	sort.SliceStable(t.anns, func(a, b int) bool { return before(t.anns[a].Location, t.anns[b].Location) })
	changed := make([]int, 0, len(idx))
	for i, a := range t.anns {
		if _, ok := locs[a]; ok {
			changed = append(changed, i)
		}
	}
	return changed, nil
}

// checkOrder validates a sorted sequence: every location is valid, the
// order holds and annotations at one location share their labels.
func checkOrder(anns []*Annotation) error {
	for i, a := range anns {
		if err := a.Location.Validate(); err != nil {
			return violation("%w", err)
		}
		if i == 0 {
			continue
		}
		prev := anns[i-1]
		if before(a.Location, prev.Location) {
			return violation("%w: %s after %s", ErrOrder, a.Location, prev.Location)
		}
		if sameLocation(prev.Location, a.Location) && !LabelsEqual(prev.Labels, a.Labels) {
			return violation("%w at %s", ErrConflict, a.Location)
		}
	}
	return nil
}

// CheckInvariants validates the whole tier.
func (t *Tier) CheckInvariants() error {
	for i, a := range t.anns {
		if a.Location.Kind() != t.kind {
			return violation("%w at index %d", ErrKindMismatch, i)
		}
	}
	return checkOrder(t.anns)
}

// Highest is the largest endpoint of the tier including its radius.
func (t *Tier) Highest() float64 {
	var max float64
	for _, a := range t.anns {
		if h := a.Location.End.Highest(); h > max {
			max = h
		}
	}
	return max
}

// Copy returns a deep copy with the same ids.
func (t *Tier) Copy() *Tier {
	c := &Tier{
		Name:    t.Name,
		TagType: t.TagType,
		Meta:    make(Metadata, len(t.Meta)),
		kind:    t.kind,
		anns:    make([]*Annotation, len(t.anns)),
	}
	for k, v := range t.Meta {
		c.Meta[k] = v
	}
	for i, a := range t.anns {
		c.anns[i] = a.Copy()
	}
	return c
}

// Clone is a deep copy under a new tier id, for pasting into a transcription.
func (t *Tier) Clone() *Tier {
	c := t.Copy()
	c.Meta[KeyID] = uuid.NewString()
	return c
}

// Snapshot is a restorable copy of a tier's annotations.
type Snapshot struct {
	kind Kind
	anns []*Annotation
}

func (t *Tier) Snapshot() Snapshot {
	s := Snapshot{kind: t.kind, anns: make([]*Annotation, len(t.anns))}
	for i, a := range t.anns {
		s.anns[i] = a.Copy()
	}
	return s
}

// Restore puts back the annotations of s.
func (t *Tier) Restore(s Snapshot) {
	t.kind = s.kind
	t.anns = make([]*Annotation, len(s.anns))
	for i, a := range s.anns {
		t.anns[i] = a.Copy()
	}
}

// SameAnnotations reports whether two tiers hold equal annotations in the
// same order (locations, labels and ids).
func SameAnnotations(a, b *Tier) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.anns {
		x, y := a.anns[i], b.anns[i]
		if x.Location != y.Location || x.ID() != y.ID() || !LabelsEqual(x.Labels, y.Labels) {
			return false
		}
	}
	return true
}
