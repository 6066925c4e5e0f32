package editor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sppas/phoenix/internal/anndata"
)

// Direction of a search.
type Direction = anndata.Direction

const (
	Forward  = anndata.Forward
	Backward = anndata.Backward
)

// StrOp is a comparison of string tags.
type StrOp int

const (
	StrExact StrOp = iota
	StrContains
	StrStartsWith
	StrEndsWith
	StrRegexp
)

var strOpNames = [...]string{"exact", "contains", "startswith", "endswith", "regexp"}

func (o StrOp) String() string {
	if int(o) < 0 || int(o) >= len(strOpNames) {
		return "exact"
	}
	return strOpNames[o]
}

// StrOps lists the string comparisons in menu order.
func StrOps() []StrOp { return []StrOp{StrExact, StrContains, StrStartsWith, StrEndsWith, StrRegexp} }

// NumOp is a comparison of int and float tags.
type NumOp int

const (
	NumEqual NumOp = iota
	NumGreater
	NumLower
	NumGreaterEqual
	NumLowerEqual
)

var numOpNames = [...]string{"equal", "greater", "lower", "greater or equal", "lower or equal"}

func (o NumOp) String() string {
	if int(o) < 0 || int(o) >= len(numOpNames) {
		return "equal"
	}
	return numOpNames[o]
}

func NumOps() []NumOp { return []NumOp{NumEqual, NumGreater, NumLower, NumGreaterEqual, NumLowerEqual} }

// Query is what the search dialog asks for. Type selects the page of the
// dialog and so which fields are used.
type Query struct {
	Type       anndata.TagType
	Pattern    string
	Str        StrOp
	IgnoreCase bool
	Num        NumOp
	// Negate selects annotations none of whose tags match.
	Negate bool
}

// Matcher reports whether an annotation satisfies a query.
type Matcher func(a *anndata.Annotation) bool

// Matcher compiles the query. Errors come from an invalid pattern.
func (q Query) Matcher() (Matcher, error) {
	tagMatch, err := q.tagMatcher()
	if err != nil {
		return nil, err
	}
	return func(a *anndata.Annotation) bool {
		hit := false
	labels:
		for _, l := range a.Labels {
			for _, alt := range l.Alternatives {
				if alt.Tag.Type == q.Type && tagMatch(alt.Tag) {
					hit = true
					break labels
				}
			}
		}
		return hit != q.Negate
	}, nil
}

func (q Query) tagMatcher() (func(anndata.Tag) bool, error) {
	switch q.Type {
	case anndata.TagString:
		return q.strMatcher()
	case anndata.TagInt, anndata.TagFloat:
		want, err := strconv.ParseFloat(strings.TrimSpace(q.Pattern), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", q.Pattern)
		}
		op := q.Num
		return func(t anndata.Tag) bool {
			v, err := strconv.ParseFloat(t.Content, 64)
			if err != nil {
				return false
			}
			return compareNum(v, want, op)
		}, nil
	case anndata.TagBool:
		want, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(q.Pattern)))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", q.Pattern)
		}
		return func(t anndata.Tag) bool { return t.Bool() == want }, nil
	}
	return nil, fmt.Errorf("unknown tag type %s", q.Type)
}

func (q Query) strMatcher() (func(anndata.Tag) bool, error) {
	pattern := q.Pattern
	fold := func(s string) string { return s }
	if q.IgnoreCase {
		fold = strings.ToLower
		pattern = strings.ToLower(pattern)
	}
	switch q.Str {
	case StrContains:
		return func(t anndata.Tag) bool { return strings.Contains(fold(t.Content), pattern) }, nil
	case StrStartsWith:
		return func(t anndata.Tag) bool { return strings.HasPrefix(fold(t.Content), pattern) }, nil
	case StrEndsWith:
		return func(t anndata.Tag) bool { return strings.HasSuffix(fold(t.Content), pattern) }, nil
	case StrRegexp:
		expr := q.Pattern
		if q.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		return func(t anndata.Tag) bool { return re.MatchString(t.Content) }, nil
	}
	return func(t anndata.Tag) bool { return fold(t.Content) == pattern }, nil
}

func compareNum(v, want float64, op NumOp) bool {
	switch op {
	case NumGreater:
		return v > want
	case NumLower:
		return v < want
	case NumGreaterEqual:
		return v >= want
	case NumLowerEqual:
		return v <= want
	}
	return v == want
}

// SearchFrom returns the reference time of a search starting at a: its
// begin going forward and its end going backward. Without an annotation
// the search covers the whole tiers.
func SearchFrom(a *anndata.Annotation, dir Direction) float64 {
	switch {
	case a == nil && dir == Forward:
		return math.Inf(-1)
	case a == nil:
		return math.Inf(1)
	case dir == Forward:
		return a.Location.Begin.Midpoint
	}
	return a.Location.End.Midpoint
}

// relevant is the endpoint searches are ordered by.
func relevant(a *anndata.Annotation, dir Direction) float64 {
	if dir == Forward {
		return a.Location.Begin.Midpoint
	}
	return a.Location.End.Midpoint
}

// better reports whether x comes strictly before y in the direction.
func better(x, y float64, dir Direction) bool {
	if dir == Forward {
		return x < y
	}
	return x > y
}

// Search walks tiers from time at in direction dir and returns the tier
// and annotation indexes of the nearest match. Equal times are resolved
// in favour of the earlier tier. ok is false when nothing matches.
func Search(tiers []*anndata.Tier, match Matcher, at float64, dir Direction) (tier, ann int, ok bool) {
	tier, ann = -1, -1
	var best float64
	for ti, t := range tiers {
		if t == nil {
			continue
		}
		for _, i := range walk(t, at, dir) {
			a := t.At(i)
			r := relevant(a, dir)
			if ok && !better(r, best, dir) {
				break
			}
			if match(a) {
				tier, ann, best, ok = ti, i, r, true
				break
			}
		}
	}
	return tier, ann, ok
}

// walk lists the annotations of t after at in the order a search meets
// them: by begin going forward, by end going backward.
func walk(t *anndata.Tier, at float64, dir Direction) []int {
	if dir == Backward {
		return t.EndingBefore(at)
	}
	first := t.Near(at, anndata.Forward)
	if first < 0 {
		return nil
	}
	out := make([]int, 0, t.Len()-first)
	for i := first; i < t.Len(); i++ {
		out = append(out, i)
	}
	return out
}
