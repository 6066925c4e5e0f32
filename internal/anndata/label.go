package anndata

import (
	"fmt"
	"strconv"
	"strings"
)

// TagType is the declared type of tag values in a tier.
type TagType int

const (
	TagString TagType = iota
	TagInt
	TagFloat
	TagBool
)

var tagTypeNames = [...]string{"str", "int", "float", "bool"}

func (t TagType) String() string {
	if int(t) < 0 || int(t) >= len(tagTypeNames) {
		return "str"
	}
	return tagTypeNames[t]
}

// ParseTagType accepts the names used by the xml/json serialisations.
func ParseTagType(s string) (TagType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "str", "string":
		return TagString, nil
	case "int", "integer":
		return TagInt, nil
	case "float", "double":
		return TagFloat, nil
	case "bool", "boolean":
		return TagBool, nil
	}
	return TagString, fmt.Errorf("%w: unknown tag type %q", ErrTagType, s)
}

// Tag is a typed value. Content is stored in canonical form so that
// equality of tags is equality of their fields.
type Tag struct {
	Type    TagType
	Content string
}

// NewTag parses content under typ and returns its canonical form.
func NewTag(content string, typ TagType) (Tag, error) {
	switch typ {
	case TagString:
		return Tag{Type: typ, Content: content}, nil
	case TagInt:
		v, err := strconv.Atoi(strings.TrimSpace(content))
		if err != nil {
			return Tag{}, fmt.Errorf("%w: %q is not an int", ErrTagType, content)
		}
		return Tag{Type: typ, Content: strconv.Itoa(v)}, nil
	case TagFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
		if err != nil {
			return Tag{}, fmt.Errorf("%w: %q is not a float", ErrTagType, content)
		}
		return Tag{Type: typ, Content: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case TagBool:
		v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(content)))
		if err != nil {
			return Tag{}, fmt.Errorf("%w: %q is not a bool", ErrTagType, content)
		}
		return Tag{Type: typ, Content: strconv.FormatBool(v)}, nil
	}
	return Tag{}, fmt.Errorf("%w: unknown tag type %d", ErrTagType, typ)
}

// MustTag is NewTag for literals known to be valid.
func MustTag(content string, typ TagType) Tag {
	t, err := NewTag(content, typ)
	if err != nil {
		panic(err)
	}
	return t
}

// StrTag is a string tag.
func StrTag(content string) Tag { return Tag{Type: TagString, Content: content} }

func (t Tag) Int() int {
	v, _ := strconv.Atoi(t.Content)
	return v
}

func (t Tag) Float() float64 {
	v, _ := strconv.ParseFloat(t.Content, 64)
	return v
}

func (t Tag) Bool() bool {
	v, _ := strconv.ParseBool(t.Content)
	return v
}

// Alternative is one candidate tag of a label with an optional score.
type Alternative struct {
	Tag   Tag
	Score *float64
}

// Label is an ordered list of alternative tags.
type Label struct {
	Alternatives []Alternative
}

// NewLabel builds a label from unscored alternatives.
func NewLabel(tags ...Tag) Label {
	l := Label{Alternatives: make([]Alternative, 0, len(tags))}
	for _, t := range tags {
		l.Alternatives = append(l.Alternatives, Alternative{Tag: t})
	}
	return l
}

// Best returns the highest-scored alternative. Without any score it is
// the first one; unscored alternatives lose to scored ones.
func (l Label) Best() (Tag, bool) {
	if len(l.Alternatives) == 0 {
		return Tag{}, false
	}
	best := -1
	for i, a := range l.Alternatives {
		if a.Score == nil {
			continue
		}
		if best < 0 || *a.Score > *l.Alternatives[best].Score {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return l.Alternatives[best].Tag, true
}

func (l Label) HasScores() bool {
	for _, a := range l.Alternatives {
		if a.Score != nil {
			return true
		}
	}
	return false
}

func (l Label) Equal(o Label) bool {
	if len(l.Alternatives) != len(o.Alternatives) {
		return false
	}
	for i, a := range l.Alternatives {
		b := o.Alternatives[i]
		if a.Tag != b.Tag {
			return false
		}
		if (a.Score == nil) != (b.Score == nil) {
			return false
		}
		if a.Score != nil && *a.Score != *b.Score {
			return false
		}
	}
	return true
}

// LabelsEqual compares two label sequences element-wise.
func LabelsEqual(a, b []Label) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// CheckLabelsType returns an error when a tag does not have type typ.
func CheckLabelsType(labels []Label, typ TagType) error {
	for _, l := range labels {
		for _, a := range l.Alternatives {
			if a.Tag.Type != typ {
				return fmt.Errorf("%w: tag %q is %s, tier expects %s", ErrTagType, a.Tag.Content, a.Tag.Type, typ)
			}
		}
	}
	return nil
}

// Score returns a pointer to v for building scored alternatives.
func Score(v float64) *float64 { return &v }
