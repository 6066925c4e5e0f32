package anndata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brunoga/deep"
	"github.com/google/uuid"

	"github.com/sppas/phoenix/internal/apperrors"
)

var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrInverted        = errors.New("interval is inverted")
	ErrConflict        = errors.New("annotations at the same location carry distinct labels")
	ErrOrder           = errors.New("annotations are not sorted")
	ErrKindMismatch    = errors.New("annotation kind differs from tier kind")
	ErrTagType         = errors.New("tag type mismatch")
	ErrIndex           = errors.New("annotation index out of range")
	ErrReadOnlyKey     = errors.New("metadata key is read-only")
	ErrNoBoundary      = errors.New("no annotation has this boundary")
	ErrTierName        = errors.New("tier name already used")
)

// violation wraps a model error so it is reported as a ModelViolation.
func violation(format string, args ...any) error {
	return apperrors.ModelViolation(fmt.Errorf(format, args...))
}

const (
	// KeyID is the immutable identifier key.
	KeyID = "id"
	// PrivatePrefix marks metadata the editor shows but never changes.
	PrivatePrefix = "private_"
)

// Metadata is a string-keyed map attached to annotations, tiers and
// transcriptions.
type Metadata map[string]string

// Set changes a key from the editor. The id and private_ keys are refused.
func (m Metadata) Set(key, value string) error {
	if key == KeyID {
		if _, ok := m[KeyID]; ok {
			return fmt.Errorf("%w: %s", ErrReadOnlyKey, key)
		}
	}
	if strings.HasPrefix(key, PrivatePrefix) {
		return fmt.Errorf("%w: %s", ErrReadOnlyKey, key)
	}
	m[key] = value
	return nil
}

// Delete removes an editable key.
func (m Metadata) Delete(key string) error {
	if key == KeyID || strings.HasPrefix(key, PrivatePrefix) {
		return fmt.Errorf("%w: %s", ErrReadOnlyKey, key)
	}
	delete(m, key)
	return nil
}

func newMetadata() Metadata {
	return Metadata{KeyID: uuid.NewString()}
}

// Annotation is a located, labelled unit of a tier.
type Annotation struct {
	Location Location
	Labels   []Label
	Meta     Metadata
}

// NewAnnotation creates an annotation with a fresh id.
func NewAnnotation(loc Location, labels ...Label) *Annotation {
	return &Annotation{
		Location: loc,
		Labels:   labels,
		Meta:     newMetadata(),
	}
}

func (a *Annotation) ID() string { return a.Meta[KeyID] }

// Copy returns a deep copy sharing nothing with a, including the id.
func (a *Annotation) Copy() *Annotation {
	c := deep.MustCopy(*a)
	if c.Meta == nil {
		c.Meta = newMetadata()
	}
	return &c
}

// Kind is the uniform kind of a tier's annotations.
type Kind int

const (
	KindUnknown Kind = iota
	KindPoint
	KindInterval
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindInterval:
		return "interval"
	}
	return "unknown"
}
