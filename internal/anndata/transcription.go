package anndata

import (
	"fmt"
	"strings"
)

// Transcription is a named ordered collection of tiers. It owns its tiers;
// other components refer to them by name or index.
type Transcription struct {
	Name string
	Meta Metadata

	tiers []*Tier
}

func NewTranscription(name string) *Transcription {
	return &Transcription{Name: name, Meta: newMetadata()}
}

func (trs *Transcription) Len() int { return len(trs.tiers) }

func (trs *Transcription) Tiers() []*Tier { return trs.tiers }

func (trs *Transcription) TierAt(i int) *Tier {
	if i < 0 || i >= len(trs.tiers) {
		return nil
	}
	return trs.tiers[i]
}

// Find returns the tier with the given name, ignoring case, or nil.
func (trs *Transcription) Find(name string) *Tier {
	if i := trs.TierIndex(name); i >= 0 {
		return trs.tiers[i]
	}
	return nil
}

func (trs *Transcription) TierIndex(name string) int {
	for i, t := range trs.tiers {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

// Append adds a tier at the end. Tier names are unique in a transcription.
func (trs *Transcription) Append(t *Tier) error {
	if trs.TierIndex(t.Name) >= 0 {
		return fmt.Errorf("%w: %q", ErrTierName, t.Name)
	}
	trs.tiers = append(trs.tiers, t)
	return nil
}

// CreateTier appends a new empty tier.
func (trs *Transcription) CreateTier(name string, typ TagType) (*Tier, error) {
	t := NewTier(name, typ)
	if err := trs.Append(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Pop removes and returns the tier at index i.
func (trs *Transcription) Pop(i int) (*Tier, error) {
	if i < 0 || i >= len(trs.tiers) {
		return nil, fmt.Errorf("tier index %d out of range", i)
	}
	t := trs.tiers[i]
	trs.tiers = append(trs.tiers[:i], trs.tiers[i+1:]...)
	return t, nil
}

// UniqueName returns name, suffixed when a tier already uses it.
func (trs *Transcription) UniqueName(name string) string {
	if trs.TierIndex(name) < 0 {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if trs.TierIndex(candidate) < 0 {
			return candidate
		}
	}
}

// Duration is the largest endpoint of all tiers, radius included.
func (trs *Transcription) Duration() float64 {
	var max float64
	for _, t := range trs.tiers {
		if h := t.Highest(); h > max {
			max = h
		}
	}
	return max
}
