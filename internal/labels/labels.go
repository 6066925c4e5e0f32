// Package labels renders and parses annotation labels in the three
// serialisations offered by the label editor.
package labels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
)

// Mode is a label serialisation.
type Mode int

const (
	Review Mode = iota
	XML
	JSON
)

var modeNames = [...]string{"review", "xml", "json"}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return "review"
	}
	return modeNames[m]
}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return Review, fmt.Errorf("unknown label view %q", s)
}

// Modes lists all modes in display order.
func Modes() []Mode { return []Mode{Review, XML, JSON} }

var ErrSyntax = errors.New("label syntax error")

// Render serialises labels in mode m.
func Render(labels []anndata.Label, m Mode) string {
	switch m {
	case XML:
		return renderXML(labels)
	case JSON:
		return renderJSON(labels)
	}
	return renderReview(labels)
}

// Parse reads text written in mode m. In review mode tags get type typ;
// the other modes carry their own types, which must still equal typ.
// Errors are ParseErrors.
func Parse(text string, m Mode, typ anndata.TagType) ([]anndata.Label, error) {
	var (
		out []anndata.Label
		err error
	)
	switch m {
	case XML:
		out, err = parseXML(text)
	case JSON:
		out, err = parseJSON(text)
	default:
		out, err = parseReview(text, typ)
	}
	if err != nil {
		return nil, apperrors.Parse(err)
	}
	if err := anndata.CheckLabelsType(out, typ); err != nil {
		return nil, apperrors.Parse(err)
	}
	return out, nil
}

// Lossless reports whether rendering labels in m and parsing the text
// back gives the same labels. Review drops scores and cannot write a
// label without alternatives; tag types are inferred from the tier.
func Lossless(labels []anndata.Label, m Mode) bool {
	if m != Review {
		return true
	}
	for _, l := range labels {
		if l.HasScores() || len(l.Alternatives) == 0 {
			return false
		}
	}
	return true
}

// Text returns the review form of the best tag of each label, joined by
// spaces. Lanes and list views display this.
func Text(labels []anndata.Label) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if len(l.Alternatives) > 1 {
			parts = append(parts, renderAlternatives(l))
			continue
		}
		if best, ok := l.Best(); ok {
			parts = append(parts, best.Content)
		}
	}
	return strings.Join(parts, " ")
}
