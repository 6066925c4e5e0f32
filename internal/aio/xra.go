package aio

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/files"
	"github.com/sppas/phoenix/internal/version"
)

const xraVersion = "1.5"

// xraFormat is the native SPPAS XML format. It keeps every tier, point and
// interval localisations, typed tags with scores, and metadata.
type xraFormat struct{}

func (xraFormat) Extensions() []string { return []string{".xra"} }
func (xraFormat) Software() string     { return "SPPAS" }

type xraDocument struct {
	XMLName xml.Name     `xml:"Document"`
	Author  string       `xml:"author,attr,omitempty"`
	Date    string       `xml:"date,attr,omitempty"`
	Format  string       `xml:"format,attr"`
	Meta    *xraMetadata `xml:"Metadata,omitempty"`
	Tiers   []xraTier    `xml:"Tier"`
}

type xraMetadata struct {
	Entries []xraEntry `xml:"Entry"`
}

type xraEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xraTier struct {
	ID          string          `xml:"id,attr,omitempty"`
	Name        string          `xml:"tiername,attr"`
	Meta        *xraMetadata    `xml:"Metadata,omitempty"`
	Annotations []xraAnnotation `xml:"Annotation"`
}

type xraAnnotation struct {
	Meta     *xraMetadata `xml:"Metadata,omitempty"`
	Location xraLocation  `xml:"Location"`
	Labels   []xraLabel   `xml:"Label"`
}

type xraLocation struct {
	Point    *xraPoint    `xml:"Point,omitempty"`
	Interval *xraInterval `xml:"Interval,omitempty"`
}

type xraInterval struct {
	Begin xraPoint `xml:"Begin"`
	End   xraPoint `xml:"End"`
}

type xraPoint struct {
	Midpoint float64 `xml:"midpoint,attr"`
	Radius   float64 `xml:"radius,attr,omitempty"`
}

type xraLabel struct {
	Tags []xraTag `xml:"Tag"`
}

type xraTag struct {
	Type    string   `xml:"type,attr,omitempty"`
	Score   *float64 `xml:"score,attr,omitempty"`
	Content string   `xml:",chardata"`
}

func (xraFormat) Read(path string) (*anndata.Transcription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeXRA(f)
}

func decodeXRA(r io.Reader) (*anndata.Transcription, error) {
	var doc xraDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	trs := anndata.NewTranscription("")
	readMeta(trs.Meta, doc.Meta)
	for _, xt := range doc.Tiers {
		tier, err := decodeTier(xt)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", xt.Name, err)
		}
		tier.Name = trs.UniqueName(tier.Name)
		if err := trs.Append(tier); err != nil {
			return nil, err
		}
	}
	return trs, nil
}

func decodeTier(xt xraTier) (*anndata.Tier, error) {
	typ := anndata.TagString
	found := false
	for _, xa := range xt.Annotations {
		for _, xl := range xa.Labels {
			if len(xl.Tags) > 0 {
				typ, _ = anndata.ParseTagType(xl.Tags[0].Type)
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	tier := anndata.NewTier(xt.Name, typ)
	readMeta(tier.Meta, xt.Meta)
	if xt.ID != "" {
		tier.Meta[anndata.KeyID] = xt.ID
	}
	for i, xa := range xt.Annotations {
		var loc anndata.Location
		switch {
		case xa.Location.Interval != nil:
			b, e := xa.Location.Interval.Begin, xa.Location.Interval.End
			loc = anndata.IntervalLocation(anndata.NewPoint(b.Midpoint, b.Radius), anndata.NewPoint(e.Midpoint, e.Radius))
		case xa.Location.Point != nil:
			loc = anndata.PointLocation(anndata.NewPoint(xa.Location.Point.Midpoint, xa.Location.Point.Radius))
		default:
			return nil, fmt.Errorf("annotation %d has no location", i)
		}
		ann := anndata.NewAnnotation(loc)
		readMeta(ann.Meta, xa.Meta)
		for _, xl := range xa.Labels {
			var label anndata.Label
			for _, xtag := range xl.Tags {
				tagType, err := anndata.ParseTagType(xtag.Type)
				if err != nil {
					return nil, err
				}
				tag, err := anndata.NewTag(xtag.Content, tagType)
				if err != nil {
					return nil, fmt.Errorf("annotation %d: %w", i, err)
				}
				label.Alternatives = append(label.Alternatives, anndata.Alternative{Tag: tag, Score: xtag.Score})
			}
			ann.Labels = append(ann.Labels, label)
		}
		if _, err := tier.Add(ann); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return tier, nil
}

// readMeta copies entries into m; the id entry replaces the generated one.
func readMeta(m anndata.Metadata, x *xraMetadata) {
	if x == nil {
		return
	}
	for _, e := range x.Entries {
		m[e.Key] = e.Value
	}
}

func writeMeta(m anndata.Metadata) *xraMetadata {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	x := &xraMetadata{}
	for _, k := range keys {
		x.Entries = append(x.Entries, xraEntry{Key: k, Value: m[k]})
	}
	return x
}

func (xraFormat) Write(trs *anndata.Transcription, path string) error {
	return files.WriteWith(path, 0o644, func(w io.Writer) error {
		return encodeXRA(trs, w)
	})
}

func encodeXRA(trs *anndata.Transcription, w io.Writer) error {
	doc := xraDocument{
		Author: version.Software(),
		Date:   time.Now().Format("2006-01-02"),
		Format: xraVersion,
		Meta:   writeMeta(trs.Meta),
	}
	for _, t := range trs.Tiers() {
		xt := xraTier{ID: t.ID(), Name: t.Name, Meta: writeMeta(t.Meta)}
		for _, a := range t.Annotations() {
			xa := xraAnnotation{Meta: writeMeta(a.Meta)}
			b, e := a.Location.Begin, a.Location.End
			if a.Location.IsPoint {
				xa.Location.Point = &xraPoint{Midpoint: b.Midpoint, Radius: b.Radius}
			} else {
				xa.Location.Interval = &xraInterval{
					Begin: xraPoint{Midpoint: b.Midpoint, Radius: b.Radius},
					End:   xraPoint{Midpoint: e.Midpoint, Radius: e.Radius},
				}
			}
			for _, l := range a.Labels {
				var xl xraLabel
				for _, alt := range l.Alternatives {
					xl.Tags = append(xl.Tags, xraTag{Type: alt.Tag.Type.String(), Score: alt.Score, Content: alt.Tag.Content})
				}
				xa.Labels = append(xa.Labels, xl)
			}
			xt.Annotations = append(xt.Annotations, xa)
		}
		doc.Tiers = append(doc.Tiers, xt)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

