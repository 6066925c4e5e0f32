package labels

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/sppas/phoenix/internal/anndata"
)

type xmlLabels struct {
	XMLName xml.Name   `xml:"Labels"`
	Labels  []xmlLabel `xml:"Label"`
}

type xmlLabel struct {
	Tags []xmlTag `xml:"Tag"`
}

type xmlTag struct {
	Type    string   `xml:"type,attr"`
	Score   *float64 `xml:"score,attr,omitempty"`
	Content string   `xml:",chardata"`
}

func renderXML(labels []anndata.Label) string {
	doc := xmlLabels{Labels: make([]xmlLabel, 0, len(labels))}
	for _, l := range labels {
		var xl xmlLabel
		for _, a := range l.Alternatives {
			xl.Tags = append(xl.Tags, xmlTag{Type: a.Tag.Type.String(), Score: a.Score, Content: a.Tag.Content})
		}
		doc.Labels = append(doc.Labels, xl)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Only reachable with invalid UTF-8 in tag content.
		return ""
	}
	return string(out)
}

func parseXML(text string) ([]anndata.Label, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc xmlLabels
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	out := make([]anndata.Label, 0, len(doc.Labels))
	for _, xl := range doc.Labels {
		var label anndata.Label
		for _, xt := range xl.Tags {
			tag, err := typedTag(xt.Content, xt.Type)
			if err != nil {
				return nil, err
			}
			label.Alternatives = append(label.Alternatives, anndata.Alternative{Tag: tag, Score: xt.Score})
		}
		out = append(out, label)
	}
	return out, nil
}

type jsonTag struct {
	Tag   string   `json:"tag"`
	Type  string   `json:"type"`
	Score *float64 `json:"score,omitempty"`
}

func renderJSON(labels []anndata.Label) string {
	doc := make([][]jsonTag, 0, len(labels))
	for _, l := range labels {
		tags := make([]jsonTag, 0, len(l.Alternatives))
		for _, a := range l.Alternatives {
			tags = append(tags, jsonTag{Tag: a.Tag.Content, Type: a.Tag.Type.String(), Score: a.Score})
		}
		doc = append(doc, tags)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

func parseJSON(text string) ([]anndata.Label, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc [][]jsonTag
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	out := make([]anndata.Label, 0, len(doc))
	for _, tags := range doc {
		var label anndata.Label
		for _, jt := range tags {
			tag, err := typedTag(jt.Tag, jt.Type)
			if err != nil {
				return nil, err
			}
			label.Alternatives = append(label.Alternatives, anndata.Alternative{Tag: tag, Score: jt.Score})
		}
		out = append(out, label)
	}
	return out, nil
}

func typedTag(content, typeName string) (anndata.Tag, error) {
	typ, err := anndata.ParseTagType(typeName)
	if err != nil {
		return anndata.Tag{}, err
	}
	return anndata.NewTag(content, typ)
}
