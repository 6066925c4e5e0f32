package aio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/files"
	"github.com/sppas/phoenix/internal/logger"
)

// SubtitleTierName is the tier holding subtitle items.
const SubtitleTierName = "Trans"

// subtitleFormat reads and writes the subtitle formats handled by astisub.
// A subtitle file is one interval tier; an item at the place of an earlier
// one with other text goes to an extra tier so that no item is dropped.
type subtitleFormat struct{}

func (subtitleFormat) Extensions() []string {
	return []string{".srt", ".vtt", ".ass", ".ssa", ".ttml", ".stl"}
}

func (subtitleFormat) Software() string { return "Subtitles" }

func (subtitleFormat) Read(path string) (*anndata.Transcription, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return fromSubtitles(subs, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func fromSubtitles(subs *astisub.Subtitles, name string) (*anndata.Transcription, error) {
	trs := anndata.NewTranscription(name)
	first, err := trs.CreateTier(SubtitleTierName, anndata.TagString)
	if err != nil {
		return nil, err
	}
	if err := first.SetKind(anndata.KindInterval); err != nil {
		return nil, err
	}
	for _, item := range subs.Items {
		loc := anndata.Interval(item.StartAt.Seconds(), item.EndAt.Seconds(), 0)
		var labs []anndata.Label
		for _, l := range item.Lines {
			if text := strings.TrimSpace(l.String()); text != "" {
				labs = append(labs, anndata.NewLabel(anndata.StrTag(text)))
			}
		}
		if err := loc.Validate(); err != nil {
			logger.Warn("Subtitle item skipped", "start", item.StartAt, "error", err)
			continue
		}
		ann := anndata.NewAnnotation(loc, labs...)
		if err := addToFirstFree(trs, ann); err != nil {
			return nil, fmt.Errorf("item at %s: %w", item.StartAt, err)
		}
	}
	return trs, nil
}

func addToFirstFree(trs *anndata.Transcription, ann *anndata.Annotation) error {
	for _, t := range trs.Tiers() {
		if _, err := t.Add(ann); err == nil {
			return nil
		}
	}
	t, err := trs.CreateTier(trs.UniqueName(SubtitleTierName), anndata.TagString)
	if err != nil {
		return err
	}
	_, err = t.Add(ann)
	return err
}

func (f subtitleFormat) Write(trs *anndata.Transcription, path string) error {
	tier := subtitleTier(trs)
	if tier == nil {
		return fmt.Errorf("no interval tier to write as subtitles")
	}
	subs := toSubtitles(tier)
	ext := strings.ToLower(filepath.Ext(path))
	return files.WriteWith(path, 0o644, func(w io.Writer) error {
		return writeSubtitles(subs, ext, w)
	})
}

// subtitleTier picks the "Trans" tier or else the first interval tier.
func subtitleTier(trs *anndata.Transcription) *anndata.Tier {
	if t := trs.Find(SubtitleTierName); t != nil && !t.IsPoint() {
		return t
	}
	for _, t := range trs.Tiers() {
		if t.IsInterval() {
			return t
		}
	}
	return nil
}

func toSubtitles(tier *anndata.Tier) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	// WriteToSSA dereferences Metadata and needs a default style.
	subs.Metadata = &astisub.Metadata{SSAScriptType: "v4.00+"}
	style := defaultSSAStyle()
	subs.Styles = map[string]*astisub.Style{style.ID: style}
	for _, a := range tier.Annotations() {
		item := &astisub.Item{
			StartAt: seconds(a.Location.Begin.Midpoint),
			EndAt:   seconds(a.Location.End.Midpoint),
			Style:   style,
		}
		for _, l := range a.Labels {
			best, ok := l.Best()
			if !ok {
				continue
			}
			item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: best.Content}}})
		}
		if len(item.Lines) == 0 {
			continue
		}
		subs.Items = append(subs.Items, item)
	}
	return subs
}

func writeSubtitles(subs *astisub.Subtitles, ext string, w io.Writer) error {
	switch ext {
	case ".vtt":
		return subs.WriteToWebVTT(w)
	case ".ass", ".ssa":
		var buf bytes.Buffer
		if err := subs.WriteToSSA(&buf); err != nil {
			return err
		}
		// Players expect \N for hard line breaks.
		_, err := w.Write(bytes.ReplaceAll(buf.Bytes(), []byte("\\n"), []byte("\\N")))
		return err
	case ".ttml":
		return subs.WriteToTTML(w)
	case ".stl":
		return subs.WriteToSTL(w)
	}
	return subs.WriteToSRT(w)
}

func seconds(s float64) time.Duration {
	return time.Duration(s*float64(time.Second) + 0.5)
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }

func defaultSSAStyle() *astisub.Style {
	return &astisub.Style{
		ID: "Default",
		InlineStyle: &astisub.StyleAttributes{
			SSAFontName:        "Arial",
			SSAFontSize:        ptrFloat64(20),
			SSAPrimaryColour:   &astisub.Color{Red: 255, Green: 255, Blue: 255},
			SSASecondaryColour: &astisub.Color{Red: 255},
			SSAOutlineColour:   &astisub.Color{},
			SSABackColour:      &astisub.Color{},
			SSABold:            ptrBool(false),
			SSAItalic:          ptrBool(false),
			SSAScaleX:          ptrFloat64(100),
			SSAScaleY:          ptrFloat64(100),
			SSABorderStyle:     ptrInt(1),
			SSAOutline:         ptrFloat64(2),
			SSAShadow:          ptrFloat64(1),
			SSAAlignment:       ptrInt(2),
			SSAMarginLeft:      ptrInt(10),
			SSAMarginRight:     ptrInt(10),
			SSAMarginVertical:  ptrInt(10),
			SSAEncoding:        ptrInt(1),
		},
	}
}
