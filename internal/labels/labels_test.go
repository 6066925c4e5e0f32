package labels

import (
	"strings"
	"testing"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
)

func TestRoundTrip(t *testing.T) {
	str := anndata.StrTag
	cases := map[string][]anndata.Label{
		"single":       {anndata.NewLabel(str("bonjour"))},
		"alternatives": {anndata.NewLabel(str("a"), str("e"), str("@"))},
		"multi-line":   {anndata.NewLabel(str("le")), anndata.NewLabel(str("chat")), anndata.NewLabel(str("<laugh>"))},
		"spaces":       {anndata.NewLabel(str("word X"))},
	}
	for name, labels := range cases {
		for _, m := range Modes() {
			t.Run(name+"/"+m.String(), func(t *testing.T) {
				text := Render(labels, m)
				got, err := Parse(text, m, anndata.TagString)
				if err != nil {
					t.Fatalf("Parse(%q): %v", text, err)
				}
				if !anndata.LabelsEqual(got, labels) {
					t.Fatalf("round trip mismatch:\ntext: %q\ngot:  %+v\nwant: %+v", text, got, labels)
				}
			})
		}
	}
}

func TestRoundTrip_SyntaxInTags(t *testing.T) {
	str := anndata.StrTag
	cases := []struct {
		name   string
		labels []anndata.Label
	}{
		{"separator", []anndata.Label{anndata.NewLabel(str("a|b"))}},
		{"braces", []anndata.Label{anndata.NewLabel(str("{x}"))}},
		{"angle brackets", []anndata.Label{anndata.NewLabel(str("3 < 5"))}},
		{"square brackets", []anndata.Label{anndata.NewLabel(str("[noise"))}},
		{"empty tag", []anndata.Label{anndata.NewLabel(str(""))}},
		{"blank tag", []anndata.Label{anndata.NewLabel(str("   "))}},
		{"newline", []anndata.Label{anndata.NewLabel(str("line one\nline two"))}},
		{"carriage return", []anndata.Label{anndata.NewLabel(str("end\r"))}},
		{"backslash", []anndata.Label{anndata.NewLabel(str(`C:\dir\n`))}},
		{"empty alternative", []anndata.Label{anndata.NewLabel(str("a"), str(""))}},
		{"alternatives with syntax", []anndata.Label{anndata.NewLabel(str("x|y"), str("{z}"), str("<"))}},
		{"empty label between others", []anndata.Label{
			anndata.NewLabel(str("a")), anndata.NewLabel(str("")), anndata.NewLabel(str("b")),
		}},
	}
	for _, tc := range cases {
		for _, m := range Modes() {
			t.Run(tc.name+"/"+m.String(), func(t *testing.T) {
				if !Lossless(tc.labels, m) {
					t.Fatalf("Lossless = false")
				}
				text := Render(tc.labels, m)
				got, err := Parse(text, m, anndata.TagString)
				if err != nil {
					t.Fatalf("Parse(%q): %v", text, err)
				}
				if !anndata.LabelsEqual(got, tc.labels) {
					t.Fatalf("round trip mismatch:\ntext: %q\ngot:  %+v\nwant: %+v", text, got, tc.labels)
				}
			})
		}
	}
}

func TestRenderReview_Escapes(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"a|b", `a\|b`},
		{"3 < 5", `3 \< 5`},
		{"", "{}"},
		{"two\nlines", `two\nlines`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Render([]anndata.Label{anndata.NewLabel(anndata.StrTag(tt.content))}, Review)
			if got != tt.want {
				t.Fatalf("Render(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestLossless_LabelWithoutAlternatives(t *testing.T) {
	labels := []anndata.Label{{}}
	if Lossless(labels, Review) {
		t.Fatal("review cannot write a label without alternatives")
	}
	for _, m := range []Mode{XML, JSON} {
		got, err := Parse(Render(labels, m), m, anndata.TagString)
		if err != nil || !anndata.LabelsEqual(got, labels) {
			t.Fatalf("%s: got %+v, %v", m, got, err)
		}
	}
}

func TestRoundTrip_ScoresAndTypes(t *testing.T) {
	labels := []anndata.Label{{Alternatives: []anndata.Alternative{
		{Tag: anndata.MustTag("3", anndata.TagInt), Score: anndata.Score(0.75)},
		{Tag: anndata.MustTag("4", anndata.TagInt), Score: anndata.Score(0.25)},
	}}}
	for _, m := range []Mode{XML, JSON} {
		text := Render(labels, m)
		got, err := Parse(text, m, anndata.TagInt)
		if err != nil {
			t.Fatalf("%s: Parse: %v", m, err)
		}
		if !anndata.LabelsEqual(got, labels) {
			t.Fatalf("%s: scores or types lost: %+v", m, got)
		}
	}
	if Lossless(labels, Review) {
		t.Fatalf("review should be lossy for scored labels")
	}
	if !Lossless(labels, JSON) {
		t.Fatalf("json keeps scores")
	}
}

func TestRenderReview(t *testing.T) {
	labels := []anndata.Label{
		anndata.NewLabel(anndata.StrTag("a"), anndata.StrTag("b")),
		anndata.NewLabel(anndata.StrTag("c")),
	}
	if got := Render(labels, Review); got != "{a|b}\nc" {
		t.Fatalf("Render = %q", got)
	}
	if got := Text(labels); got != "{a|b} c" {
		t.Fatalf("Text = %q", got)
	}
}

func TestParseReview_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  anndata.TagType
	}{
		{"unbalanced brace", "{a|b", anndata.TagString},
		{"unexpected close", "a]", anndata.TagString},
		{"crossed pairs", "{a[b}]", anndata.TagString},
		{"not an int", "12\nx", anndata.TagInt},
		{"not a bool", "yes", anndata.TagBool},
		{"dangling escape", `abc\`, anndata.TagString},
		{"bare angle bracket", "3 < 5", anndata.TagString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, Review, tt.typ)
			if !apperrors.IsParse(err) {
				t.Fatalf("err = %v, want parse error", err)
			}
		})
	}
}

func TestParseReview_SkipsBlankLinesAndBareAlternatives(t *testing.T) {
	got, err := Parse("\na|b\n\n  \nc\n", Review, anndata.TagString)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || len(got[0].Alternatives) != 2 || got[1].Alternatives[0].Tag.Content != "c" {
		t.Fatalf("unexpected labels %+v", got)
	}
}

func TestParseStructured_TypeMismatch(t *testing.T) {
	text := `[[{"tag":"x","type":"str"}]]`
	if _, err := Parse(text, JSON, anndata.TagFloat); !apperrors.IsParse(err) {
		t.Fatalf("err = %v, want parse error", err)
	}
	if _, err := Parse(`<Labels><Label><Tag type="int">x</Tag></Label></Labels>`, XML, anndata.TagInt); !apperrors.IsParse(err) {
		t.Fatalf("xml: err = %v, want parse error", err)
	}
	if _, err := Parse(`<Labels><Label>`, XML, anndata.TagString); !apperrors.IsParse(err) {
		t.Fatalf("truncated xml: err = %v, want parse error", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, m := range Modes() {
		got, err := Parse("  ", m, anndata.TagString)
		if err != nil || len(got) != 0 {
			t.Fatalf("%s: Parse(blank) = %v, %v", m, got, err)
		}
	}
}

func TestHighlight(t *testing.T) {
	text := "{a|b}"
	spans := Highlight(text, Review)
	var bold strings.Builder
	for _, s := range spans {
		if s.Bold {
			bold.WriteString(text[s.Start:s.End])
		}
	}
	if bold.String() != "{|}" {
		t.Fatalf("bold chars = %q", bold.String())
	}
	if len(spans) != 5 {
		t.Fatalf("spans = %+v", spans)
	}
	if got := Highlight(text, XML); len(got) != 1 || got[0].Bold {
		t.Fatalf("xml highlight = %+v", got)
	}
}

func TestHighlight_EscapedCharsArePlain(t *testing.T) {
	text := `{a\|b|c}`
	var bold strings.Builder
	for _, s := range Highlight(text, Review) {
		if s.Bold {
			bold.WriteString(text[s.Start:s.End])
		}
	}
	if bold.String() != "{|}" {
		t.Fatalf("bold chars = %q", bold.String())
	}
}
