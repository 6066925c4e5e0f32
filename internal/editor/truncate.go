package editor

import "github.com/rivo/uniseg"

const ellipsis = "..."

// TruncateMiddle shortens text to at most maxCells display cells by
// replacing its middle with "...". Grapheme clusters are never split.
func TruncateMiddle(text string, maxCells int) string {
	if uniseg.StringWidth(text) <= maxCells {
		return text
	}
	budget := maxCells - len(ellipsis)
	if budget <= 0 {
		return ""
	}
	var clusters []string
	var widths []int
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
		widths = append(widths, g.Width())
	}

	headBudget := (budget + 1) / 2
	tailBudget := budget - headBudget
	head, used := 0, 0
	for head < len(clusters) && used+widths[head] <= headBudget {
		used += widths[head]
		head++
	}
	tail, tused := len(clusters), 0
	for tail > head && tused+widths[tail-1] <= tailBudget+(headBudget-used) {
		tused += widths[tail-1]
		tail--
	}

	out := make([]byte, 0, len(text))
	for _, c := range clusters[:head] {
		out = append(out, c...)
	}
	out = append(out, ellipsis...)
	for _, c := range clusters[tail:] {
		out = append(out, c...)
	}
	return string(out)
}
