package anki

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	clozeRe = regexp.MustCompile(`\{\{c(\d+)::([^}]*?)(?:::([^}]*))?\}\}`)
	rectRe  = regexp.MustCompile(`\{\{c(\d+)::image-occlusion:rect:left=([0-9.]+):top=([0-9.]+):width=([0-9.]+):height=([0-9.]+)(?::oi=(\d+))?\}\}`)
)

// ClozeIndexes returns the sorted unique 1-based cloze indices referenced
// by content. Content without cloze markers yields an empty slice.
func ClozeIndexes(content string) []int {
	seen := make(map[int]struct{})
	for _, m := range clozeRe.FindAllStringSubmatch(content, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		seen[n] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ClozePhase selects which side of a cloze card is being rendered.
type ClozePhase int

const (
	ClozeQuestion ClozePhase = iota
	ClozeAnswer
)

// RenderCloze renders content for one cloze index. In the question phase
// the target cloze's answer is hidden ([...], with the hint in parentheses
// when present); in the answer phase the literal answer text is revealed.
// All other cloze indices are shown un-hidden in both phases.
func RenderCloze(content string, index int, phase ClozePhase) string {
	return clozeRe.ReplaceAllStringFunc(content, func(m string) string {
		groups := clozeRe.FindStringSubmatch(m)
		n, err := strconv.Atoi(groups[1])
		if err != nil {
			return m
		}
		answer, hint := groups[2], groups[3]
		if n != index || phase == ClozeAnswer {
			return answer
		}
		if hint != "" {
			return "[...(" + hint + ")]"
		}
		return "[...]"
	})
}

// OcclusionRect is one masked rectangle of an image-occlusion item, with
// coordinates normalized to the 0–1 range.
type OcclusionRect struct {
	Index  int
	Left   float64
	Top    float64
	Width  float64
	Height float64
	OI     int
}

// OcclusionRects parses image-occlusion rectangle markers out of content.
// Content without markers yields an empty list, never an error.
func OcclusionRects(content string) []OcclusionRect {
	var out []OcclusionRect
	for _, m := range rectRe.FindAllStringSubmatch(content, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		left, err1 := strconv.ParseFloat(m[2], 64)
		top, err2 := strconv.ParseFloat(m[3], 64)
		width, err3 := strconv.ParseFloat(m[4], 64)
		height, err4 := strconv.ParseFloat(m[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		r := OcclusionRect{Index: idx, Left: left, Top: top, Width: width, Height: height}
		if m[6] != "" {
			r.OI, _ = strconv.Atoi(m[6])
		}
		out = append(out, r)
	}
	return out
}
