package anki

import (
	"strings"
	"testing"
)

func TestClozeIndexes_SortedUnique(t *testing.T) {
	content := "{{c3::x}} {{c1::y}} {{c2::z}} {{c1::again}}"
	got := ClozeIndexes(content)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("indexes = %v, want [1 2 3]", got)
	}
}

func TestClozeIndexes_NoClozes(t *testing.T) {
	if got := ClozeIndexes("plain text without markers"); len(got) != 0 {
		t.Errorf("indexes = %v, want empty", got)
	}
}

func TestRenderCloze_QuestionHidesTarget(t *testing.T) {
	content := "{{c1::alpha}} {{c2::beta::hint}}"

	q := RenderCloze(content, 2, ClozeQuestion)
	if strings.Contains(q, "beta") {
		t.Errorf("question reveals answer: %q", q)
	}
	if !strings.Contains(q, "(hint)") {
		t.Errorf("question missing hint: %q", q)
	}
	if !strings.Contains(q, "alpha") {
		t.Errorf("non-target cloze should be un-hidden: %q", q)
	}

	a := RenderCloze(content, 2, ClozeAnswer)
	if a != "alpha beta" {
		t.Errorf("answer = %q, want %q", a, "alpha beta")
	}
}

func TestRenderCloze_NoHintPlaceholder(t *testing.T) {
	got := RenderCloze("{{c1::secret}}", 1, ClozeQuestion)
	if got != "[...]" {
		t.Errorf("question = %q, want [...]", got)
	}
}

func TestRenderCloze_OtherIndexVisibleInBothPhases(t *testing.T) {
	content := "{{c1::one}} / {{c2::two}}"
	for _, phase := range []ClozePhase{ClozeQuestion, ClozeAnswer} {
		got := RenderCloze(content, 1, phase)
		if !strings.Contains(got, "two") {
			t.Errorf("phase %v hides non-target cloze: %q", phase, got)
		}
	}
}

func TestOcclusionRects_Parse(t *testing.T) {
	content := "{{c1::image-occlusion:rect:left=0.1:top=0.25:width=0.3:height=0.05:oi=1}}" +
		" {{c2::image-occlusion:rect:left=0.5:top=0.5:width=0.2:height=0.2}}"
	rects := OcclusionRects(content)
	if len(rects) != 2 {
		t.Fatalf("len(rects) = %d, want 2", len(rects))
	}
	r := rects[0]
	if r.Index != 1 || r.Left != 0.1 || r.Top != 0.25 || r.Width != 0.3 || r.Height != 0.05 || r.OI != 1 {
		t.Errorf("rect[0] = %+v", r)
	}
	if rects[1].Index != 2 || rects[1].OI != 0 {
		t.Errorf("rect[1] = %+v", rects[1])
	}
}

func TestOcclusionRects_UnmatchedContent(t *testing.T) {
	if rects := OcclusionRects("{{c1::just a cloze}} and text"); len(rects) != 0 {
		t.Errorf("rects = %v, want empty", rects)
	}
}
