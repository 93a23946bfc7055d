package anki

import (
	"html"
	"regexp"
	"strings"
)

// The converter is regex-driven and best-effort: the output contract is
// this fixed substitution rule list, not HTML semantics. Malformed markup
// degrades to readable text, never to an error.
var (
	imgRe       = regexp.MustCompile(`(?i)<img[^>]*\bsrc\s*=\s*["']?([^"'\s>]+)["']?[^>]*>`)
	soundRe     = regexp.MustCompile(`\[sound:([^\]]+)\]`)
	breakRe     = regexp.MustCompile(`(?i)<br\s*/?>|</?div[^>]*>|</?p[^>]*>`)
	boldRe      = regexp.MustCompile(`(?is)<b>(.*?)</b>`)
	strongRe    = regexp.MustCompile(`(?is)<strong>(.*?)</strong>`)
	italicRe    = regexp.MustCompile(`(?is)<i>(.*?)</i>`)
	emRe        = regexp.MustCompile(`(?is)<em>(.*?)</em>`)
	underlineRe = regexp.MustCompile(`(?is)<u>(.*?)</u>`)
	anyTagRe    = regexp.MustCompile(`<[^>]+>`)
	hintRe      = regexp.MustCompile(`\{\{c(\d+)::([^}]*?)::([^}]*)\}\}`)
	newlinesRe  = regexp.MustCompile(`\n{3,}`)
)

// emphasisPasses bounds how deep nested bold/italic pairs resolve. A fixed
// small count is enough for real card content.
const emphasisPasses = 3

// svgMaskFields are field names whose content is an SVG occlusion mask and
// must be preserved verbatim.
var svgMaskFields = map[string]struct{}{
	"qmask": {},
	"amask": {},
	"omask": {},
}

// Content is the result of converting one note's fields.
type Content struct {
	Text      string
	MediaRefs []string
}

// FieldsToContent converts a note's field values into the vault's markdown
// dialect. When more than one field is non-empty, each field's text is
// prefixed with a level-2 heading carrying the field name; a single
// non-empty field emits bare text. SVG mask fields and standalone SVG
// content bypass markup stripping entirely.
func FieldsToContent(values, names []string) Content {
	type block struct {
		name string
		text string
	}
	var blocks []block
	var refs []string

	for i, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if isSVGMask(name, raw) {
			blocks = append(blocks, block{name: name, text: "```svg\n" + strings.TrimSpace(raw) + "\n```"})
			continue
		}
		text, fieldRefs := convertField(raw)
		if text == "" {
			continue
		}
		refs = append(refs, fieldRefs...)
		blocks = append(blocks, block{name: name, text: text})
	}

	var parts []string
	for _, b := range blocks {
		if len(blocks) > 1 && b.name != "" {
			parts = append(parts, "## "+b.name+"\n\n"+b.text)
		} else {
			parts = append(parts, b.text)
		}
	}

	return Content{Text: strings.Join(parts, "\n\n"), MediaRefs: refs}
}

// isSVGMask reports whether a field must be preserved verbatim: either its
// name is a known mask field, or its trimmed content is a standalone SVG
// document.
func isSVGMask(fieldName, content string) bool {
	if _, ok := svgMaskFields[strings.ToLower(strings.TrimSpace(fieldName))]; ok {
		return true
	}
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<svg") && strings.HasSuffix(trimmed, "</svg>")
}

// convertField applies the substitution rule list to one field value and
// collects the media file names it references.
func convertField(raw string) (string, []string) {
	var refs []string

	out := imgRe.ReplaceAllStringFunc(raw, func(m string) string {
		src := imgRe.FindStringSubmatch(m)[1]
		refs = append(refs, src)
		return "![](" + src + ")"
	})

	out = soundRe.ReplaceAllStringFunc(out, func(m string) string {
		file := soundRe.FindStringSubmatch(m)[1]
		refs = append(refs, file)
		return "![](" + file + ")"
	})

	out = breakRe.ReplaceAllString(out, "\n")

	// Nested emphasis resolves over a fixed number of passes.
	for i := 0; i < emphasisPasses; i++ {
		out = boldRe.ReplaceAllString(out, "**$1**")
		out = strongRe.ReplaceAllString(out, "**$1**")
		out = italicRe.ReplaceAllString(out, "*$1*")
		out = emRe.ReplaceAllString(out, "*$1*")
		// Underline has no plain-text equivalent; keep the text.
		out = underlineRe.ReplaceAllString(out, "$1")
	}

	out = anyTagRe.ReplaceAllString(out, "")
	out = html.UnescapeString(out)

	// Cloze hints are review-time decoration; the stored body keeps only
	// the answer segment.
	out = hintRe.ReplaceAllString(out, "{{c$1::$2}}")

	out = newlinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), refs
}
