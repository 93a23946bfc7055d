package anki

import (
	"encoding/binary"
	"strings"
)

// Kind classifies a note-type for conversion purposes.
type Kind int

const (
	KindStandard Kind = iota
	KindBasic
	KindCloze
	KindImageOcclusion
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindCloze:
		return "cloze"
	case KindImageOcclusion:
		return "image-occlusion"
	default:
		return "standard"
	}
}

// DetectKind classifies a note-type by its name, falling back to template
// names. Precedence is fixed: image-occlusion patterns outrank cloze
// patterns, which outrank basic/default patterns. "Image Occlusion Cloze"
// is image-occlusion; "Basic Cloze" is cloze.
func DetectKind(modelName string, templates []Template) Kind {
	name := strings.ToLower(modelName)
	switch {
	case strings.Contains(name, "image occlusion"):
		return KindImageOcclusion
	case strings.Contains(name, "cloze"):
		return KindCloze
	case strings.Contains(name, "basic"), strings.Contains(name, "default"):
		return KindBasic
	}
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Name), "cloze") {
			return KindCloze
		}
	}
	return KindStandard
}

// IsImageOcclusionFields reports whether a field-name set is shaped like an
// image-occlusion note-type: an "occlusion" field and an "image" field
// present together. This structural signal is independent of the name-based
// kind.
func IsImageOcclusionFields(fieldNames []string) bool {
	var hasOcclusion, hasImage bool
	for _, f := range fieldNames {
		lower := strings.ToLower(f)
		if strings.Contains(lower, "occlusion") {
			hasOcclusion = true
		}
		if strings.Contains(lower, "image") {
			hasImage = true
		}
	}
	return hasOcclusion && hasImage
}

// Template config blobs are a minimal tag-length-value encoding: two
// length-delimited string fields, question at tag 1 and answer at tag 2,
// with varint length prefixes (protobuf wire format, fields qfmt/afmt).

const (
	templateQuestionKey = 0x0a // tag 1, length-delimited
	templateAnswerKey   = 0x12 // tag 2, length-delimited
)

// DecodeTemplateConfig extracts the question and answer template strings
// from a config blob. Zero-length input yields two empty strings; anything
// unparseable yields whatever was decoded before the bad byte.
func DecodeTemplateConfig(blob []byte) (question, answer string) {
	i := 0
	for i < len(blob) {
		key := blob[i]
		i++
		if key != templateQuestionKey && key != templateAnswerKey {
			return question, answer
		}
		length, n := binary.Uvarint(blob[i:])
		if n <= 0 {
			return question, answer
		}
		i += n
		end := i + int(length)
		if end > len(blob) {
			return question, answer
		}
		value := string(blob[i:end])
		i = end
		if key == templateQuestionKey {
			question = value
		} else {
			answer = value
		}
	}
	return question, answer
}

// EncodeTemplateConfig builds a config blob from question and answer
// template strings. Empty strings are omitted, matching the decoder's
// empty-input behavior.
func EncodeTemplateConfig(question, answer string) []byte {
	var out []byte
	out = appendTemplateField(out, templateQuestionKey, question)
	out = appendTemplateField(out, templateAnswerKey, answer)
	return out
}

func appendTemplateField(out []byte, key byte, value string) []byte {
	if value == "" {
		return out
	}
	out = append(out, key)
	out = binary.AppendUvarint(out, uint64(len(value)))
	return append(out, value...)
}
