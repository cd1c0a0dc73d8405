package model

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxStringLength caps every string field, counted in runes.
	MaxStringLength = 1000
	// MaxSectionItems caps array sections other than skills.
	MaxSectionItems = 20
	// MaxSkillItems caps the skills section.
	MaxSkillItems = 100
)

// MaxItems returns the item cap for an array section.
func MaxItems(section string) int {
	if section == SectionSkills {
		return MaxSkillItems
	}
	return MaxSectionItems
}

// Sanitize returns a normalized copy of d: strings are trimmed and capped,
// array sections are truncated to their caps, null items are dropped and an
// unknown template falls back to the default style. The input is not
// modified, and Sanitize(Sanitize(d)) equals Sanitize(d).
func Sanitize(d *Document) *Document {
	if d == nil {
		d = &Document{}
	}
	out := d.Clone()

	p := &out.PersonalInfo
	for _, f := range []*string{&p.FullName, &p.Email, &p.Phone, &p.Location, &p.Website, &p.Linkedin, &p.Summary} {
		*f = SanitizeString(*f)
	}

	for _, name := range ArraySections {
		sec := out.Section(name)
		items := make([]Item, 0, len(*sec))
		for _, it := range *sec {
			if it == nil {
				continue
			}
			if len(items) == MaxItems(name) {
				break
			}
			items = append(items, SanitizeItem(it))
		}
		*sec = items
	}

	out.Template = strings.ToLower(strings.TrimSpace(out.Template))
	if !IsTemplate(out.Template) {
		out.Template = DefaultTemplate
	}
	return out
}

// SanitizeItem trims and caps the top-level string fields of an item.
// Nested values are left untouched.
func SanitizeItem(it Item) Item {
	out := it.Clone()
	for k, v := range out {
		if s, ok := v.(string); ok {
			out[k] = SanitizeString(s)
		}
	}
	return out
}

// SanitizeString trims s and cuts it to MaxStringLength runes.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxStringLength {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxStringLength {
			s = s[:i]
			break
		}
		n++
	}
	// the cut can expose trailing whitespace
	return strings.TrimSpace(s)
}
