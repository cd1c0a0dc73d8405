package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Go models for the session-scoped CV document. Section items are kept
// loosely typed so clients can attach whatever fields a section needs.

const (
	SectionPersonalInfo   = "personalInfo"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionProjects       = "projects"
	SectionLanguages      = "languages"
	SectionCertifications = "certifications"
)

// ArraySections lists the sections that hold ordered item sequences.
var ArraySections = []string{
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionLanguages,
	SectionCertifications,
}

const (
	TemplateModern   = "modern"
	TemplateClassic  = "classic"
	TemplateCreative = "creative"
	TemplateMinimal  = "minimal"

	DefaultTemplate = TemplateModern
)

// Templates are the visual styles a document can select.
var Templates = []string{TemplateModern, TemplateClassic, TemplateCreative, TemplateMinimal}

// TimeLayout renders timestamps the way browsers print Date.toISOString.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" validate:"omitempty,cv_email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website" validate:"omitempty,url"`
	Linkedin string `json:"linkedin" validate:"omitempty,url"`
	Summary  string `json:"summary"`
}

// Item is one element of an array section.
type Item map[string]interface{}

type Document struct {
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Experience     []Item       `json:"experience"`
	Education      []Item       `json:"education"`
	Skills         []Item       `json:"skills"`
	Projects       []Item       `json:"projects"`
	Languages      []Item       `json:"languages"`
	Certifications []Item       `json:"certifications"`
	Template       string       `json:"template"`
	CreatedAt      string       `json:"createdAt"`
	LastUpdated    string       `json:"lastUpdated"`
}

// FormatTime formats t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout as well as plain RFC 3339 timestamps.
func ParseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// IsSection reports whether name is one of the named top-level sections.
func IsSection(name string) bool {
	return name == SectionPersonalInfo || IsArraySection(name)
}

func IsArraySection(name string) bool {
	for _, s := range ArraySections {
		if s == name {
			return true
		}
	}
	return false
}

func IsTemplate(name string) bool {
	for _, t := range Templates {
		if t == name {
			return true
		}
	}
	return false
}

// Section returns a pointer to the named array section, or nil when name is
// not an array section.
func (d *Document) Section(name string) *[]Item {
	switch name {
	case SectionExperience:
		return &d.Experience
	case SectionEducation:
		return &d.Education
	case SectionSkills:
		return &d.Skills
	case SectionProjects:
		return &d.Projects
	case SectionLanguages:
		return &d.Languages
	case SectionCertifications:
		return &d.Certifications
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	for _, name := range ArraySections {
		src := *d.Section(name)
		if src == nil {
			continue
		}
		dst := make([]Item, len(src))
		for i, it := range src {
			dst[i] = it.Clone()
		}
		*out.Section(name) = dst
	}
	return &out
}

// ID returns the item's id as a string. Numeric ids sent by clients are
// formatted without a fractional part.
func (it Item) ID() string {
	switch v := it["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// String returns a field as display text; absent and null fields are "".
func (it Item) String(key string) string {
	switch v := it[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Item:
		return t.Clone()
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	}
	return v
}

// EmptyDocument returns the canonical blank CV shown to a session that has
// not saved anything yet.
func EmptyDocument(now time.Time) *Document {
	ts := FormatTime(now)
	return &Document{
		Experience: []Item{{
			"id":          "1",
			"title":       "",
			"company":     "",
			"duration":    "",
			"description": "",
		}},
		Education: []Item{{
			"id":     "1",
			"degree": "",
			"school": "",
			"year":   "",
		}},
		Skills: []Item{},
		Projects: []Item{{
			"id":           "1",
			"name":         "",
			"description":  "",
			"technologies": "",
			"link":         "",
		}},
		Languages:      []Item{},
		Certifications: []Item{},
		Template:       DefaultTemplate,
		CreatedAt:      ts,
		LastUpdated:    ts,
	}
}

// DecodeDocument parses a JSON document body.
func DecodeDocument(raw []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("invalid CV document: %w", err)
	}
	return &d, nil
}
