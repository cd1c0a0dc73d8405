package render

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"cv-builder/internal/model"

	"golang.org/x/net/publicsuffix"
)

// DefaultSkillCategory names the bucket for skills without a category.
const DefaultSkillCategory = "General"

// Item is the template-facing form of a section item. Every field is flattened
// to display text so that absent fields render as empty strings.
type Item struct {
	ID     string
	Fields map[string]string

	HasDescription bool
	HasLocation    bool
	HasGPA         bool
	HasLink        bool
	// LinkLabel is the registrable domain of the item's link, e.g. github.com.
	LinkLabel string
}

type SkillGroup struct {
	Category string
	Skills   []Item
}

// View is the data every template executes against. It is derived from a
// document copy and never shares state with it.
type View struct {
	PersonalInfo model.PersonalInfo
	Template     string
	Styles       template.CSS

	Experience     []Item
	Education      []Item
	Skills         []Item
	Projects       []Item
	Languages      []Item
	Certifications []Item

	SkillsByCategory []SkillGroup

	HasExperience     bool
	HasEducation      bool
	HasSkills         bool
	HasProjects       bool
	HasLanguages      bool
	HasCertifications bool
}

// BuildView computes the derived presence flags and skill grouping for doc.
func BuildView(doc *model.Document) View {
	if doc == nil {
		doc = &model.Document{}
	}
	v := View{
		PersonalInfo:   doc.PersonalInfo,
		Template:       doc.Template,
		Experience:     viewItems(doc.Experience, "link"),
		Education:      viewItems(doc.Education, "link"),
		Skills:         viewItems(doc.Skills, "link"),
		Projects:       viewItems(doc.Projects, "link"),
		Languages:      viewItems(doc.Languages, "link"),
		Certifications: viewItems(doc.Certifications, "url"),
	}
	v.SkillsByCategory = GroupSkills(v.Skills)

	v.HasExperience = len(v.Experience) > 0
	v.HasEducation = len(v.Education) > 0
	v.HasSkills = len(v.Skills) > 0
	v.HasProjects = len(v.Projects) > 0
	v.HasLanguages = len(v.Languages) > 0
	v.HasCertifications = len(v.Certifications) > 0
	return v
}

// GroupSkills buckets skills by category in first-seen order.
func GroupSkills(skills []Item) []SkillGroup {
	var groups []SkillGroup
	index := map[string]int{}
	for _, s := range skills {
		cat := strings.TrimSpace(s.Fields["category"])
		if cat == "" {
			cat = DefaultSkillCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, SkillGroup{Category: cat})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	return groups
}

func viewItems(items []model.Item, linkField string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		fields := make(map[string]string, len(it))
		for k, val := range it {
			fields[k] = fieldText(val)
		}
		vi := Item{
			ID:             it.ID(),
			Fields:         fields,
			HasDescription: fields["description"] != "",
			HasLocation:    fields["location"] != "",
			HasGPA:         fields["gpa"] != "",
			HasLink:        fields[linkField] != "",
		}
		if vi.HasLink {
			vi.LinkLabel = linkLabel(fields[linkField])
		}
		out = append(out, vi)
	}
	return out
}

func fieldText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := fieldText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// linkLabel shortens a URL to its registrable domain, falling back to the
// bare host when the suffix list has no answer.
func linkLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}
