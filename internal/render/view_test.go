package render

import (
	"testing"

	"cv-builder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSkills_FirstSeenOrder(t *testing.T) {
	doc := &model.Document{Skills: []model.Item{
		{"name": "A"},
		{"name": "B", "category": "Lang"},
		{"name": "C", "category": "  "},
		{"name": "D", "category": "Lang"},
	}}

	groups := BuildView(doc).SkillsByCategory

	require.Len(t, groups, 2)
	assert.Equal(t, "General", groups[0].Category)
	assert.Equal(t, "A", groups[0].Skills[0].Fields["name"])
	assert.Equal(t, "C", groups[0].Skills[1].Fields["name"])
	assert.Equal(t, "Lang", groups[1].Category)
	assert.Len(t, groups[1].Skills, 2)
}

func TestBuildView_Flags(t *testing.T) {
	doc := &model.Document{
		Experience: []model.Item{
			{"id": "1", "title": "Dev", "location": "Berlin"},
			{"id": "2", "title": "Lead", "description": "Led things"},
		},
		Education: []model.Item{{"degree": "BSc", "gpa": 3.8}},
		Projects: []model.Item{
			{"name": "site", "link": "https://www.github.com/jane/site", "technologies": []interface{}{"Go", "SQL"}},
		},
		Certifications: []model.Item{{"name": "CKA", "url": "https://training.linuxfoundation.org/cka"}},
	}

	v := BuildView(doc)

	assert.True(t, v.HasExperience)
	assert.True(t, v.HasEducation)
	assert.True(t, v.HasProjects)
	assert.True(t, v.HasCertifications)
	assert.False(t, v.HasSkills)
	assert.False(t, v.HasLanguages)

	assert.True(t, v.Experience[0].HasLocation)
	assert.False(t, v.Experience[0].HasDescription)
	assert.True(t, v.Experience[1].HasDescription)
	assert.Equal(t, "2", v.Experience[1].ID)

	assert.True(t, v.Education[0].HasGPA)
	assert.Equal(t, "3.8", v.Education[0].Fields["gpa"])

	assert.True(t, v.Projects[0].HasLink)
	assert.Equal(t, "github.com", v.Projects[0].LinkLabel)
	assert.Equal(t, "Go, SQL", v.Projects[0].Fields["technologies"])

	assert.True(t, v.Certifications[0].HasLink)
	assert.Equal(t, "linuxfoundation.org", v.Certifications[0].LinkLabel)
}

func TestBuildView_DoesNotTouchDocument(t *testing.T) {
	doc := &model.Document{Skills: []model.Item{{"name": "Go"}}}
	before := doc.Clone()

	_ = BuildView(doc)

	assert.Equal(t, before, doc)
}

func TestBuildView_NilDocument(t *testing.T) {
	v := BuildView(nil)

	assert.False(t, v.HasExperience)
	assert.Empty(t, v.SkillsByCategory)
}

func TestLinkLabel(t *testing.T) {
	assert.Equal(t, "example.co.uk", linkLabel("https://portfolio.example.co.uk/x"))
	assert.Equal(t, "localhost", linkLabel("http://localhost:8080"))
	assert.Equal(t, "not a url", linkLabel("not a url"))
}
