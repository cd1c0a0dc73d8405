package model

import (
	_ "embed"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed cv.schema.json
var schemaJSON []byte

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("cv_email", func(fl validator.FieldLevel) bool {
		return emailRegex.MatchString(fl.Field().String())
	})
	return v
}

// ValidateJSON checks a raw candidate document: first its shape against the
// embedded JSON schema, then field formats. An empty result means valid.
func ValidateJSON(raw []byte) []string {
	schema, err := loadSchema()
	if err != nil {
		return []string{fmt.Sprintf("schema unavailable: %v", err)}
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{"CV must be a JSON object"}
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return msgs
	}

	d, err := DecodeDocument(raw)
	if err != nil {
		return []string{err.Error()}
	}
	return Validate(d)
}

// Validate checks the well-formedness of a decoded document: email and URL
// fields must parse when they are non-empty. A blank CV is valid.
func Validate(d *Document) []string {
	var errs []string
	if err := validate.Struct(d.PersonalInfo); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				errs = append(errs, fieldMessage(fe.Field(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	check := func(section, field, label string) {
		for i, it := range *d.Section(section) {
			s := strings.TrimSpace(it.String(field))
			if s == "" {
				continue
			}
			if validate.Var(s, "url") != nil {
				errs = append(errs, fmt.Sprintf("%s[%d].%s: Please provide a valid %s URL", section, i, field, label))
			}
		}
	}
	check(SectionProjects, "link", "project")
	check(SectionCertifications, "url", "certification")
	return errs
}

func fieldMessage(field, tag string) string {
	switch tag {
	case "cv_email":
		return "email: Please provide a valid email address"
	case "url":
		label := field
		if field == "linkedin" {
			label = "LinkedIn"
		}
		return fmt.Sprintf("%s: Please provide a valid %s URL", field, label)
	}
	return fmt.Sprintf("%s: failed %s validation", field, tag)
}
