// Package seed loads a question catalog from YAML or JSON and writes it
// to the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

//go:embed catalog.schema.json
var schemaJSON []byte

const schemaURL = "schema://mindforge/catalog.json"

var catalogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse catalog schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add catalog schema: %w", err)
	}
	return c.Compile(schemaURL)
})

type file struct {
	Students   []studentEntry  `yaml:"students"`
	Syllabus   []syllabusEntry `yaml:"syllabus"`
	Activities []activityEntry `yaml:"activities"`
}

type studentEntry struct {
	ID    string `yaml:"id"`
	Class string `yaml:"class"`
}

type syllabusEntry struct {
	ID      string `yaml:"id"`
	Class   string `yaml:"class"`
	Board   string `yaml:"board"`
	Subject string `yaml:"subject"`
	Chapter string `yaml:"chapter"`
	Topic   string `yaml:"topic"`
}

type activityEntry struct {
	ID               string          `yaml:"id"`
	Student          string          `yaml:"student"`
	Type             string          `yaml:"type"`
	Title            string          `yaml:"title"`
	Status           string          `yaml:"status"`
	EstimatedMinutes *int            `yaml:"estimated_minutes"`
	Due              string          `yaml:"due"`
	Syllabus         string          `yaml:"syllabus"`
	Questions        []questionEntry `yaml:"questions"`
}

type questionEntry struct {
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"`
	Content    string   `yaml:"content"`
	Options    []string `yaml:"options"`
	Answer     string   `yaml:"answer"`
	Rubric     string   `yaml:"rubric"`
	Difficulty int      `yaml:"difficulty"`
	Syllabus   string   `yaml:"syllabus"`
}

// Load parses and validates a catalog. JSON input is accepted since it
// is valid YAML.
func Load(r io.Reader) (store.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return store.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	if err := validate(data); err != nil {
		return store.Catalog{}, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return store.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return f.catalog()
}

// validate checks data against the embedded schema. YAML is converted
// through JSON so the validator sees plain JSON values.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	sch, err := catalogSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}

func (f file) catalog() (store.Catalog, error) {
	var c store.Catalog
	seen := map[string]bool{}
	dup := func(kind, id string) error {
		key := kind + "/" + id
		if seen[key] {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[key] = true
		return nil
	}

	for _, s := range f.Students {
		if err := dup("student", s.ID); err != nil {
			return c, err
		}
		c.Students = append(c.Students, domain.Student{ID: s.ID, Class: s.Class})
	}
	for _, s := range f.Syllabus {
		if err := dup("syllabus", s.ID); err != nil {
			return c, err
		}
		c.Syllabus = append(c.Syllabus, domain.Syllabus{
			ID: s.ID, Class: s.Class, Board: s.Board,
			Subject: s.Subject, Chapter: s.Chapter, Topic: s.Topic,
		})
	}
	for _, a := range f.Activities {
		if err := dup("activity", a.ID); err != nil {
			return c, err
		}
		act := domain.Activity{
			ID:               a.ID,
			StudentID:        a.Student,
			Type:             domain.ActivityType(a.Type),
			Title:            a.Title,
			Status:           domain.ActivityStatus(a.Status),
			QuestionCount:    len(a.Questions),
			EstimatedMinutes: a.EstimatedMinutes,
			SyllabusID:       a.Syllabus,
		}
		if a.Due != "" {
			due, err := time.Parse(time.DateOnly, a.Due)
			if err != nil {
				return c, fmt.Errorf("activity %s: due: %w", a.ID, err)
			}
			act.DueAt = &due
		}
		c.Activities = append(c.Activities, act)

		for i, q := range a.Questions {
			if err := dup("question", q.ID); err != nil {
				return c, err
			}
			syl := q.Syllabus
			if syl == "" {
				syl = a.Syllabus
			}
			c.Questions = append(c.Questions, domain.Question{
				ID:            q.ID,
				ActivityID:    a.ID,
				Type:          domain.QuestionType(q.Type),
				Content:       q.Content,
				Options:       q.Options,
				CorrectAnswer: q.Answer,
				Rubric:        q.Rubric,
				Difficulty:    q.Difficulty,
				SortOrder:     i + 1,
				SyllabusID:    syl,
			})
		}
	}
	return c, nil
}

// Importer writes a catalog. *store.Store implements it.
type Importer interface {
	ImportCatalog(ctx context.Context, c store.Catalog) (store.ImportStats, error)
}

// Apply writes c. Rows that already exist are left untouched.
func Apply(ctx context.Context, imp Importer, c store.Catalog) (store.ImportStats, error) {
	stats, err := imp.ImportCatalog(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("apply catalog: %w", err)
	}
	return stats, nil
}
