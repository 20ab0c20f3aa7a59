package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// Catalog is a batch of reference data to import. Rows whose id already
// exists are skipped, so importing the same catalog twice is harmless.
type Catalog struct {
	Students   []domain.Student
	Syllabus   []domain.Syllabus
	Activities []domain.Activity
	Questions  []domain.Question
}

// ImportStats counts the rows actually inserted per table.
type ImportStats struct {
	Students   int
	Syllabus   int
	Activities int
	Questions  int
}

// ImportCatalog writes c in one transaction.
func (s *Store) ImportCatalog(ctx context.Context, c Catalog) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	b := s.builder()
	now := time.Now().UTC()
	skip := func(ins *entsql.InsertBuilder) *entsql.InsertBuilder {
		return ins.OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	}
	insert := func(ins *entsql.InsertBuilder, counter *int, what, id string) error {
		res, err := exec(ctx, tx, skip(ins))
		if err != nil {
			return fmt.Errorf("import %s %s: %w", what, id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			*counter++
		}
		return nil
	}

	for _, st := range c.Students {
		created := st.CreatedAt
		if created.IsZero() {
			created = now
		}
		ins := b.Insert("students").
			Columns("id", "class", "created_at").
			Values(st.ID, st.Class, millis(created))
		if err := insert(ins, &stats.Students, "student", st.ID); err != nil {
			return stats, err
		}
	}

	for _, syl := range c.Syllabus {
		ins := b.Insert("syllabus").
			Columns("id", "class", "board", "subject", "chapter", "topic").
			Values(syl.ID, syl.Class, syl.Board, syl.Subject, syl.Chapter, syl.Topic)
		if err := insert(ins, &stats.Syllabus, "syllabus", syl.ID); err != nil {
			return stats, err
		}
	}

	for _, a := range c.Activities {
		status := a.Status
		if status == "" {
			status = domain.StatusPending
		}
		ins := b.Insert("activities").
			Columns(activityColumns...).
			Values(a.ID, a.StudentID, string(a.Type), a.Title, string(status), a.QuestionCount,
				optional(a.EstimatedMinutes), nullTime(a.DueAt), nullTime(a.StartedAt),
				nullTime(a.CompletedAt), optional(a.Score), a.SyllabusID,
				millis(now), millis(now))
		if err := insert(ins, &stats.Activities, "activity", a.ID); err != nil {
			return stats, err
		}
	}

	for _, q := range c.Questions {
		var options string
		if len(q.Options) > 0 {
			raw, err := json.Marshal(q.Options)
			if err != nil {
				return stats, fmt.Errorf("encode options of question %s: %w", q.ID, err)
			}
			options = string(raw)
		}
		difficulty := q.Difficulty
		if difficulty == 0 {
			difficulty = 3
		}
		ins := b.Insert("questions").
			Columns(questionColumns...).
			Values(q.ID, q.ActivityID, string(q.Type), q.Content, options, q.CorrectAnswer,
				q.Rubric, difficulty, q.SortOrder, q.SyllabusID)
		if err := insert(ins, &stats.Questions, "question", q.ID); err != nil {
			return stats, err
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}
