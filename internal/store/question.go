package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

var questionColumns = []string{
	"id", "activity_id", "type", "content", "options_json", "correct_answer",
	"rubric", "difficulty", "sort_order", "syllabus_id",
}

// QuestionRepo implements domain.QuestionStore.
type QuestionRepo struct {
	s *Store
}

var _ domain.QuestionStore = (*QuestionRepo)(nil)

func (r *QuestionRepo) FindByID(ctx context.Context, id string) (*domain.Question, error) {
	b := r.s.builder()
	sel := b.Select(questionColumns...).
		From(b.Table("questions")).
		Where(entsql.EQ("id", id)).
		Limit(1)

	qs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	if len(qs) == 0 {
		return nil, nil
	}
	q := qs[0]
	if q.SyllabusID != "" {
		syl, err := findSyllabus(ctx, r.s, q.SyllabusID)
		if err != nil {
			return nil, fmt.Errorf("find question syllabus: %w", err)
		}
		q.Syllabus = syl
	}
	return &q, nil
}

func (r *QuestionRepo) FindByActivityID(ctx context.Context, activityID string) ([]domain.Question, error) {
	b := r.s.builder()
	sel := b.Select(questionColumns...).
		From(b.Table("questions")).
		Where(entsql.EQ("activity_id", activityID)).
		OrderBy("sort_order", "id")

	qs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find questions by activity: %w", err)
	}
	return qs, nil
}

func (r *QuestionRepo) list(ctx context.Context, sel *entsql.Selector) ([]domain.Question, error) {
	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			typ     string
			options string
		)
		err := rows.Scan(&q.ID, &q.ActivityID, &typ, &q.Content, &options, &q.CorrectAnswer,
			&q.Rubric, &q.Difficulty, &q.SortOrder, &q.SyllabusID)
		if err != nil {
			return nil, err
		}
		q.Type = domain.QuestionType(typ)
		if options != "" {
			if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
				return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
