package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

var activityColumns = []string{
	"id", "student_id", "type", "title", "status", "question_count",
	"estimated_minutes", "due_at", "started_at", "completed_at", "score",
	"syllabus_id", "created_at", "updated_at",
}

// ActivityRepo implements domain.ActivityStore.
type ActivityRepo struct {
	s *Store
}

var _ domain.ActivityStore = (*ActivityRepo)(nil)

func (r *ActivityRepo) FindByIDForStudent(ctx context.Context, id, studentID string) (*domain.Activity, error) {
	b := r.s.builder()
	sel := b.Select(activityColumns...).
		From(b.Table("activities")).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("student_id", studentID)))

	a, err := r.queryOne(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	if a == nil {
		return nil, nil
	}
	if a.SyllabusID != "" {
		syl, err := findSyllabus(ctx, r.s, a.SyllabusID)
		if err != nil {
			return nil, fmt.Errorf("find activity syllabus: %w", err)
		}
		a.Syllabus = syl
	}
	return a, nil
}

// ListForStudent returns the student's activities with their syllabus,
// most recent first.
func (r *ActivityRepo) ListForStudent(ctx context.Context, studentID string) ([]domain.Activity, error) {
	b := r.s.builder()
	sel := b.Select(activityColumns...).
		From(b.Table("activities")).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("created_at"), "id")

	out, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	// Syllabus rows are read after the activity rows are closed; SQLite
	// runs on a single connection.
	syllabus := make(map[string]*domain.Syllabus)
	for i := range out {
		id := out[i].SyllabusID
		if id == "" {
			continue
		}
		syl, ok := syllabus[id]
		if !ok {
			if syl, err = findSyllabus(ctx, r.s, id); err != nil {
				return nil, fmt.Errorf("find activity syllabus: %w", err)
			}
			syllabus[id] = syl
		}
		out[i].Syllabus = syl
	}
	return out, nil
}

func (r *ActivityRepo) list(ctx context.Context, sel *entsql.Selector) ([]domain.Activity, error) {
	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *ActivityRepo) Update(ctx context.Context, id, studentID string, patch domain.ActivityPatch) (*domain.Activity, error) {
	upd := r.s.builder().Update("activities").
		Set("updated_at", millis(time.Now())).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("student_id", studentID)))

	if patch.Status != nil {
		upd.Set("status", string(*patch.Status))
	}
	if patch.StartedAt != nil {
		upd.Set("started_at", millis(*patch.StartedAt))
	}
	if patch.CompletedAt != nil {
		upd.Set("completed_at", millis(*patch.CompletedAt))
	}
	if patch.Score != nil {
		upd.Set("score", *patch.Score)
	}

	res, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return r.FindByIDForStudent(ctx, id, studentID)
}

// Complete marks the activity completed with score. It reports false when
// the activity was already completed or is not the student's, in which
// case nothing is written.
func (r *ActivityRepo) Complete(ctx context.Context, id, studentID string, at time.Time, score float64) (bool, error) {
	upd := r.s.builder().Update("activities").
		Set("status", string(domain.StatusCompleted)).
		Set("completed_at", millis(at)).
		Set("score", score).
		Set("updated_at", millis(time.Now())).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("student_id", studentID),
			entsql.NEQ("status", string(domain.StatusCompleted)),
		))

	res, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return false, fmt.Errorf("complete activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete activity: %w", err)
	}
	return n > 0, nil
}

func (r *ActivityRepo) queryOne(ctx context.Context, sel *entsql.Selector) (*domain.Activity, error) {
	rows, err := query(ctx, r.s.db, sel.Limit(1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanActivity(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*domain.Activity, error) {
	var (
		a                        domain.Activity
		typ, status              string
		estimated                sql.NullInt64
		dueAt, startedAt, doneAt sql.NullInt64
		score                    sql.NullFloat64
		createdAt, updatedAt     int64
	)
	err := row.Scan(&a.ID, &a.StudentID, &typ, &a.Title, &status, &a.QuestionCount,
		&estimated, &dueAt, &startedAt, &doneAt, &score,
		&a.SyllabusID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = domain.ActivityType(typ)
	a.Status = domain.ActivityStatus(status)
	a.EstimatedMinutes = intPtr(estimated)
	a.DueAt = timePtr(dueAt)
	a.StartedAt = timePtr(startedAt)
	a.CompletedAt = timePtr(doneAt)
	a.Score = floatPtr(score)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}

func findSyllabus(ctx context.Context, s *Store, id string) (*domain.Syllabus, error) {
	b := s.builder()
	sel := b.Select("id", "class", "board", "subject", "chapter", "topic").
		From(b.Table("syllabus")).
		Where(entsql.EQ("id", id)).
		Limit(1)

	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var syl domain.Syllabus
	if err := rows.Scan(&syl.ID, &syl.Class, &syl.Board, &syl.Subject, &syl.Chapter, &syl.Topic); err != nil {
		return nil, err
	}
	return &syl, nil
}
