package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// ProgressRepo implements domain.FeedbackProgressStore.
type ProgressRepo struct {
	s *Store
}

var _ domain.FeedbackProgressStore = (*ProgressRepo)(nil)

func (r *ProgressRepo) Level(ctx context.Context, studentID, questionID string) (domain.FeedbackLevel, error) {
	b := r.s.builder()
	sel := b.Select("level").
		From(b.Table("feedback_progress")).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("question_id", questionID))).
		Limit(1)

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return domain.LevelNone, fmt.Errorf("find feedback progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return domain.LevelNone, rows.Err()
	}
	var level string
	if err := rows.Scan(&level); err != nil {
		return domain.LevelNone, fmt.Errorf("scan feedback progress: %w", err)
	}
	return domain.FeedbackLevel(level), nil
}

// Save records level unless a higher level is already stored.
func (r *ProgressRepo) Save(ctx context.Context, studentID, questionID string, level domain.FeedbackLevel) error {
	ins := r.s.builder().Insert("feedback_progress").
		Columns("student_id", "question_id", "level", "level_rank", "updated_at").
		Values(studentID, questionID, string(level), max(level.Index(), 0), millis(time.Now())).
		OnConflict(
			entsql.ConflictColumns("student_id", "question_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("level")
				u.SetExcluded("level_rank")
				u.SetExcluded("updated_at")
			}),
			entsql.UpdateWhere(entsql.ExprP("feedback_progress.level_rank <= excluded.level_rank")),
		)

	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("save feedback progress: %w", err)
	}
	return nil
}
