package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

var responseColumns = []string{
	"id", "student_id", "activity_id", "question_id", "answer", "is_correct",
	"score", "grading_feedback", "feedback_level", "ai_feedback",
	"ai_conversation_ref", "attempt_number", "submitted_at",
}

// ResponseRepo implements domain.ResponseStore.
type ResponseRepo struct {
	s *Store
}

var _ domain.ResponseStore = (*ResponseRepo)(nil)

func (r *ResponseRepo) FindByStudentAndQuestion(ctx context.Context, studentID, questionID string) (*domain.Response, error) {
	b := r.s.builder()
	sel := b.Select(responseColumns...).
		From(b.Table("responses")).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("question_id", questionID))).
		OrderBy(entsql.Desc("attempt_number")).
		Limit(1)

	rs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find response: %w", err)
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (r *ResponseRepo) FindByStudentAndActivity(ctx context.Context, studentID, activityID string) ([]domain.Response, error) {
	b := r.s.builder()
	sel := b.Select(responseColumns...).
		From(b.Table("responses")).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("activity_id", activityID))).
		OrderBy("submitted_at", "id")

	rs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find responses by activity: %w", err)
	}
	return rs, nil
}

// Create inserts resp unless a row with the same student, question and
// attempt exists. The conflict is resolved by the database, so the first
// writer wins across processes.
func (r *ResponseRepo) Create(ctx context.Context, resp *domain.Response) (*domain.Response, bool, error) {
	row := *resp
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.AttemptNumber == 0 {
		row.AttemptNumber = 1
	}
	if row.FeedbackLevel == "" {
		row.FeedbackLevel = domain.LevelNone
	}
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = time.Now().UTC()
	}

	ins := r.s.builder().Insert("responses").
		Columns(append(responseColumns, "feedback_rank")...).
		Values(row.ID, row.StudentID, row.ActivityID, row.QuestionID, row.Answer,
			optional(row.IsCorrect), optional(row.Score), row.GradingFeedback,
			string(row.FeedbackLevel), row.AIFeedback, row.AIConversationRef,
			row.AttemptNumber, millis(row.SubmittedAt), max(row.FeedbackLevel.Index(), 0)).
		OnConflict(
			entsql.ConflictColumns("student_id", "question_id", "attempt_number"),
			entsql.DoNothing(),
		)

	res, err := exec(ctx, r.s.db, ins)
	if err != nil {
		return nil, false, fmt.Errorf("create response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("create response: %w", err)
	}

	stored, err := r.findAttempt(ctx, row.StudentID, row.QuestionID, row.AttemptNumber)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("create response: row for question %s vanished", row.QuestionID)
	}
	return stored, n > 0, nil
}

// Update applies patch. A FeedbackLevel ranked below the stored level
// leaves the row untouched, so a slow writer cannot lower the level a
// faster one already recorded. The returned row is what is stored.
func (r *ResponseRepo) Update(ctx context.Context, id string, patch domain.ResponsePatch) (*domain.Response, error) {
	where := entsql.EQ("id", id)
	upd := r.s.builder().Update("responses")
	changed := false
	if patch.FeedbackLevel != nil {
		rank := max(patch.FeedbackLevel.Index(), 0)
		upd.Set("feedback_level", string(*patch.FeedbackLevel))
		upd.Set("feedback_rank", rank)
		where = entsql.And(where, entsql.LTE("feedback_rank", rank))
		changed = true
	}
	if patch.AIFeedback != nil {
		upd.Set("ai_feedback", *patch.AIFeedback)
		changed = true
	}
	if patch.AIConversationRef != nil {
		upd.Set("ai_conversation_ref", *patch.AIConversationRef)
		changed = true
	}

	if changed {
		if _, err := exec(ctx, r.s.db, upd.Where(where)); err != nil {
			return nil, fmt.Errorf("update response: %w", err)
		}
	}

	b := r.s.builder()
	sel := b.Select(responseColumns...).
		From(b.Table("responses")).
		Where(entsql.EQ("id", id)).
		Limit(1)
	rs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("reload response: %w", err)
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (r *ResponseRepo) findAttempt(ctx context.Context, studentID, questionID string, attempt int) (*domain.Response, error) {
	b := r.s.builder()
	sel := b.Select(responseColumns...).
		From(b.Table("responses")).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("question_id", questionID),
			entsql.EQ("attempt_number", attempt),
		)).
		Limit(1)

	rs, err := r.list(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find response attempt: %w", err)
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (r *ResponseRepo) list(ctx context.Context, sel *entsql.Selector) ([]domain.Response, error) {
	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		var (
			resp        domain.Response
			isCorrect   sql.NullBool
			score       sql.NullFloat64
			level       string
			submittedAt int64
		)
		err := rows.Scan(&resp.ID, &resp.StudentID, &resp.ActivityID, &resp.QuestionID, &resp.Answer,
			&isCorrect, &score, &resp.GradingFeedback, &level, &resp.AIFeedback,
			&resp.AIConversationRef, &resp.AttemptNumber, &submittedAt)
		if err != nil {
			return nil, err
		}
		resp.IsCorrect = boolPtr(isCorrect)
		resp.Score = floatPtr(score)
		resp.FeedbackLevel = domain.FeedbackLevel(level)
		resp.SubmittedAt = fromMillis(submittedAt)
		out = append(out, resp)
	}
	return out, rows.Err()
}
