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

var threadColumns = []string{
	"id", "student_id", "title", "class", "board", "subject", "chapter",
	"topic", "is_resolved", "created_at", "updated_at",
}

// DoubtRepo implements domain.DoubtStore.
type DoubtRepo struct {
	s *Store
}

var _ domain.DoubtStore = (*DoubtRepo)(nil)

func (r *DoubtRepo) CreateThread(ctx context.Context, t *domain.DoubtThread) (*domain.DoubtThread, error) {
	row := *t
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	row.Messages = nil

	ins := r.s.builder().Insert("doubt_threads").
		Columns(threadColumns...).
		Values(row.ID, row.StudentID, row.Title, row.Syllabus.Class, row.Syllabus.Board,
			row.Syllabus.Subject, row.Syllabus.Chapter, row.Syllabus.Topic,
			row.IsResolved, millis(now), millis(now))

	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return nil, fmt.Errorf("create doubt thread: %w", err)
	}
	return &row, nil
}

func (r *DoubtRepo) FindThreadForStudent(ctx context.Context, id, studentID string) (*domain.DoubtThread, error) {
	b := r.s.builder()
	sel := b.Select(threadColumns...).
		From(b.Table("doubt_threads")).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("student_id", studentID))).
		Limit(1)

	threads, err := r.listThreads(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find doubt thread: %w", err)
	}
	if len(threads) == 0 {
		return nil, nil
	}
	t := threads[0]

	msgs, err := r.messages(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Messages = msgs
	return &t, nil
}

func (r *DoubtRepo) ThreadsForStudent(ctx context.Context, studentID string) ([]domain.DoubtThread, error) {
	b := r.s.builder()
	sel := b.Select(threadColumns...).
		From(b.Table("doubt_threads")).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("updated_at"), entsql.Desc("id"))

	threads, err := r.listThreads(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list doubt threads: %w", err)
	}
	return threads, nil
}

// AddMessage appends m to its thread and bumps the thread's updated_at.
func (r *DoubtRepo) AddMessage(ctx context.Context, m *domain.DoubtMessage) (*domain.DoubtMessage, error) {
	row := *m
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = time.Now().UTC()

	seq, err := r.s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}

	ins := r.s.builder().Insert("doubt_messages").
		Columns("id", "thread_id", "role", "content", "ai_model", "seq", "created_at").
		Values(row.ID, row.ThreadID, string(row.Role), row.Content, row.AIModel, seq, millis(row.CreatedAt))
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return nil, fmt.Errorf("add doubt message: %w", err)
	}

	touch := r.s.builder().Update("doubt_threads").
		Set("updated_at", millis(row.CreatedAt)).
		Where(entsql.EQ("id", row.ThreadID))
	if _, err := exec(ctx, r.s.db, touch); err != nil {
		return nil, fmt.Errorf("touch doubt thread: %w", err)
	}
	return &row, nil
}

func (r *DoubtRepo) messages(ctx context.Context, threadID string) ([]domain.DoubtMessage, error) {
	b := r.s.builder()
	sel := b.Select("id", "thread_id", "role", "content", "ai_model", "created_at").
		From(b.Table("doubt_messages")).
		Where(entsql.EQ("thread_id", threadID)).
		OrderBy("seq")

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list doubt messages: %w", err)
	}
	defer rows.Close()

	var out []domain.DoubtMessage
	for rows.Next() {
		var (
			m         domain.DoubtMessage
			role      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &role, &m.Content, &m.AIModel, &createdAt); err != nil {
			return nil, fmt.Errorf("scan doubt message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.CreatedAt = fromMillis(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *DoubtRepo) listThreads(ctx context.Context, sel *entsql.Selector) ([]domain.DoubtThread, error) {
	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DoubtThread
	for rows.Next() {
		var (
			t                    domain.DoubtThread
			resolved             sql.NullBool
			createdAt, updatedAt int64
		)
		err := rows.Scan(&t.ID, &t.StudentID, &t.Title, &t.Syllabus.Class, &t.Syllabus.Board,
			&t.Syllabus.Subject, &t.Syllabus.Chapter, &t.Syllabus.Topic,
			&resolved, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		t.IsResolved = resolved.Bool
		t.CreatedAt = fromMillis(createdAt)
		t.UpdatedAt = fromMillis(updatedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}
