package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// StudentRepo implements domain.StudentStore.
type StudentRepo struct {
	s *Store
}

var _ domain.StudentStore = (*StudentRepo)(nil)

func (r *StudentRepo) FindByID(ctx context.Context, id string) (*domain.Student, error) {
	b := r.s.builder()
	sel := b.Select("id", "class", "created_at").
		From(b.Table("students")).
		Where(entsql.EQ("id", id)).
		Limit(1)

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		st        domain.Student
		createdAt int64
	)
	if err := rows.Scan(&st.ID, &st.Class, &createdAt); err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	st.CreatedAt = fromMillis(createdAt)
	return &st, nil
}
