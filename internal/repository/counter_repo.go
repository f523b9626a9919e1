package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CounterRepository hands out monotonically increasing sequence numbers
// for business ids. Next is a single atomic upsert, so two concurrent
// creators can never draw the same number.
type CounterRepository interface {
	Next(ctx context.Context, prefix string) (int64, error)
	NextBusinessID(ctx context.Context, prefix string) (string, error)
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, prefix string) (int64, error) {
	var seq int64
	err := GetDB(ctx, r.db).Raw(
		`INSERT INTO counters (name, seq) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		 RETURNING seq`, prefix,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// NextBusinessID formats the next sequence as PREFIX-NNN (zero-padded to
// three digits, growing naturally past 999).
func (r *counterRepository) NextBusinessID(ctx context.Context, prefix string) (string, error) {
	seq, err := r.Next(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", prefix, seq), nil
}
