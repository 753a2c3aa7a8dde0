package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"timed-quiz-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID     string `bun:"id,pk"`
	Title  string `bun:"title,notnull"`
	Visual string `bun:"visual,notnull"`
}

// SeedCatalog inserts titles, leaving rows that already exist untouched.
// It returns how many rows were inserted.
func SeedCatalog(ctx context.Context, db *bun.DB, titles []domain.Title) (int64, error) {
	if len(titles) == 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(titles))
	for _, t := range titles {
		rows = append(rows, questionRow{ID: t.ID, Title: t.Title, Visual: t.Visual})
	}
	res, err := db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
