package storage

import (
	"context"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/db"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
)

type FieldRepository struct {
	pool *db.Pool
}

func NewFieldRepository(pool *db.Pool) *FieldRepository {
	return &FieldRepository{pool: pool}
}

func (r *FieldRepository) GetByID(ctx context.Context, id string) (model.Field, error) {
	var f model.Field
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(surface, ''), hourly_rate, active, created_at
		FROM fields
		WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Surface, &f.HourlyRate, &f.Active, &f.CreatedAt)
	if err != nil {
		return model.Field{}, err
	}
	return f, nil
}

func (r *FieldRepository) ListActive(ctx context.Context) ([]model.Field, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(surface, ''), hourly_rate, active, created_at
		FROM fields
		WHERE active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		var f model.Field
		if err := rows.Scan(&f.ID, &f.Name, &f.Surface, &f.HourlyRate, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return fields, nil
}
