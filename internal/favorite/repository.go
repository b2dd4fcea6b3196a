package favorite

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) Create(ctx context.Context, ownerID string, input Input) (Favorite, error) {
	var f Favorite
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO favorites (movie_api_id, title, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, movie_api_id, title, owner_id, created_at
	`, input.MovieAPIID, input.Title, ownerID).
		Scan(&f.ID, &f.MovieAPIID, &f.Title, &f.OwnerID, &f.CreatedAt)
	if err != nil {
		return Favorite{}, fmt.Errorf("insert favorite: %w", err)
	}

	return f, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, movie_api_id, title, owner_id, created_at
		FROM favorites
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.MovieAPIID, &f.Title, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}
