package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/good-yellow-bee/subhub/internal/models"
)

type sqliteEpisodeRepo struct {
	db *sql.DB
}

const episodeColumns = `id, project_id, number, title, status, link, created_at, updated_at`

func scanEpisode(row interface{ Scan(...any) error }) (*models.Episode, error) {
	episode := &models.Episode{}
	var title, link sql.NullString
	err := row.Scan(
		&episode.ID, &episode.ProjectID, &episode.Number, &title,
		&episode.Status, &link, &episode.CreatedAt, &episode.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	episode.Title = title.String
	episode.Link = link.String
	return episode, nil
}

func (r *sqliteEpisodeRepo) Create(ctx context.Context, episode *models.Episode) error {
	query := `
		INSERT INTO episodes (` + episodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		episode.ID, episode.ProjectID, episode.Number, episode.Title,
		episode.Status, episode.Link, episode.CreatedAt, episode.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

func (r *sqliteEpisodeRepo) GetByNumber(ctx context.Context, projectID string, number int) (*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE project_id = ? AND number = ?`
	episode, err := scanEpisode(r.db.QueryRowContext(ctx, query, projectID, number))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

func (r *sqliteEpisodeRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE project_id = ? ORDER BY number`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*models.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// UpdateByNumber applies a field replacement to the episode addressed by
// (project, number) and returns the post-update record, or (nil, nil)
// when no episode matched.
func (r *sqliteEpisodeRepo) UpdateByNumber(ctx context.Context, projectID string, number int, upd *models.EpisodeUpdate) (*models.Episode, error) {
	query := `
		UPDATE episodes
		SET title = ?, status = ?, link = ?, updated_at = ?
		WHERE project_id = ? AND number = ?
		RETURNING ` + episodeColumns
	episode, err := scanEpisode(r.db.QueryRowContext(ctx, query,
		upd.Title, upd.Status, upd.Link, time.Now(), projectID, number,
	))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update episode: %w", err)
	}
	return episode, nil
}

// DeleteByNumber removes the episode addressed by (project, number) and
// returns the removed record, or (nil, nil) when no episode matched.
func (r *sqliteEpisodeRepo) DeleteByNumber(ctx context.Context, projectID string, number int) (*models.Episode, error) {
	query := `DELETE FROM episodes WHERE project_id = ? AND number = ? RETURNING ` + episodeColumns
	episode, err := scanEpisode(r.db.QueryRowContext(ctx, query, projectID, number))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete episode: %w", err)
	}
	return episode, nil
}
