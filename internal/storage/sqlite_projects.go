package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/good-yellow-bee/subhub/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

const projectColumns = `id, name, english_name, japanese_name, summary, process,
	episodes_number, genre, added_by, cover_image_name, created_at, updated_at`

// scanProject scans a project row from any row-like source.
func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	project := &models.Project{}
	var english, japanese, summary, process, cover sql.NullString
	err := row.Scan(
		&project.ID, &project.Name, &english, &japanese, &summary, &process,
		&project.EpisodesNumber, &project.Genre, &project.AddedBy, &cover,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	project.EnglishName = english.String
	project.JapaneseName = japanese.String
	project.Summary = summary.String
	project.Process = process.String
	if cover.Valid {
		project.CoverImageName = &cover.String
	}
	return project, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var cover any
	if project.CoverImageName != nil {
		cover = *project.CoverImageName
	}
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.EnglishName, project.JapaneseName,
		project.Summary, project.Process, project.EpisodesNumber, project.Genre,
		project.AddedBy, cover, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) GetByName(ctx context.Context, name string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE name = ?`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// UpdateByName applies a full field replacement to the project with the
// given name and returns the post-update record. A nil CoverImageName
// leaves the stored cover untouched. Returns (nil, nil) when no project
// matched.
func (r *sqliteProjectRepo) UpdateByName(ctx context.Context, name string, upd *models.ProjectUpdate) (*models.Project, error) {
	query := `
		UPDATE projects
		SET name = ?, english_name = ?, japanese_name = ?, summary = ?,
			process = ?, episodes_number = ?, genre = ?,
			cover_image_name = COALESCE(?, cover_image_name), updated_at = ?
		WHERE name = ?
		RETURNING ` + projectColumns
	var cover any
	if upd.CoverImageName != nil {
		cover = *upd.CoverImageName
	}
	project, err := scanProject(r.db.QueryRowContext(ctx, query,
		upd.Name, upd.EnglishName, upd.JapaneseName, upd.Summary,
		upd.Process, upd.EpisodesNumber, upd.Genre,
		cover, time.Now(), name,
	))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteByName removes the project with the given name and returns the
// removed record, or (nil, nil) when no project matched.
func (r *sqliteProjectRepo) DeleteByName(ctx context.Context, name string) (*models.Project, error) {
	query := `DELETE FROM projects WHERE name = ? RETURNING ` + projectColumns
	project, err := scanProject(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return project, nil
}
