package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

// defines methods for project db operations
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.ProjectStats, error)
}

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `INSERT INTO projects (id, name, description, start_date, end_date, owner_id, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(
		ctx, query, project.ID, project.Name, project.Description,
		project.StartDate, project.EndDate, project.OwnerID,
		project.CreatedAt, project.UpdatedAt)
	return err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT id, name, description, start_date, end_date, owner_id, created_at, updated_at
	 FROM projects WHERE id = $1`

	project := &models.Project{}
	var startDate, endDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &project.Description, &startDate, &endDate,
		&project.OwnerID, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		project.StartDate = &startDate.Time
	}
	if endDate.Valid {
		project.EndDate = &endDate.Time
	}
	return project, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*models.Project, error) {
	query := `SELECT id, name, description, start_date, end_date, owner_id, created_at, updated_at
	 FROM projects WHERE owner_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		var startDate, endDate sql.NullTime
		if err := rows.Scan(
			&project.ID, &project.Name, &project.Description, &startDate, &endDate,
			&project.OwnerID, &project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if startDate.Valid {
			project.StartDate = &startDate.Time
		}
		if endDate.Valid {
			project.EndDate = &endDate.Time
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `UPDATE projects SET name = $1, description = $2, start_date = $3, end_date = $4,
	 updated_at = $5 WHERE id = $6`
	_, err := r.db.ExecContext(
		ctx, query, project.Name, project.Description, project.StartDate,
		project.EndDate, project.UpdatedAt, project.ID)
	return err
}

// Delete removes the project together with all of its tasks.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Stats computes the project rollup. A project with zero tasks counts toward
// neither active nor completed.
func (r *ProjectRepository) Stats(ctx context.Context) (*models.ProjectStats, error) {
	stats := &models.ProjectStats{}

	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM projects`, &stats.TotalProjects},
		{`SELECT COUNT(*) FROM projects p
		 WHERE EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id AND t.status != 'done')`,
			&stats.ActiveProjects},
		{`SELECT COUNT(*) FROM projects p
		 WHERE EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id)
		 AND NOT EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id AND t.status != 'done')`,
			&stats.CompletedProjects},
		{`SELECT COUNT(*) FROM projects p
		 WHERE EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id)`,
			&stats.ProjectsWithTasks},
	}
	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}
