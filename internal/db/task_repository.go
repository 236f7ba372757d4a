package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

// TaskFilter carries the optional filters of a task listing. Nil fields are
// skipped; handlers drop unparseable values before the filter gets here.
// VisibleTo is always set: the listing is restricted to tasks the caller is
// assigned to or whose project the caller owns.
type TaskFilter struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssignedTo *uuid.UUID
	ProjectID  *uuid.UUID
	DueBefore  *time.Time
	DueAfter   *time.Time
	Search     string
	VisibleTo  uuid.UUID
	Skip       int
	Limit      int
}

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	ListOverdue(ctx context.Context, today time.Time) ([]*models.Task, error)
	CompletionStats(ctx context.Context) (*models.CompletionStats, error)
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, due_date, status, priority, assigned_to_id, project_id, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.Title, task.Description, task.DueDate,
		task.Status, task.Priority, task.AssignedToID, task.ProjectID,
		task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = $1, description = $2, due_date = $3, status = $4,
	 priority = $5, assigned_to_id = $6, project_id = $7, updated_at = $8 WHERE id = $9`
	_, err := r.db.ExecContext(
		ctx, query, task.Title, task.Description, task.DueDate, task.Status,
		task.Priority, task.AssignedToID, task.ProjectID, task.UpdatedAt, task.ID)
	return err
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// List composes the active filters with AND and applies the visibility
// predicate. Ordered by (created_at, id) so pagination is deterministic.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, values ...any) {
		placeholders := make([]any, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = len(args)
		}
		clauses = append(clauses, fmt.Sprintf(clause, placeholders...))
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		add("assigned_to_id = $%d", *filter.AssignedTo)
	}
	if filter.ProjectID != nil {
		add("project_id = $%d", *filter.ProjectID)
	}
	if filter.DueBefore != nil {
		add("due_date <= $%d", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		add("due_date >= $%d", *filter.DueAfter)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		add("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", pattern, pattern)
	}
	add("(assigned_to_id = $%d OR project_id IN (SELECT id FROM projects WHERE owner_id = $%d))",
		filter.VisibleTo, filter.VisibleTo)

	args = append(args, filter.Limit, filter.Skip)
	query := fmt.Sprintf(
		`SELECT `+taskColumns+` FROM tasks WHERE %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		strings.Join(clauses, " AND "), len(args)-1, len(args))

	return r.queryTasks(ctx, query, args...)
}

// ListOverdue returns every task due strictly before today and not yet done,
// across all users.
func (r *TaskRepository) ListOverdue(ctx context.Context, today time.Time) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	 WHERE due_date IS NOT NULL AND due_date < $1 AND status != $2
	 ORDER BY created_at, id`
	return r.queryTasks(ctx, query, today, models.TaskStatusDone)
}

func (r *TaskRepository) CompletionStats(ctx context.Context) (*models.CompletionStats, error) {
	query := `SELECT COUNT(*),
	 COUNT(CASE WHEN status = 'pending' THEN 1 END),
	 COUNT(CASE WHEN status = 'in_progress' THEN 1 END),
	 COUNT(CASE WHEN status = 'done' THEN 1 END)
	 FROM tasks`

	stats := &models.CompletionStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Pending, &stats.InProgress, &stats.Done)
	if err != nil {
		return nil, err
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Done) / float64(stats.Total) * 100
	}
	return stats, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		dueDate    sql.NullTime
		assignedTo uuid.NullUUID
		projectID  uuid.NullUUID
	)
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &dueDate, &task.Status,
		&task.Priority, &assignedTo, &projectID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if assignedTo.Valid {
		id := assignedTo.UUID
		task.AssignedToID = &id
	}
	if projectID.Valid {
		id := projectID.UUID
		task.ProjectID = &id
	}
	return task, nil
}
