package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hour-estimator-backend/internal/db"
)

// Store is the team-scoped task repository.
type Store struct {
	db  *db.DB
	now func() time.Time
}

func NewStore(d *db.DB) *Store {
	return &Store{db: d, now: time.Now}
}

// EnsureTeamExists creates the team row if it is missing.
func (s *Store) EnsureTeamExists(ctx context.Context, teamID string) error {
	if !ValidTeamID(teamID) {
		return ErrInvalidTeamID
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO teams (id, created_at)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING
	`, teamID, db.FormatTime(s.now()))
	if err != nil {
		return fmt.Errorf("ensure team %s: %w", teamID, err)
	}
	return nil
}

// GetTasks returns the team's tasks, newest first.
func (s *Store) GetTasks(ctx context.Context, teamID string) ([]Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, azure_id, title, context, owner, estimated_hours, status, created_at
		FROM tasks
		WHERE team_id = ?
		ORDER BY created_at DESC, id DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("query tasks for %s: %w", teamID, err)
	}
	defer rows.Close()

	result := []Task{}
	for rows.Next() {
		var (
			t         Task
			azureID   sql.NullString
			taskCtx   sql.NullString
			status    string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &azureID, &t.Title, &taskCtx, &t.Owner, &t.EstimatedHours, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		t.AzureID = nullableString(azureID)
		t.Context = nullableString(taskCtx)
		t.Status = Status(status)

		created, err := db.ParseTime(createdAt)
		if err != nil {
			return nil, err
		}
		t.CreatedAt = &created

		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return result, nil
}

// AddTask validates in, stores it under teamID and returns the new task id.
func (s *Store) AddTask(ctx context.Context, teamID string, in TaskInput) (string, error) {
	in, err := in.Normalize()
	if err != nil {
		return "", err
	}

	if err := s.EnsureTeamExists(ctx, teamID); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.Exec(ctx, `
		INSERT INTO tasks (id, team_id, azure_id, title, context, owner, estimated_hours, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, teamID, in.AzureID, in.Title, in.Context, in.Owner, in.EstimatedHours, string(in.Status), db.FormatTime(s.now()))
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}

	return id, nil
}

// UpdateTask replaces the writable fields of an existing task.
func (s *Store) UpdateTask(ctx context.Context, teamID, taskID string, in TaskInput) error {
	in, err := in.Normalize()
	if err != nil {
		return err
	}

	res, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET azure_id = ?, title = ?, context = ?, owner = ?, estimated_hours = ?, status = ?
		WHERE id = ? AND team_id = ?
	`, in.AzureID, in.Title, in.Context, in.Owner, in.EstimatedHours, string(in.Status), taskID, teamID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteTask(ctx context.Context, teamID, taskID string) error {
	res, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = ? AND team_id = ?`, taskID, teamID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
