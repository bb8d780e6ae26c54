package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harrison/baseline/internal/models"
)

// PutGoal upserts a treatment goal by id, its STO ladder and progress
// samples included.
func (s *Store) PutGoal(ctx context.Context, goal *models.TreatmentGoal) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	stos, err := json.Marshal(goal.ShortTermObjectives)
	if err != nil {
		return fmt.Errorf("marshal objectives: %w", err)
	}
	progress, err := json.Marshal(goal.ProgressData)
	if err != nil {
		return fmt.Errorf("marshal progress data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO goals
        (id, client_id, goal_code, category, description, measurement_type,
         baseline, mastery_criteria, progression_method, stos, progress, status,
         created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            goal_code=excluded.goal_code, category=excluded.category,
            description=excluded.description, measurement_type=excluded.measurement_type,
            baseline=excluded.baseline, mastery_criteria=excluded.mastery_criteria,
            progression_method=excluded.progression_method, stos=excluded.stos,
            progress=excluded.progress, status=excluded.status,
            updated_at=excluded.updated_at`,
		goal.ID, goal.ClientID, goal.GoalID, goal.Category, goal.Description,
		string(goal.MeasurementType), goal.Baseline, goal.MasteryCriteria,
		string(goal.ProgressionMethod), string(stos), string(progress),
		string(goal.Status), goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put goal %s: %w", goal.ID, err)
	}
	return nil
}

// GetGoal returns the goal with the given id, or ErrNotFound.
func (s *Store) GetGoal(ctx context.Context, id string) (*models.TreatmentGoal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, client_id, goal_code, category, description,
        measurement_type, baseline, mastery_criteria, progression_method, stos, progress,
        status, created_at, updated_at
        FROM goals WHERE id = ?`, id)
	return scanGoal(row)
}

// GoalsByClient returns a client's goals ordered by their practitioner code.
func (s *Store) GoalsByClient(ctx context.Context, clientID string) ([]*models.TreatmentGoal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, client_id, goal_code, category, description,
        measurement_type, baseline, mastery_criteria, progression_method, stos, progress,
        status, created_at, updated_at
        FROM goals WHERE client_id = ? ORDER BY goal_code`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query goals for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var goals []*models.TreatmentGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// DeleteGoal removes a goal record.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

func scanGoal(row rowScanner) (*models.TreatmentGoal, error) {
	var g models.TreatmentGoal
	var category, description sql.NullString
	var mt, method, status, stos, progress string
	err := row.Scan(&g.ID, &g.ClientID, &g.GoalID, &category, &description,
		&mt, &g.Baseline, &g.MasteryCriteria, &method, &stos, &progress,
		&status, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	g.Category = category.String
	g.Description = description.String
	g.MeasurementType = models.MeasurementType(mt)
	g.ProgressionMethod = models.ProgressionMethod(method)
	g.Status = models.GoalStatus(status)
	if err := json.Unmarshal([]byte(stos), &g.ShortTermObjectives); err != nil {
		return nil, fmt.Errorf("unmarshal objectives for goal %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(progress), &g.ProgressData); err != nil {
		return nil, fmt.Errorf("unmarshal progress data for goal %s: %w", g.ID, err)
	}
	return &g, nil
}
