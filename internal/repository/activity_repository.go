package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

// ActivityRepository stores the portal activity trail.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity entry.
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_logs (id, actor_id, actor_role, action, entity_type, entity_id, details, created_at)
VALUES (:id, :actor_id, :actor_role, :action, :entity_type, :entity_id, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first, with the total count.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	where, args := activityWhere(filter.ActorID, filter.Action, filter.From, filter.To)
	base := "FROM activity_logs WHERE " + where

	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT id, actor_id, actor_role, action, entity_type, entity_id, details, created_at %s
ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}
	return entries, total, nil
}

// Summary counts entries per action within the optional range.
func (r *ActivityRepository) Summary(ctx context.Context, from, to *time.Time) ([]models.ActivitySummary, error) {
	where, args := activityWhere("", "", from, to)
	query := "SELECT action, COUNT(*) AS count FROM activity_logs WHERE " + where + " GROUP BY action ORDER BY count DESC, action ASC"
	var rows []models.ActivitySummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarise activity logs: %w", err)
	}
	return rows, nil
}

func activityWhere(actorID, action string, from, to *time.Time) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	if actorID != "" {
		args = append(args, actorID)
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if action != "" {
		args = append(args, action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}
