package store

import (
	"context"

	"backoffice-service/internal/models"
)

// InsertTimelineEvent appends an activity feed entry. Called by the timeline
// worker when it consumes a domain event.
func (s *Store) InsertTimelineEvent(ctx context.Context, e *models.TimelineEvent) error {
	return s.db.GetContext(ctx, e, `
		INSERT INTO timeline_events (event_type, description, timestamp, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		e.EventType, e.Description, e.Timestamp, e.UserID)
}

// ListTimelineEvents retrieves the most recent activity feed entries
func (s *Store) ListTimelineEvents(ctx context.Context, limit int) ([]models.TimelineEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events := []models.TimelineEvent{}
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM timeline_events ORDER BY timestamp DESC, id DESC LIMIT $1", limit)
	return events, err
}
