package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pragyanetra/console/internal/models"
)

// CreateCourse persists a new course and returns its assigned id.
// The video list is stored as a JSON document so both item variants keep
// their wire shape exactly.
func (s *Store) CreateCourse(ctx context.Context, c *models.Course) (uuid.UUID, error) {
	id := uuid.New()

	videos, err := json.Marshal(c.Videos)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode video list: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO courses (id, provider_id, title, description, price, banner_url, videos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, c.ProviderID, c.Title, c.Description, c.Price, c.BannerURL, videos)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create course: %w", err)
	}

	return id, nil
}

// GetCourse retrieves one course by id.
func (s *Store) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	var videos []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, provider_id, title, description, price, banner_url, videos, created_at
		FROM courses WHERE id = $1
	`, id).Scan(&c.ID, &c.ProviderID, &c.Title, &c.Description, &c.Price, &c.BannerURL, &videos, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := json.Unmarshal(videos, &c.Videos); err != nil {
		return nil, fmt.Errorf("failed to decode video list: %w", err)
	}
	return &c, nil
}

// ListCoursesByProvider retrieves all courses owned by a provider, newest
// first.
func (s *Store) ListCoursesByProvider(ctx context.Context, providerID string) ([]models.Course, error) {
	return s.list(ctx, `
		SELECT id, provider_id, title, description, price, banner_url, videos, created_at
		FROM courses WHERE provider_id = $1
		ORDER BY created_at DESC
	`, providerID)
}

// ListCourses retrieves all published courses, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]models.Course, error) {
	return s.list(ctx, `
		SELECT id, provider_id, title, description, price, banner_url, videos, created_at
		FROM courses
		ORDER BY created_at DESC
	`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		var videos []byte
		if err := rows.Scan(&c.ID, &c.ProviderID, &c.Title, &c.Description, &c.Price, &c.BannerURL, &videos, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		if err := json.Unmarshal(videos, &c.Videos); err != nil {
			return nil, fmt.Errorf("failed to decode video list: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// UpdateVideos replaces a course's full video list.
func (s *Store) UpdateVideos(ctx context.Context, id uuid.UUID, items []models.VideoItem) error {
	videos, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode video list: %w", err)
	}

	tag, err := s.db.Exec(ctx, `UPDATE courses SET videos = $1 WHERE id = $2`, videos, id)
	if err != nil {
		return fmt.Errorf("failed to update video list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}
