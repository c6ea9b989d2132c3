package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
)

// CompanyInfo retrieves a company by id.
func (s *SQLiteStore) CompanyInfo(ctx context.Context, companyID int64) (*domain.Company, error) {
	query := `
		SELECT id, name, status, is_open, chatbot_status, address, opening_time,
		       closing_time, working_days, social_media, updated_at
		FROM companies WHERE id = ?`

	var c domain.Company
	var workingDays, socialMedia string
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, companyID).Scan(
		&c.ID, &c.Name, &c.Status, &c.IsOpen, &c.ChatbotStatus, &c.Address,
		&c.OpeningTime, &c.ClosingTime, &workingDays, &socialMedia, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan company row: %w", err)
	}

	if err := json.Unmarshal([]byte(workingDays), &c.WorkingDays); err != nil {
		return nil, fmt.Errorf("decode working days: %w", err)
	}
	if err := json.Unmarshal([]byte(socialMedia), &c.SocialMedia); err != nil {
		return nil, fmt.Errorf("decode social media: %w", err)
	}
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

// AssistantInfo retrieves the assistant of a company.
func (s *SQLiteStore) AssistantInfo(ctx context.Context, companyID int64) (*domain.Assistant, error) {
	query := `
		SELECT id, company_id, name, status, type, model, api_url,
		       token_limit, token_usage, token_reset_date, updated_at
		FROM assistants WHERE company_id = ?`

	var a domain.Assistant
	var resetDate sql.NullInt64
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, companyID).Scan(
		&a.ID, &a.CompanyID, &a.Name, &a.Status, &a.Type, &a.Model, &a.APIURL,
		&a.TokenLimit, &a.TokenUsage, &resetDate, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan assistant row: %w", err)
	}
	a.TokenResetDate = timePtr(resetDate)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}

// ServiceCatalog retrieves live categories with their live services, ordered by id.
func (s *SQLiteStore) ServiceCatalog(ctx context.Context, companyID int64) ([]domain.ServiceCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, updated_at
		FROM service_categories
		WHERE company_id = ? AND deleted_at IS NULL
		ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer closeRows(rows, "categories")

	var categories []domain.ServiceCategory
	index := make(map[int64]int)
	for rows.Next() {
		var c domain.ServiceCategory
		var updatedAt int64
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		c.UpdatedAt = time.Unix(updatedAt, 0)
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	svcRows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.category_id, s.name, s.description, s.price, s.duration,
		       s.availability, s.rating, s.image, s.updated_at
		FROM services s
		JOIN service_categories c ON c.id = s.category_id
		WHERE c.company_id = ? AND c.deleted_at IS NULL AND s.deleted_at IS NULL
		ORDER BY s.category_id, s.id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer closeRows(svcRows, "services")

	for svcRows.Next() {
		var svc domain.Service
		var updatedAt int64
		if err := svcRows.Scan(
			&svc.ID, &svc.CategoryID, &svc.Name, &svc.Description, &svc.Price,
			&svc.Duration, &svc.Availability, &svc.Rating, &svc.Image, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		svc.UpdatedAt = time.Unix(updatedAt, 0)
		i := index[svc.CategoryID]
		categories[i].Services = append(categories[i].Services, svc)
	}
	if err := svcRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return categories, nil
}

// Schedules retrieves the company's live schedules ordered by start.
func (s *SQLiteStore) Schedules(ctx context.Context, companyID int64) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, public_id, company_id, title, start_at, end_at, all_day, color,
		       status, description, location, customer_name, customer_contact, updated_at
		FROM schedules
		WHERE company_id = ? AND deleted_at IS NULL
		ORDER BY start_at, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer closeRows(rows, "schedules")

	var schedules []domain.Schedule
	for rows.Next() {
		var sc domain.Schedule
		var start, end, updatedAt int64
		if err := rows.Scan(
			&sc.ID, &sc.PublicID, &sc.CompanyID, &sc.Title, &start, &end, &sc.AllDay,
			&sc.Color, &sc.Status, &sc.Description, &sc.Location,
			&sc.CustomerName, &sc.CustomerContact, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		sc.Start = time.Unix(start, 0)
		sc.End = time.Unix(end, 0)
		sc.UpdatedAt = time.Unix(updatedAt, 0)
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

// ScheduleSlots retrieves every slot of the company ordered by start.
func (s *SQLiteStore) ScheduleSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, public_id, company_id, service_id, schedule_id, start_at, end_at,
		       all_day, is_active, is_recurring, updated_at
		FROM schedule_slots
		WHERE company_id = ?
		ORDER BY start_at, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query schedule slots: %w", err)
	}
	defer closeRows(rows, "schedule slots")

	var slots []domain.ScheduleSlot
	for rows.Next() {
		var sl domain.ScheduleSlot
		var serviceID, scheduleID sql.NullInt64
		var start, end, updatedAt int64
		if err := rows.Scan(
			&sl.ID, &sl.PublicID, &sl.CompanyID, &serviceID, &scheduleID, &start, &end,
			&sl.AllDay, &sl.IsActive, &sl.IsRecurring, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule slot row: %w", err)
		}
		if serviceID.Valid {
			sl.ServiceID = &serviceID.Int64
		}
		if scheduleID.Valid {
			sl.ScheduleID = &scheduleID.Int64
		}
		sl.Start = time.Unix(start, 0)
		sl.End = time.Unix(end, 0)
		sl.UpdatedAt = time.Unix(updatedAt, 0)
		slots = append(slots, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule slots: %w", err)
	}
	return slots, nil
}

// Soft deletes count as modifications so a cached catalog notices removals.
var lastModifiedQueries = map[domain.Kind]string{
	domain.KindCompany:   `SELECT MAX(updated_at) FROM companies WHERE id = ?1`,
	domain.KindAssistant: `SELECT MAX(updated_at) FROM assistants WHERE company_id = ?1`,
	domain.KindServices: `
		SELECT MAX(ts) FROM (
			SELECT MAX(updated_at, COALESCE(deleted_at, 0)) AS ts
			FROM service_categories WHERE company_id = ?1
			UNION ALL
			SELECT MAX(s.updated_at, COALESCE(s.deleted_at, 0))
			FROM services s JOIN service_categories c ON c.id = s.category_id
			WHERE c.company_id = ?1
		)`,
	domain.KindSchedules: `
		SELECT MAX(MAX(updated_at, COALESCE(deleted_at, 0)))
		FROM schedules WHERE company_id = ?1`,
	domain.KindScheduleSlots: `SELECT MAX(updated_at) FROM schedule_slots WHERE company_id = ?1`,
}

// LastModified returns the newest modification time among the rows of kind.
func (s *SQLiteStore) LastModified(ctx context.Context, kind domain.Kind, companyID int64) (time.Time, error) {
	query, ok := lastModifiedQueries[kind]
	if !ok {
		return time.Time{}, fmt.Errorf("last modified: unknown kind %q", kind)
	}
	var ts sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, companyID).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("last modified %s: %w", kind, err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("Failed to close rows", "query", what, "error", err)
	}
}
