package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
)

// UpsertCompany creates or updates a company row.
func (s *SQLiteStore) UpsertCompany(ctx context.Context, c *domain.Company) error {
	workingDays, err := json.Marshal(nonNilSlice(c.WorkingDays))
	if err != nil {
		return fmt.Errorf("encode working days: %w", err)
	}
	social := c.SocialMedia
	if social == nil {
		social = map[string]string{}
	}
	socialMedia, err := json.Marshal(social)
	if err != nil {
		return fmt.Errorf("encode social media: %w", err)
	}

	query := `
		INSERT INTO companies (
			id, name, status, is_open, chatbot_status, address, opening_time,
			closing_time, working_days, social_media, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			is_open = excluded.is_open,
			chatbot_status = excluded.chatbot_status,
			address = excluded.address,
			opening_time = excluded.opening_time,
			closing_time = excluded.closing_time,
			working_days = excluded.working_days,
			social_media = excluded.social_media,
			updated_at = excluded.updated_at`

	return s.write(ctx, "upsert company", query,
		c.ID, c.Name, c.Status, c.IsOpen, c.ChatbotStatus, c.Address, c.OpeningTime,
		c.ClosingTime, string(workingDays), string(socialMedia), stamp(c.UpdatedAt),
	)
}

// UpsertAssistant creates or updates the assistant of a company.
func (s *SQLiteStore) UpsertAssistant(ctx context.Context, a *domain.Assistant) error {
	query := `
		INSERT INTO assistants (
			id, company_id, name, status, type, model, api_url,
			token_limit, token_usage, token_reset_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			type = excluded.type,
			model = excluded.model,
			api_url = excluded.api_url,
			token_limit = excluded.token_limit,
			token_usage = excluded.token_usage,
			token_reset_date = excluded.token_reset_date,
			updated_at = excluded.updated_at`

	return s.write(ctx, "upsert assistant", query,
		a.ID, a.CompanyID, a.Name, string(a.Status), a.Type, a.Model, a.APIURL,
		a.TokenLimit, a.TokenUsage, nullUnix(a.TokenResetDate), stamp(a.UpdatedAt),
	)
}

// UpsertCategory creates or updates a service category.
func (s *SQLiteStore) UpsertCategory(ctx context.Context, c *domain.ServiceCategory) error {
	query := `
		INSERT INTO service_categories (id, company_id, name, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`

	return s.write(ctx, "upsert category", query,
		c.ID, c.CompanyID, c.Name, stamp(c.UpdatedAt), nullUnix(c.DeletedAt),
	)
}

// UpsertService creates or updates a catalog service.
func (s *SQLiteStore) UpsertService(ctx context.Context, svc *domain.Service) error {
	query := `
		INSERT INTO services (
			id, category_id, name, description, price, duration,
			availability, rating, image, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			duration = excluded.duration,
			availability = excluded.availability,
			rating = excluded.rating,
			image = excluded.image,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`

	return s.write(ctx, "upsert service", query,
		svc.ID, svc.CategoryID, svc.Name, svc.Description, svc.Price, svc.Duration,
		svc.Availability, svc.Rating, svc.Image, stamp(svc.UpdatedAt), nullUnix(svc.DeletedAt),
	)
}

// UpsertSchedule creates or updates a schedule by public id.
func (s *SQLiteStore) UpsertSchedule(ctx context.Context, sc *domain.Schedule) error {
	query := `
		INSERT INTO schedules (
			public_id, company_id, title, start_at, end_at, all_day, color, status,
			description, location, customer_name, customer_contact, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(public_id) DO UPDATE SET
			title = excluded.title,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day = excluded.all_day,
			color = excluded.color,
			status = excluded.status,
			description = excluded.description,
			location = excluded.location,
			customer_name = excluded.customer_name,
			customer_contact = excluded.customer_contact,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`

	return s.write(ctx, "upsert schedule", query,
		sc.PublicID, sc.CompanyID, sc.Title, sc.Start.Unix(), sc.End.Unix(), sc.AllDay,
		sc.Color, sc.Status, sc.Description, sc.Location, sc.CustomerName,
		sc.CustomerContact, stamp(sc.UpdatedAt), nullUnix(sc.DeletedAt),
	)
}

// UpsertSlot creates or updates a schedule slot by public id.
func (s *SQLiteStore) UpsertSlot(ctx context.Context, sl *domain.ScheduleSlot) error {
	query := `
		INSERT INTO schedule_slots (
			public_id, company_id, service_id, schedule_id, start_at, end_at,
			all_day, is_active, is_recurring, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(public_id) DO UPDATE SET
			service_id = excluded.service_id,
			schedule_id = excluded.schedule_id,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day = excluded.all_day,
			is_active = excluded.is_active,
			is_recurring = excluded.is_recurring,
			updated_at = excluded.updated_at`

	var serviceID, scheduleID any
	if sl.ServiceID != nil {
		serviceID = *sl.ServiceID
	}
	if sl.ScheduleID != nil {
		scheduleID = *sl.ScheduleID
	}
	return s.write(ctx, "upsert slot", query,
		sl.PublicID, sl.CompanyID, serviceID, scheduleID, sl.Start.Unix(), sl.End.Unix(),
		sl.AllDay, sl.IsActive, sl.IsRecurring, stamp(sl.UpdatedAt),
	)
}

func (s *SQLiteStore) write(ctx context.Context, op, query string, args ...any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// DemoCompanyID is the tenant created by Seed.
const DemoCompanyID int64 = 1

// Seed loads a demo tenant: a company, its assistant, a small catalog, one
// booked schedule and a few slots. Running it again refreshes the same rows.
func Seed(ctx context.Context, s *SQLiteStore, now time.Time) error {
	now = now.UTC().Truncate(time.Second)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	company := &domain.Company{
		ID:            DemoCompanyID,
		Name:          "Clínica Sorriso",
		Status:        "ACTIVE",
		IsOpen:        true,
		ChatbotStatus: "ACTIVE",
		Address:       "Rua das Flores, 123 - Centro",
		OpeningTime:   "08:00",
		ClosingTime:   "18:00",
		WorkingDays:   []string{"segunda", "terça", "quarta", "quinta", "sexta"},
		SocialMedia:   map[string]string{"instagram": "@clinicasorriso"},
		UpdatedAt:     now,
	}
	assistant := &domain.Assistant{
		ID:         1,
		CompanyID:  DemoCompanyID,
		Name:       "Sofia",
		Status:     domain.AssistantOnline,
		Type:       "ATENDIMENTO",
		Model:      "gpt-4o-mini",
		TokenLimit: 100000,
		UpdatedAt:  now,
	}
	categories := []domain.ServiceCategory{
		{ID: 1, CompanyID: DemoCompanyID, Name: "Estética", UpdatedAt: now},
		{ID: 2, CompanyID: DemoCompanyID, Name: "Odontologia", UpdatedAt: now},
	}
	services := []domain.Service{
		{ID: 1, CategoryID: 1, Name: "Limpeza de pele", Description: "Limpeza profunda com extração", Price: 150, Duration: "60 min", Availability: true, Rating: 4.8, UpdatedAt: now},
		{ID: 2, CategoryID: 1, Name: "Massagem relaxante", Description: "Massagem corporal de 50 minutos", Price: 180, Duration: "50 min", Availability: true, Rating: 4.9, UpdatedAt: now},
		{ID: 3, CategoryID: 2, Name: "Clareamento dental", Description: "Clareamento a laser", Price: 600, Duration: "90 min", Availability: true, Rating: 4.7, UpdatedAt: now},
	}
	booked := &domain.Schedule{
		PublicID:        "sched-demo-1",
		CompanyID:       DemoCompanyID,
		Title:           "Limpeza de pele",
		Start:           day.Add(9 * time.Hour),
		End:             day.Add(10 * time.Hour),
		Color:           "#4caf50",
		Status:          "CONFIRMED",
		CustomerName:    "Maria Souza",
		CustomerContact: "+5511999990000",
		UpdatedAt:       now,
	}

	if err := s.UpsertCompany(ctx, company); err != nil {
		return err
	}
	if err := s.UpsertAssistant(ctx, assistant); err != nil {
		return err
	}
	for i := range categories {
		if err := s.UpsertCategory(ctx, &categories[i]); err != nil {
			return err
		}
	}
	for i := range services {
		if err := s.UpsertService(ctx, &services[i]); err != nil {
			return err
		}
	}
	if err := s.UpsertSchedule(ctx, booked); err != nil {
		return err
	}

	var bookedID int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM schedules WHERE public_id = ?`, booked.PublicID,
	).Scan(&bookedID); err != nil {
		return fmt.Errorf("read seeded schedule: %w", err)
	}

	serviceID := services[0].ID
	for i, hour := range []int{9, 11, 14, 16} {
		slot := &domain.ScheduleSlot{
			PublicID:  fmt.Sprintf("slot-demo-%d", i+1),
			CompanyID: DemoCompanyID,
			ServiceID: &serviceID,
			Start:     day.Add(time.Duration(hour) * time.Hour),
			End:       day.Add(time.Duration(hour+1) * time.Hour),
			IsActive:  true,
			UpdatedAt: now,
		}
		if hour == 9 {
			slot.ScheduleID = &bookedID
		}
		if err := s.UpsertSlot(ctx, slot); err != nil {
			return err
		}
	}

	slog.Info("Demo tenant seeded", "company_id", DemoCompanyID, "services", len(services))
	return nil
}
