package domain

import (
	"time"
)

// Record is a flat projection of an entity handed to the generative backend.
type Record map[string]any

// Pick returns a copy of r holding only the listed keys that are present.
func (r Record) Pick(keys ...string) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(keys))
	for _, k := range keys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Company is the tenant owning chats, catalog and schedules.
type Company struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	IsOpen        bool              `json:"is_open"`
	ChatbotStatus string            `json:"chatbot_status"`
	Address       string            `json:"address"`
	OpeningTime   string            `json:"opening_time"`
	ClosingTime   string            `json:"closing_time"`
	WorkingDays   []string          `json:"working_days"`
	SocialMedia   map[string]string `json:"social_media"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToRecord projects the company the way it is exposed to the backend.
func (c *Company) ToRecord() Record {
	openWork := "Horário não disponível"
	if c.OpeningTime != "" && c.ClosingTime != "" {
		openWork = c.OpeningTime + " às " + c.ClosingTime
	}
	address := c.Address
	if address == "" {
		address = "Endereço não disponível"
	}
	isOpen := "CLOSE"
	if c.IsOpen {
		isOpen = "OPEN"
	}
	workDays := c.WorkingDays
	if workDays == nil {
		workDays = []string{}
	}
	social := c.SocialMedia
	if social == nil {
		social = map[string]string{}
	}
	return Record{
		"id":             c.ID,
		"name":           c.Name,
		"status":         c.Status,
		"is_open":        isOpen,
		"chatbot_status": c.ChatbotStatus,
		"address":        address,
		"open_work":      openWork,
		"work_days":      workDays,
		"social_media":   social,
		"updated_at":     c.UpdatedAt,
	}
}

// AssistantStatus is the operational status of a company's assistant.
type AssistantStatus string

// Assistant statuses.
const (
	AssistantOnline      AssistantStatus = "ONLINE"
	AssistantOffline     AssistantStatus = "OFFLINE"
	AssistantMaintenance AssistantStatus = "MAINTENANCE"
)

// Assistant is the chatbot persona configured for a company.
type Assistant struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"company_id"`
	Name           string          `json:"name"`
	Status         AssistantStatus `json:"status"`
	Type           string          `json:"type"`
	Model          string          `json:"model"`
	APIURL         string          `json:"api_url"`
	TokenLimit     int64           `json:"token_limit"`
	TokenUsage     int64           `json:"token_usage"`
	TokenResetDate *time.Time      `json:"token_reset_date,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Available reports whether the assistant can answer messages.
func (a *Assistant) Available() bool {
	return a.Status != AssistantOffline && a.Status != AssistantMaintenance && a.Status != ""
}

// ToRecord projects the assistant the way it is exposed to the backend.
func (a *Assistant) ToRecord() Record {
	return Record{
		"name":        a.Name,
		"status":      string(a.Status),
		"type":        a.Type,
		"model":       a.Model,
		"api_url":     a.APIURL,
		"token_limit": a.TokenLimit,
		"token_usage": a.TokenUsage,
	}
}

// ServiceCategory groups catalog services.
type ServiceCategory struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Name      string     `json:"name"`
	Services  []Service  `json:"services"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Service is a catalog item.
type Service struct {
	ID           int64      `json:"id"`
	CategoryID   int64      `json:"category_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	Duration     string     `json:"duration"`
	Availability bool       `json:"availability"`
	Rating       float64    `json:"rating"`
	Image        string     `json:"image,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// ToRecord projects the service.
func (s *Service) ToRecord() Record {
	return Record{
		"id":           s.ID,
		"name":         s.Name,
		"description":  s.Description,
		"price":        s.Price,
		"duration":     s.Duration,
		"availability": s.Availability,
		"rating":       s.Rating,
		"image":        s.Image,
	}
}

// Schedule is a booked appointment.
type Schedule struct {
	ID              int64      `json:"id"`
	PublicID        string     `json:"public_id"`
	CompanyID       int64      `json:"company_id"`
	Title           string     `json:"title"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	AllDay          bool       `json:"all_day"`
	Color           string     `json:"color"`
	Status          string     `json:"status"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	CustomerName    string     `json:"customer_name"`
	CustomerContact string     `json:"customer_contact"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// ToRecord projects the schedule as a calendar event.
func (s *Schedule) ToRecord() Record {
	return Record{
		"id":               s.ID,
		"public_id":        s.PublicID,
		"title":            s.Title,
		"start":            s.Start.UTC().Format(time.RFC3339),
		"end":              s.End.UTC().Format(time.RFC3339),
		"all_day":          s.AllDay,
		"color":            s.Color,
		"status":           s.Status,
		"description":      s.Description,
		"location":         s.Location,
		"customer_name":    s.CustomerName,
		"customer_contact": s.CustomerContact,
	}
}

// ScheduleSlot is a bookable time window.
type ScheduleSlot struct {
	ID          int64     `json:"id"`
	PublicID    string    `json:"public_id"`
	CompanyID   int64     `json:"company_id"`
	ServiceID   *int64    `json:"service_id,omitempty"`
	ScheduleID  *int64    `json:"schedule_id,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	IsActive    bool      `json:"is_active"`
	IsRecurring bool      `json:"is_recurring"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Open reports whether the slot is active and not yet bound to a schedule.
func (s *ScheduleSlot) Open() bool {
	return s.IsActive && s.ScheduleID == nil
}

// ToRecord projects the slot.
func (s *ScheduleSlot) ToRecord() Record {
	r := Record{
		"id":           s.ID,
		"public_id":    s.PublicID,
		"start":        s.Start.UTC().Format(time.RFC3339),
		"end":          s.End.UTC().Format(time.RFC3339),
		"all_day":      s.AllDay,
		"is_active":    s.IsActive,
		"is_recurring": s.IsRecurring,
	}
	if s.ServiceID != nil {
		r["service_id"] = *s.ServiceID
	}
	return r
}
