// Package store provides persistence for chats and tenant reference data.
package store

import (
	"context"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
)

// Repository defines the data access interface.
type Repository interface {
	// Ping verifies database connectivity.
	Ping(ctx context.Context) error
	// Close closes the database connection.
	Close() error

	// CompanyInfo returns the company, or nil if it does not exist.
	CompanyInfo(ctx context.Context, companyID int64) (*domain.Company, error)
	// AssistantInfo returns the company's assistant, or nil if none is configured.
	AssistantInfo(ctx context.Context, companyID int64) (*domain.Assistant, error)
	// ServiceCatalog returns live categories with their live services.
	ServiceCatalog(ctx context.Context, companyID int64) ([]domain.ServiceCategory, error)
	// Schedules returns the company's schedules that are not soft-deleted.
	Schedules(ctx context.Context, companyID int64) ([]domain.Schedule, error)
	// ScheduleSlots returns every slot of the company.
	ScheduleSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error)
	// LastModified returns the newest modification time among the rows of
	// kind, or the zero time when there are none.
	LastModified(ctx context.Context, kind domain.Kind, companyID int64) (time.Time, error)

	// GetChatByExternalID returns the chat with the given external id, or nil.
	GetChatByExternalID(ctx context.Context, companyID int64, externalID string) (*domain.Chat, error)
	// GetChatByCode returns the chat with the given code, or nil.
	GetChatByCode(ctx context.Context, companyID int64, code string) (*domain.Chat, error)
	// CreateChat inserts chat and sets its ID.
	CreateChat(ctx context.Context, chat *domain.Chat) error
	// UpdateChat applies patch to the chat row.
	UpdateChat(ctx context.Context, chatID int64, patch domain.ChatPatch) error
	// CommitTurn persists a generated turn atomically. It returns
	// domain.ErrQuotaExceeded, writing nothing, when the assistant's token
	// limit would be exceeded.
	CommitTurn(ctx context.Context, turn domain.Turn) error
}
