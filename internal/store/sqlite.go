package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/shared"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by writes that target a missing row.
var ErrNotFound = errors.New("not found")

const (
	maxRetries = 3
	baseDelay  = 100 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // Serializes write transactions to prevent SQLITE_BUSY
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		is_open INTEGER NOT NULL DEFAULT 0,
		chatbot_status TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		opening_time TEXT NOT NULL DEFAULT '',
		closing_time TEXT NOT NULL DEFAULT '',
		working_days TEXT NOT NULL DEFAULT '[]',
		social_media TEXT NOT NULL DEFAULT '{}',
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assistants (
		id INTEGER PRIMARY KEY,
		company_id INTEGER NOT NULL UNIQUE,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		api_url TEXT NOT NULL DEFAULT '',
		token_limit INTEGER NOT NULL DEFAULT 0,
		token_usage INTEGER NOT NULL DEFAULT 0,
		token_reset_date INTEGER,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS service_categories (
		id INTEGER PRIMARY KEY,
		company_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_categories_company ON service_categories(company_id);

	CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY,
		category_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		duration TEXT NOT NULL DEFAULT '',
		availability INTEGER NOT NULL DEFAULT 1,
		rating REAL NOT NULL DEFAULT 0,
		image TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_services_category ON services(category_id);

	CREATE TABLE IF NOT EXISTS schedules (
		id INTEGER PRIMARY KEY,
		public_id TEXT NOT NULL UNIQUE,
		company_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		all_day INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		customer_contact TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_schedules_company ON schedules(company_id);

	CREATE TABLE IF NOT EXISTS schedule_slots (
		id INTEGER PRIMARY KEY,
		public_id TEXT NOT NULL UNIQUE,
		company_id INTEGER NOT NULL,
		service_id INTEGER,
		schedule_id INTEGER,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		all_day INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_recurring INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_slots_company ON schedule_slots(company_id);

	CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		external_id TEXT,
		chat_code TEXT NOT NULL UNIQUE,
		step TEXT NOT NULL,
		interaction_count INTEGER NOT NULL DEFAULT 0,
		max_interaction INTEGER NOT NULL,
		human_attendance INTEGER NOT NULL DEFAULT 0,
		context TEXT NOT NULL DEFAULT '{}',
		last_interaction_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_chats_external
		ON chats(company_id, external_id) WHERE external_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL UNIQUE,
		company_id INTEGER NOT NULL,
		sentiment TEXT NOT NULL,
		interaction_type TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sentiment_aggregates (
		chat_id INTEGER PRIMARY KEY,
		positive_count INTEGER NOT NULL DEFAULT 0,
		negative_count INTEGER NOT NULL DEFAULT 0,
		neutral_count INTEGER NOT NULL DEFAULT 0,
		final_sentiment TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const chatColumns = `id, company_id, external_id, chat_code, step, interaction_count,
	max_interaction, human_attendance, context, last_interaction_at,
	created_at, updated_at, deleted_at`

// GetChatByExternalID retrieves a live chat by its external id.
func (s *SQLiteStore) GetChatByExternalID(ctx context.Context, companyID int64, externalID string) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats
		WHERE company_id = ? AND external_id = ? AND deleted_at IS NULL`
	return scanChat(s.db.QueryRowContext(ctx, query, companyID, externalID))
}

// GetChatByCode retrieves a live chat by its chat code.
func (s *SQLiteStore) GetChatByCode(ctx context.Context, companyID int64, code string) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats
		WHERE company_id = ? AND chat_code = ? AND deleted_at IS NULL`
	return scanChat(s.db.QueryRowContext(ctx, query, companyID, code))
}

func scanChat(row *sql.Row) (*domain.Chat, error) {
	var chat domain.Chat
	var externalID sql.NullString
	var contextJSON string
	var lastInteraction, createdAt, updatedAt int64
	var deletedAt sql.NullInt64

	err := row.Scan(
		&chat.ID, &chat.CompanyID, &externalID, &chat.Code, &chat.Step,
		&chat.InteractionCount, &chat.MaxInteraction, &chat.HumanAttendance,
		&contextJSON, &lastInteraction, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat row: %w", err)
	}

	if err := json.Unmarshal([]byte(contextJSON), &chat.Context); err != nil {
		return nil, fmt.Errorf("decode chat context: %w", err)
	}
	chat.ExternalID = externalID.String
	chat.LastInteractionAt = time.Unix(lastInteraction, 0)
	chat.CreatedAt = time.Unix(createdAt, 0)
	chat.UpdatedAt = time.Unix(updatedAt, 0)
	chat.DeletedAt = timePtr(deletedAt)
	return &chat, nil
}

// CreateChat inserts a new chat and sets its ID. Zero fields get their defaults.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *domain.Chat) error {
	if chat.Step == "" {
		chat.Step = domain.StepStart
	}
	if chat.MaxInteraction <= 0 {
		chat.MaxInteraction = domain.DefaultMaxInteraction
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	if chat.LastInteractionAt.IsZero() {
		chat.LastInteractionAt = chat.CreatedAt
	}
	chat.UpdatedAt = chat.CreatedAt

	contextJSON, err := json.Marshal(chat.Context)
	if err != nil {
		return fmt.Errorf("encode chat context: %w", err)
	}
	var externalID any
	if chat.ExternalID != "" {
		externalID = chat.ExternalID
	}

	query := `
		INSERT INTO chats (
			company_id, external_id, chat_code, step, interaction_count,
			max_interaction, human_attendance, context, last_interaction_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, "create_chat", maxRetries, baseDelay, func() error {
		res, err := s.db.ExecContext(ctx, query,
			chat.CompanyID, externalID, chat.Code, chat.Step, chat.InteractionCount,
			chat.MaxInteraction, chat.HumanAttendance, string(contextJSON),
			chat.LastInteractionAt.Unix(), chat.CreatedAt.Unix(), chat.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("chat last insert id: %w", err)
		}
		chat.ID = id
		return nil
	})
}

// UpdateChat applies patch to the chat row.
func (s *SQLiteStore) UpdateChat(ctx context.Context, chatID int64, patch domain.ChatPatch) error {
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("update chat %d: %w", chatID, err)
	}
	if patch.IsEmpty() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, "update_chat", maxRetries, baseDelay, func() error {
		return updateChat(ctx, s.db, chatID, patch, time.Now())
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateChat(ctx context.Context, db execer, chatID int64, patch domain.ChatPatch, at time.Time) error {
	var sets []string
	var args []any
	if patch.Step != nil {
		sets = append(sets, "step = ?")
		args = append(args, string(*patch.Step))
	}
	if patch.InteractionCount != nil {
		sets = append(sets, "interaction_count = ?")
		args = append(args, *patch.InteractionCount)
	}
	if patch.MaxInteraction != nil {
		sets = append(sets, "max_interaction = ?")
		args = append(args, *patch.MaxInteraction)
	}
	if patch.LastInteractionAt != nil {
		sets = append(sets, "last_interaction_at = ?")
		args = append(args, patch.LastInteractionAt.Unix())
	}
	if patch.HumanAttendance != nil {
		sets = append(sets, "human_attendance = ?")
		args = append(args, *patch.HumanAttendance)
	}
	if patch.Context != nil {
		raw, err := json.Marshal(patch.Context)
		if err != nil {
			return fmt.Errorf("encode chat context: %w", err)
		}
		sets = append(sets, "context = ?")
		args = append(args, string(raw))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, at.Unix(), chatID)

	query := `UPDATE chats SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update chat %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chat rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update chat %d: %w", chatID, ErrNotFound)
	}
	return nil
}

// CommitTurn charges the turn's tokens against the assistant and persists the
// chat patch, the interaction row and the sentiment aggregate in one transaction.
func (s *SQLiteStore) CommitTurn(ctx context.Context, turn domain.Turn) error {
	if err := turn.Patch.Validate(); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	if turn.At.IsZero() {
		turn.At = time.Now()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, "commit_turn", maxRetries, baseDelay, func() error {
		return s.commitTurnOnce(ctx, turn)
	})
}

func (s *SQLiteStore) commitTurnOnce(ctx context.Context, turn domain.Turn) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("Failed to roll back turn", "chat_id", turn.ChatID, "error", rbErr)
			}
		}
	}()

	if err = chargeTokens(ctx, tx, turn.CompanyID, turn.Usage.Total(), turn.At); err != nil {
		return err
	}
	if !turn.Patch.IsEmpty() {
		if err = updateChat(ctx, tx, turn.ChatID, turn.Patch, turn.At); err != nil {
			return err
		}
	}
	if err = upsertInteraction(ctx, tx, turn); err != nil {
		return err
	}
	if err = addSentiment(ctx, tx, turn.ChatID, turn.Sentiment, turn.At); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

// chargeTokens resets the usage counter at the start of a new month, rejects the
// turn if it would exceed a positive limit and otherwise adds total to the usage.
func chargeTokens(ctx context.Context, tx *sql.Tx, companyID, total int64, at time.Time) error {
	if total <= 0 {
		return nil
	}

	var limit, usage int64
	var resetDate sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT token_limit, token_usage, token_reset_date FROM assistants WHERE company_id = ?`,
		companyID,
	).Scan(&limit, &usage, &resetDate)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token usage: %w", err)
	}

	at = at.UTC()
	if !resetDate.Valid || !sameMonth(time.Unix(resetDate.Int64, 0).UTC(), at) {
		usage = 0
		resetDate = sql.NullInt64{Int64: time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC).Unix(), Valid: true}
	}
	if limit > 0 && usage+total > limit {
		return fmt.Errorf("company %d: usage %d + %d over limit %d: %w",
			companyID, usage, total, limit, domain.ErrQuotaExceeded)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assistants SET token_usage = ?, token_reset_date = ?, updated_at = ? WHERE company_id = ?`,
		usage+total, resetDate.Int64, at.Unix(), companyID,
	)
	if err != nil {
		return fmt.Errorf("update token usage: %w", err)
	}
	return nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func upsertInteraction(ctx context.Context, tx *sql.Tx, turn domain.Turn) error {
	query := `
		INSERT INTO interactions (
			chat_id, company_id, sentiment, interaction_type, summary,
			prompt_tokens, completion_tokens, total_tokens, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			sentiment = excluded.sentiment,
			interaction_type = excluded.interaction_type,
			summary = COALESCE(NULLIF(excluded.summary, ''), interactions.summary),
			prompt_tokens = interactions.prompt_tokens + excluded.prompt_tokens,
			completion_tokens = interactions.completion_tokens + excluded.completion_tokens,
			total_tokens = interactions.total_tokens + excluded.total_tokens,
			updated_at = excluded.updated_at`

	sentiment := turn.Sentiment
	if sentiment == "" {
		sentiment = domain.SentimentNeutral
	}
	_, err := tx.ExecContext(ctx, query,
		turn.ChatID, turn.CompanyID, string(sentiment), turn.InteractionType, turn.Summary,
		turn.Usage.PromptTokens, turn.Usage.CompletionTokens, turn.Usage.Total(),
		turn.At.Unix(), turn.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert interaction: %w", err)
	}
	return nil
}

func addSentiment(ctx context.Context, tx *sql.Tx, chatID int64, s domain.Sentiment, at time.Time) error {
	agg := domain.SentimentAggregate{ChatID: chatID}
	err := tx.QueryRowContext(ctx,
		`SELECT positive_count, negative_count, neutral_count FROM sentiment_aggregates WHERE chat_id = ?`,
		chatID,
	).Scan(&agg.PositiveCount, &agg.NegativeCount, &agg.NeutralCount)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read sentiment aggregate: %w", err)
	}
	agg.Add(s)

	query := `
		INSERT INTO sentiment_aggregates (
			chat_id, positive_count, negative_count, neutral_count, final_sentiment, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			positive_count = excluded.positive_count,
			negative_count = excluded.negative_count,
			neutral_count = excluded.neutral_count,
			final_sentiment = excluded.final_sentiment,
			updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, query,
		chatID, agg.PositiveCount, agg.NegativeCount, agg.NeutralCount,
		string(agg.FinalSentiment), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert sentiment aggregate: %w", err)
	}
	return nil
}

// Interaction returns the analytics row of a chat, or nil.
func (s *SQLiteStore) Interaction(ctx context.Context, chatID int64) (*domain.Interaction, error) {
	query := `
		SELECT id, company_id, chat_id, sentiment, interaction_type, summary,
		       prompt_tokens, completion_tokens, total_tokens, created_at, updated_at
		FROM interactions WHERE chat_id = ?`

	var it domain.Interaction
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&it.ID, &it.CompanyID, &it.ChatID, &it.Sentiment, &it.InteractionType, &it.Summary,
		&it.PromptTokens, &it.CompletionTokens, &it.TotalTokens, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan interaction: %w", err)
	}
	it.CreatedAt = time.Unix(createdAt, 0)
	it.UpdatedAt = time.Unix(updatedAt, 0)
	return &it, nil
}

// SentimentAggregate returns the sentiment counters of a chat, or nil.
func (s *SQLiteStore) SentimentAggregate(ctx context.Context, chatID int64) (*domain.SentimentAggregate, error) {
	query := `
		SELECT chat_id, positive_count, negative_count, neutral_count, final_sentiment, updated_at
		FROM sentiment_aggregates WHERE chat_id = ?`

	var agg domain.SentimentAggregate
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&agg.ChatID, &agg.PositiveCount, &agg.NegativeCount, &agg.NeutralCount,
		&agg.FinalSentiment, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan sentiment aggregate: %w", err)
	}
	agg.UpdatedAt = time.Unix(updatedAt, 0)
	return &agg, nil
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
