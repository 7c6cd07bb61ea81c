package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zerohour-app/zerohour-api/internal/model"
)

// Postgres implements DataStore backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ DataStore = (*Postgres)(nil)

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser inserts a new user record.
func (s *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, first_name, last_name, mobile_no, email,
			username, security_phrase, password_hash, created_at, is_online)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.UserID, user.FirstName, user.LastName, user.MobileNo, user.Email,
		user.Username, user.SecurityPhrase, user.PasswordHash, user.CreatedAt, user.IsOnline)
	if err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

const userColumns = `user_id, first_name, last_name, mobile_no, email,
	username, security_phrase, password_hash, created_at, is_online`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.MobileNo,
		&user.Email,
		&user.Username,
		&user.SecurityPhrase,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.IsOnline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (s *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
}

// GetUserByUsername retrieves a user by username.
func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// UsernameOrEmailTaken reports whether a user with the given username or
// email already exists.
func (s *Postgres) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("store: username/email lookup: %w", err)
	}
	return taken, nil
}

// SearchUsers finds users whose username or name matches query
// (case-insensitive substring), excluding the given user.
func (s *Postgres) SearchUsers(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]model.User, error) {
	pattern := "%" + query + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id <> $1
		  AND (username ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)
		ORDER BY username
		LIMIT $3
	`, exclude, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetUserOnline updates the user's presence flag. Idempotent.
func (s *Postgres) SetUserOnline(ctx context.Context, id uuid.UUID, online bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET is_online = $2 WHERE user_id = $1`, id, online)
	if err != nil {
		return fmt.Errorf("store: set online: %w", err)
	}
	return nil
}

// CreateChat inserts a new chat thread.
func (s *Postgres) CreateChat(ctx context.Context, chat *model.Chat) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chats (chat_id, participants, created_at)
		VALUES ($1, $2, $3)
	`, chat.ChatID, chat.Participants, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create chat: %w", err)
	}
	return nil
}

const chatColumns = `chat_id, participants, created_at, last_message, last_message_time`

func scanChat(row pgx.Row) (*model.Chat, error) {
	chat := &model.Chat{}
	err := row.Scan(
		&chat.ChatID,
		&chat.Participants,
		&chat.CreatedAt,
		&chat.LastMessage,
		&chat.LastMessageTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan chat: %w", err)
	}
	return chat, nil
}

// FindChat retrieves a chat by id.
func (s *Postgres) FindChat(ctx context.Context, chatID uuid.UUID) (*model.Chat, error) {
	return scanChat(s.pool.QueryRow(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE chat_id = $1`, chatID))
}

// FindChatByParticipants retrieves the chat whose participant set contains
// both a and b.
func (s *Postgres) FindChatByParticipants(ctx context.Context, a, b uuid.UUID) (*model.Chat, error) {
	return scanChat(s.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM chats
		WHERE participants @> ARRAY[$1, $2]::uuid[]
	`, a, b))
}

// ListUserChats retrieves all chats the user participates in.
func (s *Postgres) ListUserChats(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE $1 = ANY(participants)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// UpdateChatLastMessage updates the thread's denormalized summary.
func (s *Postgres) UpdateChatLastMessage(ctx context.Context, chatID uuid.UUID, content string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET last_message = $2, last_message_time = $3
		WHERE chat_id = $1
	`, chatID, content, at)
	if err != nil {
		return fmt.Errorf("store: update last message: %w", err)
	}
	return nil
}

// CreateMessage appends a message to a chat.
func (s *Postgres) CreateMessage(ctx context.Context, msg *model.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, content, sent_at, message_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.MessageID, msg.ChatID, msg.SenderID, msg.Content, msg.Timestamp, msg.Type)
	if err != nil {
		return fmt.Errorf("store: create message: %w", err)
	}
	return nil
}

// ListChatMessages retrieves a chat's messages in ascending timestamp order,
// each joined with its sender's display fields.
func (s *Postgres) ListChatMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]model.MessageWithSender, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.message_id, m.chat_id, m.sender_id, m.content, m.sent_at, m.message_type,
		       u.username, u.first_name, u.last_name, u.is_online
		FROM messages m
		JOIN users u ON u.user_id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.sent_at ASC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.MessageWithSender
	for rows.Next() {
		var m model.MessageWithSender
		err := rows.Scan(
			&m.MessageID,
			&m.ChatID,
			&m.SenderID,
			&m.Content,
			&m.Timestamp,
			&m.Type,
			&m.Sender.Username,
			&m.Sender.FirstName,
			&m.Sender.LastName,
			&m.Sender.IsOnline,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.Sender.UserID = m.SenderID
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
