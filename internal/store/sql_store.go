package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

// dialect captures what differs between the SQL engines.
type dialect struct {
	name            string
	numberedParams  bool
	autoIncrementPK string
}

var (
	sqliteDialect = dialect{
		name:            EngineSQLite,
		autoIncrementPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
	}
	postgresDialect = dialect{
		name:            EnginePostgres,
		numberedParams:  true,
		autoIncrementPK: "BIGSERIAL PRIMARY KEY",
	}
)

// rebind rewrites ? placeholders into $1, $2, ... when the driver needs it.
func (d dialect) rebind(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() string {
	return `
		CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			picture TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS user_sessions (
			session_token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS quiz_results (
			user_id TEXT PRIMARY KEY,
			archetype TEXT NOT NULL,
			archetype_title TEXT NOT NULL,
			archetype_description TEXT NOT NULL,
			strengths TEXT NOT NULL,
			areas_to_improve TEXT NOT NULL,
			recommended_modules TEXT NOT NULL,
			taken_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT PRIMARY KEY,
			xp INTEGER NOT NULL,
			level INTEGER NOT NULL,
			streak_days INTEGER NOT NULL,
			last_activity TEXT,
			completed_modules TEXT NOT NULL,
			achievements TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS journal_entries (
			entry_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			content TEXT NOT NULL,
			mood TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_user_time ON journal_entries(user_id, created_at);
		CREATE TABLE IF NOT EXISTS chat_messages (
			seq ` + d.autoIncrementPK + `,
			message_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			scenario TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_session_time ON chat_messages(user_id, session_id, created_at);
	`
}

// SQLStore implements Store over database/sql for sqlite and postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	st := &SQLStore{db: db, dialect: d}
	if err := st.initSchema(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema())
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) EnsureUser(ctx context.Context, candidate model.User) (model.User, bool, error) {
	result, err := s.exec(ctx, `
		INSERT INTO users (user_id, email, name, picture, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		candidate.UserID,
		candidate.Email,
		candidate.Name,
		candidate.Picture,
		toTS(candidate.CreatedAt),
	)
	if err != nil {
		return model.User{}, false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return model.User{}, false, err
	}
	user, ok, err := s.scanUser(s.queryRow(ctx, `
		SELECT user_id, email, name, picture, created_at
		FROM users
		WHERE email = ?`,
		candidate.Email,
	))
	if err != nil {
		return model.User{}, false, err
	}
	if !ok {
		return model.User{}, false, errors.New("user vanished after insert")
	}
	return user, rows == 1, nil
}

func (s *SQLStore) GetUser(ctx context.Context, userID string) (model.User, bool, error) {
	return s.scanUser(s.queryRow(ctx, `
		SELECT user_id, email, name, picture, created_at
		FROM users
		WHERE user_id = ?`,
		userID,
	))
}

func (s *SQLStore) scanUser(row *sql.Row) (model.User, bool, error) {
	var user model.User
	var createdAt string
	err := row.Scan(&user.UserID, &user.Email, &user.Name, &user.Picture, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	user.CreatedAt = fromTS(createdAt)
	return user, true, nil
}

func (s *SQLStore) SaveSession(ctx context.Context, session model.UserSession) error {
	_, err := s.exec(ctx, `
		INSERT INTO user_sessions (session_token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_token) DO UPDATE SET
			user_id = excluded.user_id,
			expires_at = excluded.expires_at`,
		session.SessionToken,
		session.UserID,
		toTS(session.ExpiresAt),
		toTS(session.CreatedAt),
	)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, token string) (model.UserSession, bool, error) {
	row := s.queryRow(ctx, `
		SELECT session_token, user_id, expires_at, created_at
		FROM user_sessions
		WHERE session_token = ?`,
		token,
	)
	var session model.UserSession
	var expiresAt, createdAt string
	err := row.Scan(&session.SessionToken, &session.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserSession{}, false, nil
	}
	if err != nil {
		return model.UserSession{}, false, err
	}
	session.ExpiresAt = fromTS(expiresAt)
	session.CreatedAt = fromTS(createdAt)
	return session, true, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.exec(ctx, `DELETE FROM user_sessions WHERE session_token = ?`, token)
	return err
}

func (s *SQLStore) UpsertQuizResult(ctx context.Context, result model.QuizResult) error {
	strengths, err := encodeList(result.Strengths)
	if err != nil {
		return err
	}
	areas, err := encodeList(result.AreasToImprove)
	if err != nil {
		return err
	}
	modules, err := encodeList(result.RecommendedModules)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
		INSERT INTO quiz_results
		(user_id, archetype, archetype_title, archetype_description, strengths, areas_to_improve, recommended_modules, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			archetype = excluded.archetype,
			archetype_title = excluded.archetype_title,
			archetype_description = excluded.archetype_description,
			strengths = excluded.strengths,
			areas_to_improve = excluded.areas_to_improve,
			recommended_modules = excluded.recommended_modules,
			taken_at = excluded.taken_at`,
		result.UserID,
		result.Archetype,
		result.ArchetypeTitle,
		result.ArchetypeDescription,
		strengths,
		areas,
		modules,
		toTS(result.Timestamp),
	)
	return err
}

func (s *SQLStore) GetQuizResult(ctx context.Context, userID string) (model.QuizResult, bool, error) {
	row := s.queryRow(ctx, `
		SELECT user_id, archetype, archetype_title, archetype_description, strengths, areas_to_improve, recommended_modules, taken_at
		FROM quiz_results
		WHERE user_id = ?`,
		userID,
	)
	var result model.QuizResult
	var strengths, areas, modules, takenAt string
	err := row.Scan(
		&result.UserID,
		&result.Archetype,
		&result.ArchetypeTitle,
		&result.ArchetypeDescription,
		&strengths,
		&areas,
		&modules,
		&takenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QuizResult{}, false, nil
	}
	if err != nil {
		return model.QuizResult{}, false, err
	}
	if result.Strengths, err = decodeList(strengths); err != nil {
		return model.QuizResult{}, false, err
	}
	if result.AreasToImprove, err = decodeList(areas); err != nil {
		return model.QuizResult{}, false, err
	}
	if result.RecommendedModules, err = decodeList(modules); err != nil {
		return model.QuizResult{}, false, err
	}
	result.Timestamp = fromTS(takenAt)
	return result, true, nil
}

func (s *SQLStore) GetProgress(ctx context.Context, userID string) (model.Progress, bool, error) {
	row := s.queryRow(ctx, `
		SELECT user_id, xp, level, streak_days, last_activity, completed_modules, achievements
		FROM user_progress
		WHERE user_id = ?`,
		userID,
	)
	var p model.Progress
	var lastActivity sql.NullString
	var completed, achievements string
	err := row.Scan(&p.UserID, &p.XP, &p.Level, &p.StreakDays, &lastActivity, &completed, &achievements)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Progress{}, false, nil
	}
	if err != nil {
		return model.Progress{}, false, err
	}
	if lastActivity.Valid {
		p.LastActivity = fromNullableTS(&lastActivity.String)
		if err := s.canonicalizeLastActivity(ctx, userID, lastActivity.String, p.LastActivity); err != nil {
			return model.Progress{}, false, err
		}
	}
	if p.CompletedModules, err = decodeList(completed); err != nil {
		return model.Progress{}, false, err
	}
	if p.Achievements, err = decodeList(achievements); err != nil {
		return model.Progress{}, false, err
	}
	return p, true, nil
}

// canonicalizeLastActivity rewrites a last_activity written in another layout
// (naive, offset or unparsable) into the layout CompareAndSwapProgress
// matches against. The rewrite is conditional on the raw text, so a
// concurrent writer wins.
func (s *SQLStore) canonicalizeLastActivity(ctx context.Context, userID, raw string, parsed *time.Time) error {
	canonical := nullableTS(parsed)
	if c, ok := canonical.(string); ok && c == raw {
		return nil
	}
	_, err := s.exec(ctx, `
		UPDATE user_progress
		SET last_activity = ?
		WHERE user_id = ? AND last_activity = ?`,
		canonical, userID, raw,
	)
	if err != nil {
		return fmt.Errorf("canonicalize last_activity: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateProgressIfAbsent(ctx context.Context, p model.Progress) (model.Progress, error) {
	completed, err := encodeList(p.CompletedModules)
	if err != nil {
		return model.Progress{}, err
	}
	achievements, err := encodeList(p.Achievements)
	if err != nil {
		return model.Progress{}, err
	}
	if _, err := s.exec(ctx, `
		INSERT INTO user_progress
		(user_id, xp, level, streak_days, last_activity, completed_modules, achievements)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID,
		p.XP,
		p.Level,
		p.StreakDays,
		nullableTS(p.LastActivity),
		completed,
		achievements,
	); err != nil {
		return model.Progress{}, err
	}
	stored, ok, err := s.GetProgress(ctx, p.UserID)
	if err != nil {
		return model.Progress{}, err
	}
	if !ok {
		return model.Progress{}, errors.New("progress vanished after insert")
	}
	return stored, nil
}

func (s *SQLStore) CompareAndSwapProgress(ctx context.Context, next model.Progress, prevLastActivity *time.Time) (bool, error) {
	query := `
		UPDATE user_progress
		SET xp = ?, level = ?, streak_days = ?, last_activity = ?
		WHERE user_id = ? AND last_activity IS NULL`
	args := []any{next.XP, next.Level, next.StreakDays, nullableTS(next.LastActivity), next.UserID}
	if prevLastActivity != nil {
		query = `
		UPDATE user_progress
		SET xp = ?, level = ?, streak_days = ?, last_activity = ?
		WHERE user_id = ? AND last_activity = ?`
		args = append(args, toTS(*prevLastActivity))
	}
	result, err := s.exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *SQLStore) AddJournalEntry(ctx context.Context, entry model.JournalEntry) error {
	_, err := s.exec(ctx, `
		INSERT INTO journal_entries (entry_id, user_id, entry_type, content, mood, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.EntryID,
		entry.UserID,
		entry.EntryType,
		entry.Content,
		entry.Mood,
		toTS(entry.Timestamp),
	)
	return err
}

func (s *SQLStore) ListJournalEntries(ctx context.Context, userID string, limit int) ([]model.JournalEntry, error) {
	rows, err := s.query(ctx, `
		SELECT entry_id, user_id, entry_type, content, mood, created_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.JournalEntry, 0)
	for rows.Next() {
		var entry model.JournalEntry
		var createdAt string
		if err := rows.Scan(
			&entry.EntryID,
			&entry.UserID,
			&entry.EntryType,
			&entry.Content,
			&entry.Mood,
			&createdAt,
		); err != nil {
			return nil, err
		}
		entry.Timestamp = fromTS(createdAt)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLStore) CountJournalEntries(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (s *SQLStore) AddChatMessages(ctx context.Context, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	insert := s.dialect.rebind(`
		INSERT INTO chat_messages (message_id, user_id, session_id, role, content, scenario, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, msg := range messages {
		if _, err := tx.ExecContext(ctx, insert,
			msg.MessageID,
			msg.UserID,
			msg.SessionID,
			msg.Role,
			msg.Content,
			msg.Scenario,
			toTS(msg.Timestamp),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListChatMessages(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatMessage, error) {
	rows, err := s.query(ctx, `
		SELECT message_id, user_id, session_id, role, content, scenario, created_at
		FROM chat_messages
		WHERE user_id = ? AND session_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`,
		userID,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.ChatMessage, 0)
	for rows.Next() {
		var msg model.ChatMessage
		var createdAt string
		if err := rows.Scan(
			&msg.MessageID,
			&msg.UserID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.Scenario,
			&createdAt,
		); err != nil {
			return nil, err
		}
		msg.Timestamp = fromTS(createdAt)
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(result)
	return result, nil
}

func (s *SQLStore) CountChatMessages(ctx context.Context, userID, role string) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM chat_messages WHERE user_id = ? AND role = ?`, userID, role).Scan(&n)
	return n, err
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	out := make([]string, 0)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
