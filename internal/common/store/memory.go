package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/models"

	"github.com/redis/go-redis/v9"
)

// MemoryStore persists UserMemory keyed by user id. Load returns nil, nil
// when nothing is stored for the user.
type MemoryStore interface {
	Load(ctx context.Context, userID string) (*models.UserMemory, error)
	Save(ctx context.Context, mem *models.UserMemory) error
}

// FileMemoryStore keeps every user's memory in one JSON document.
type FileMemoryStore struct {
	path string
}

func NewFileMemoryStore(path string) *FileMemoryStore {
	return &FileMemoryStore{path: path}
}

func (s *FileMemoryStore) readAll() (map[string]*models.UserMemory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*models.UserMemory{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	all := map[string]*models.UserMemory{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	return all, nil
}

func (s *FileMemoryStore) Load(_ context.Context, userID string) (*models.UserMemory, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return all[userID], nil
}

func (s *FileMemoryStore) Save(_ context.Context, mem *models.UserMemory) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[mem.UserID] = mem
	return writeJSON(s.path, all)
}

const redisMemoryPrefix = "memory:"

type RedisMemoryStore struct {
	client *redis.Client
}

func NewRedisMemoryStore(client *redis.Client) *RedisMemoryStore {
	return &RedisMemoryStore{client: client}
}

func redisMemoryKey(userID string) string {
	return redisMemoryPrefix + userID
}

func (s *RedisMemoryStore) Load(ctx context.Context, userID string) (*models.UserMemory, error) {
	raw, err := s.client.Get(ctx, redisMemoryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	var mem models.UserMemory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	return &mem, nil
}

func (s *RedisMemoryStore) Save(ctx context.Context, mem *models.UserMemory) error {
	raw, err := json.Marshal(mem)
	if err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	if err := s.client.Set(ctx, redisMemoryKey(mem.UserID), raw, 0).Err(); err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	return nil
}

const (
	createMemoryTableSQL = `CREATE TABLE IF NOT EXISTS user_memory (
    user_id    TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectMemorySQL = `SELECT payload FROM user_memory WHERE user_id = $1`
	upsertMemorySQL = `INSERT INTO user_memory (user_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

type PostgresMemoryStore struct {
	db *sql.DB
}

func NewPostgresMemoryStore(db *sql.DB) *PostgresMemoryStore {
	return &PostgresMemoryStore{db: db}
}

// EnsureSchema creates the user_memory table when missing.
func (s *PostgresMemoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createMemoryTableSQL); err != nil {
		return fmt.Errorf("create user_memory table: %w", err)
	}
	return nil
}

func (s *PostgresMemoryStore) Load(ctx context.Context, userID string) (*models.UserMemory, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, selectMemorySQL, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	var mem models.UserMemory
	if err := json.Unmarshal(payload, &mem); err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	return &mem, nil
}

func (s *PostgresMemoryStore) Save(ctx context.Context, mem *models.UserMemory) error {
	payload, err := json.Marshal(mem)
	if err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	if _, err := s.db.ExecContext(ctx, upsertMemorySQL, mem.UserID, payload); err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	return nil
}
