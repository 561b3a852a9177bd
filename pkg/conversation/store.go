package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

var ErrCorruptLog = errors.New("conversation: corrupt conversation log")

// LogStore reads and writes the whole meta log as one document.
type LogStore interface {
	// Load reports found=false when no log has been written yet.
	Load(ctx context.Context) (log MetaLog, found bool, err error)
	Save(ctx context.Context, log MetaLog) error
}

// FileStore keeps the log as a JSON file.
type FileStore struct {
	path string
}

var _ LogStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load treats anything that is not a regular file at path as "no log yet".
func (s *FileStore) Load(_ context.Context) (MetaLog, bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return MetaLog{}, false, nil
	}
	if err != nil {
		return MetaLog{}, false, fmt.Errorf("conversation: stat %s: %w", s.path, err)
	}
	if !info.Mode().IsRegular() {
		return MetaLog{}, false, nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		return MetaLog{}, false, fmt.Errorf("conversation: read %s: %w", s.path, err)
	}
	log, err := decode(b)
	if err != nil {
		return MetaLog{}, false, err
	}
	return log, true, nil
}

// Save overwrites the file atomically via a temporary file.
func (s *FileStore) Save(_ context.Context, log MetaLog) error {
	b, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("conversation: marshal log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("conversation: create log dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("conversation: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("conversation: atomic rename %s: %w", s.path, err)
	}
	return nil
}

// RedisStore keeps the log as a single JSON value under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ LogStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "memex:conversation:meta_log"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (MetaLog, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return MetaLog{}, false, nil
	}
	if err != nil {
		return MetaLog{}, false, fmt.Errorf("conversation: redis get %s: %w", s.key, err)
	}
	log, err := decode(b)
	if err != nil {
		return MetaLog{}, false, err
	}
	return log, true, nil
}

func (s *RedisStore) Save(ctx context.Context, log MetaLog) error {
	b, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("conversation: marshal log: %w", err)
	}
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("conversation: redis set %s: %w", s.key, err)
	}
	return nil
}

func decode(b []byte) (MetaLog, error) {
	var log MetaLog
	if err := json.Unmarshal(b, &log); err != nil {
		return MetaLog{}, fmt.Errorf("%w: %v", ErrCorruptLog, err)
	}
	return log, nil
}
