package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbeoliero/xchange/pkg/constant"
)

// TokenStore persists the single session token between runs
type TokenStore interface {
	// Load returns "" when no token is stored
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// MemoryTokenStore keeps the token for the life of the process
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context) error {
	return s.Save(context.Background(), "")
}

// FileTokenStore keeps the token in a 0600 file
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Fields of the session hash
const (
	fieldToken   = "token"
	fieldUserId  = "user_id"
	fieldSavedAt = "saved_at"
)

// RedisTokenStore keeps the token in a hash per client profile, expiring with the token itself
type RedisTokenStore struct {
	rdb     redis.UniversalClient
	profile string
}

// NewRedisTokenStore creates a store for one client profile
func NewRedisTokenStore(rdb redis.UniversalClient, profile string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, profile: profile}
}

// sessionKey format: {prefix}session:{profile}
func (s *RedisTokenStore) sessionKey() string {
	return fmt.Sprintf(constant.RedisKeySession(), s.profile)
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.rdb.HGet(ctx, s.sessionKey(), fieldToken).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	key := s.sessionKey()
	fields := map[string]interface{}{
		fieldToken:   token,
		fieldSavedAt: time.Now().Unix(),
	}
	var ttl time.Duration
	if claims, err := ParseClaims(token); err == nil {
		fields[fieldUserId] = claims.UserId
		ttl = claims.TTL(time.Now())
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}
