package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

// NewRedisClient はRedis接続を確立し、PINGで疎通確認する。
func NewRedisClient(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisStateRepo はRedisを使用したセッション状態リポジトリ。
// 固定キー配下にJSONレコードを保存する。TTLは設定しない
// （セッションの有効性判定はトークン側の有効期限で行われる）。
type RedisStateRepo struct {
	client *redis.Client
}

// NewRedisStateRepo はRedisStateRepoを生成する。
func NewRedisStateRepo(client *redis.Client) *RedisStateRepo {
	return &RedisStateRepo{client: client}
}

// Save はセッション状態全体を書き込む。既存レコードは上書きされる。
func (r *RedisStateRepo) Save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	if err := r.client.Set(ctx, StorageKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// Load は保存済みのセッション状態を読み戻す。キーが存在しない場合は(nil, nil)を返す。
func (r *RedisStateRepo) Load(ctx context.Context) (*model.Session, error) {
	data, err := r.client.Get(ctx, StorageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	sess := &model.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return sess, nil
}

// Clear は保存済みレコードを削除する。キーが存在しなくてもエラーにしない。
func (r *RedisStateRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, StorageKey).Err(); err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionStateRepository = (*RedisStateRepo)(nil)
