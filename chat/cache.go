package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	historyCacheTTL     = 30 * time.Second
	historyCacheTimeout = 300 * time.Millisecond
)

// historyCache keeps a user's recent chat history in Redis so the feed
// endpoint and the companion prompt do not hit the database on every
// message.
type historyCache struct {
	client *redis.Client
}

func newHistoryCache(client *redis.Client) *historyCache {
	if client == nil {
		return nil
	}
	return &historyCache{client: client}
}

func (h *historyCache) cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), historyCacheTimeout)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= historyCacheTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, historyCacheTimeout)
}

func (h *historyCache) key(userID uint) string {
	if h == nil || h.client == nil || userID == 0 {
		return ""
	}
	return fmt.Sprintf("chat:recent:%d", userID)
}

func (h *historyCache) get(ctx context.Context, userID uint) ([]Message, error) {
	if h == nil || h.client == nil {
		return nil, redis.Nil
	}
	key := h.key(userID)
	if key == "" {
		return nil, redis.Nil
	}

	ctx, cancel := h.cacheContext(ctx)
	defer cancel()

	data, err := h.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (h *historyCache) store(ctx context.Context, userID uint, messages []Message) {
	if h == nil || h.client == nil {
		return
	}
	key := h.key(userID)
	if key == "" {
		return
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		log.Printf("chat: marshal history cache payload failed: %v", err)
		return
	}

	ctx, cancel := h.cacheContext(ctx)
	defer cancel()

	if err := h.client.Set(ctx, key, payload, historyCacheTTL).Err(); err != nil {
		log.Printf("chat: store history cache failed: %v", err)
	}
}

func (h *historyCache) invalidate(ctx context.Context, userID uint) {
	if h == nil || h.client == nil {
		return
	}
	key := h.key(userID)
	if key == "" {
		return
	}

	ctx, cancel := h.cacheContext(ctx)
	defer cancel()

	if err := h.client.Del(ctx, key).Err(); err != nil {
		log.Printf("chat: invalidate history cache failed: %v", err)
	}
}
