// File: services/concierge/history.go
package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/models"
	"bookline/utils"

	"github.com/go-redis/redis/v8"
)

const historyPrefix = "chat:"

// historyTTL expires idle conversations so the window does not outlive the
// contact's interest.
const historyTTL = 7 * 24 * time.Hour

// HistoryStore keeps the bounded per-(tenant, contact) conversation window
// in Redis: a list trimmed to the newest HistoryWindow turns.
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func historyKey(tenantID, identity string) string {
	return historyPrefix + tenantID + ":" + identity
}

// Load returns the stored window, oldest first.
func (s *HistoryStore) Load(ctx context.Context, tenantID, identity string) ([]models.ChatTurn, error) {
	raw, err := s.client.LRange(ctx, historyKey(tenantID, identity), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history load failed: %w", err)
	}
	turns := make([]models.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue // skip corrupt entries, the window heals itself
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append stores a turn pair and truncates the oldest entries beyond the
// window.
func (s *HistoryStore) Append(ctx context.Context, tenantID, identity string, turns ...models.ChatTurn) error {
	key := historyKey(tenantID, identity)
	pipe := s.client.TxPipeline()
	for _, turn := range turns {
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("history marshal failed: %w", err)
		}
		pipe.RPush(ctx, key, b)
	}
	pipe.LTrim(ctx, key, int64(-utils.HistoryWindow), -1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history append failed: %w", err)
	}
	return nil
}

// Clear drops the conversation window.
func (s *HistoryStore) Clear(ctx context.Context, tenantID, identity string) error {
	return s.client.Del(ctx, historyKey(tenantID, identity)).Err()
}
