package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

// RecordCache caches a user's record lists per type. Duplicate detection
// reads these lists on every extraction, so the TTL is kept short and every
// record mutation invalidates the affected key.
type RecordCache struct {
	client *Client
	ttl    time.Duration
}

func NewRecordCache(client *Client, ttl time.Duration) *RecordCache {
	return &RecordCache{
		client: client,
		ttl:    ttl,
	}
}

func recordKey(userID string, recordType models.RecordType) string {
	return fmt.Sprintf("records:%s:%s", userID, recordType)
}

// GetRecords returns the cached list; the second return is false on a miss
func (c *RecordCache) GetRecords(ctx context.Context, userID string, recordType models.RecordType) ([]models.Record, bool, error) {
	raw, ok, err := c.client.Get(ctx, recordKey(userID, recordType))
	if err != nil || !ok {
		return nil, false, err
	}

	var records []models.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		// treat a corrupt entry as a miss and drop it
		_ = c.client.Delete(ctx, recordKey(userID, recordType))
		return nil, false, nil
	}
	return records, true, nil
}

func (c *RecordCache) SetRecords(ctx context.Context, userID string, recordType models.RecordType, records []models.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode record list: %w", err)
	}
	return c.client.Set(ctx, recordKey(userID, recordType), string(payload), c.ttl)
}

func (c *RecordCache) Invalidate(ctx context.Context, userID string, recordType models.RecordType) error {
	return c.client.Delete(ctx, recordKey(userID, recordType))
}
