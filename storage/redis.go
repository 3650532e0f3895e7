package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hotel-booking-server/models"

	"github.com/go-redis/redis/v8"
)

func InitializeRedis(addr, password string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func availabilityKey(date string) string { return "availability:" + date }

func bookingKey(id string) string { return "booking:" + id }

// RedisStore keeps availability in one hash per date and bookings as JSON
// strings. TransactWrite uses WATCH/MULTI: the conditions are checked against
// watched keys and the writes run in MULTI/EXEC, so a concurrent change to
// any watched key aborts the whole unit.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetAvailability(ctx context.Context, date string) (*models.AvailabilityRecord, error) {
	fields, err := s.client.HGetAll(ctx, availabilityKey(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading availability for %s: %w", date, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	rec := &models.AvailabilityRecord{Date: date, Counts: map[models.RoomType]string{}}
	for _, rt := range models.RoomTypes() {
		if v, ok := fields[string(rt)]; ok {
			rec.Counts[rt] = v
		}
	}
	return rec, nil
}

func (s *RedisStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	raw, err := s.client.Get(ctx, bookingKey(bookingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading booking %s: %w", bookingID, err)
	}
	var booking models.Booking
	if err := json.Unmarshal(raw, &booking); err != nil {
		return nil, fmt.Errorf("decoding booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (s *RedisStore) PutAvailability(ctx context.Context, record models.AvailabilityRecord) error {
	key := availabilityKey(record.Date)
	fields := make(map[string]interface{}, len(record.Counts))
	for rt, v := range record.Counts {
		fields[string(rt)] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing availability for %s: %w", record.Date, err)
	}
	return nil
}

func (s *RedisStore) TransactWrite(ctx context.Context, items []TransactItem) error {
	if err := validateItems(items); err != nil {
		return err
	}

	keys := make([]string, len(items))
	for i, item := range items {
		if item.Update != nil {
			keys[i] = availabilityKey(item.Update.Date)
		} else {
			keys[i] = bookingKey(item.Put.Booking.BookingID)
		}
	}

	payloads := make(map[int][]byte)
	for i, item := range items {
		if item.Put == nil {
			continue
		}
		raw, err := json.Marshal(item.Put.Booking)
		if err != nil {
			return fmt.Errorf("encoding booking: %w", err)
		}
		payloads[i] = raw
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		reasons := make([]CancellationReason, len(items))
		failed := false
		for i, item := range items {
			ok, err := checkCondition(ctx, tx, keys[i], item)
			if err != nil {
				return err
			}
			reasons[i] = ReasonNone
			if !ok {
				reasons[i] = ReasonConditionalCheckFailed
				failed = true
			}
		}
		if failed {
			return &TransactionCanceledError{Reasons: reasons}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, item := range items {
				if u := item.Update; u != nil {
					pipe.HSet(ctx, keys[i], string(u.RoomType), u.Value)
					continue
				}
				pipe.Set(ctx, keys[i], payloads[i], 0)
			}
			return nil
		})
		return err
	}, keys...)

	if errors.Is(err, redis.TxFailedErr) {
		return canceled(len(items), ReasonTransactionConflict)
	}
	if err != nil && !IsConditionFailure(err) {
		return fmt.Errorf("redis transaction: %w", err)
	}
	return err
}

func checkCondition(ctx context.Context, tx *redis.Tx, key string, item TransactItem) (bool, error) {
	if u := item.Update; u != nil {
		current, err := tx.HGet(ctx, key, string(u.RoomType)).Result()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return current == u.Expected, nil
	}

	n, err := tx.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
