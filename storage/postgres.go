package storage

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking-server/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps both tables in one database so the decrements and the
// booking insert share a single SQL transaction. Each decrement is a
// compare-and-swap: UPDATE ... WHERE <col> = <expected>, zero rows affected
// meaning the condition failed.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetAvailability(ctx context.Context, date string) (*models.AvailabilityRecord, error) {
	var row models.RoomAvailability
	err := s.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading availability for %s: %w", date, err)
	}
	return row.Record(), nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (s *PostgresStore) PutAvailability(ctx context.Context, record models.AvailabilityRecord) error {
	row := models.NewRoomAvailability(record)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"sea_view", "garden_view", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing availability for %s: %w", record.Date, err)
	}
	return nil
}

func (s *PostgresStore) TransactWrite(ctx context.Context, items []TransactItem) error {
	if err := validateItems(items); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reasons := make([]CancellationReason, len(items))
		failed := false
		for i, item := range items {
			ok, err := applyItem(tx, item)
			if err != nil {
				return fmt.Errorf("transaction item %d: %w", i, err)
			}
			reasons[i] = ReasonNone
			if !ok {
				reasons[i] = ReasonConditionalCheckFailed
				failed = true
			}
		}
		if failed {
			// returning an error rolls back every item already applied
			return &TransactionCanceledError{Reasons: reasons}
		}
		return nil
	})
}

func applyItem(tx *gorm.DB, item TransactItem) (bool, error) {
	if u := item.Update; u != nil {
		col := u.RoomType.Column()
		res := tx.Model(&models.RoomAvailability{}).
			Where("date = ? AND "+col+" = ?", u.Date, u.Expected).
			Update(col, u.Value)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected == 1, nil
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(item.Put.Booking)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
