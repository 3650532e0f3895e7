package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Booking is written once, in the same transaction as the inventory
// decrements for every one of its nights, and never updated afterwards.
type Booking struct {
	BookingID      string         `json:"bookingId" gorm:"primaryKey;size:64"`
	GuestName      string         `json:"guestName"`
	CheckInDate    string         `json:"checkInDate" gorm:"size:10;index"`
	NumberOfNights int            `json:"numberofNights"`
	RoomType       RoomType       `json:"roomType" gorm:"size:16"`
	StayDates      datatypes.JSON `json:"stayDates"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func NewBooking(id, guestName, checkInDate string, roomType RoomType, stayDates []string) (*Booking, error) {
	dates, err := json.Marshal(stayDates)
	if err != nil {
		return nil, err
	}
	return &Booking{
		BookingID:      id,
		GuestName:      guestName,
		CheckInDate:    checkInDate,
		NumberOfNights: len(stayDates),
		RoomType:       roomType,
		StayDates:      datatypes.JSON(dates),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (b *Booking) Dates() ([]string, error) {
	var dates []string
	if len(b.StayDates) == 0 {
		return dates, nil
	}
	err := json.Unmarshal(b.StayDates, &dates)
	return dates, err
}
