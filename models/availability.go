package models

import "time"

// AvailabilityRecord is the nightly inventory for one calendar date. Counts
// hold the stored string encoding verbatim; a category without an entry is
// not configured for that date.
type AvailabilityRecord struct {
	Date   string              `json:"date"`
	Counts map[RoomType]string `json:"counts"`
}

func (r *AvailabilityRecord) Count(rt RoomType) (string, bool) {
	if r == nil || r.Counts == nil {
		return "", false
	}
	v, ok := r.Counts[rt]
	return v, ok
}

type RoomAvailability struct {
	Date       string    `json:"date" gorm:"primaryKey;size:10"`
	SeaView    *string   `json:"seaView" gorm:"column:sea_view"`
	GardenView *string   `json:"gardenView" gorm:"column:garden_view"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (RoomAvailability) TableName() string {
	return "room_availabilities"
}

func (ra RoomAvailability) Record() *AvailabilityRecord {
	rec := &AvailabilityRecord{Date: ra.Date, Counts: map[RoomType]string{}}
	if ra.SeaView != nil {
		rec.Counts[SeaView] = *ra.SeaView
	}
	if ra.GardenView != nil {
		rec.Counts[GardenView] = *ra.GardenView
	}
	return rec
}

func NewRoomAvailability(rec AvailabilityRecord) RoomAvailability {
	ra := RoomAvailability{Date: rec.Date}
	if v, ok := rec.Counts[SeaView]; ok {
		ra.SeaView = &v
	}
	if v, ok := rec.Counts[GardenView]; ok {
		ra.GardenView = &v
	}
	return ra
}
