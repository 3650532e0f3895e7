package models

import "strings"

type RoomType string

const (
	SeaView    RoomType = "seaView"
	GardenView RoomType = "gardenView"
)

// RoomTypes lists the canonical categories in the order responses report them.
func RoomTypes() []RoomType {
	return []RoomType{SeaView, GardenView}
}

var roomTypeAliases = map[string]RoomType{
	"seaview":        SeaView,
	"sea":            SeaView,
	"seaviewroom":    SeaView,
	"gardenview":     GardenView,
	"garden":         GardenView,
	"gardenviewroom": GardenView,
}

// ParseRoomType normalizes free-form input ("Sea View", "sea_view", "SEAVIEW")
// to a canonical category. Matching ignores case, spaces and underscores.
func ParseRoomType(raw string) (RoomType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "", " ", "").Replace(s)
	if s == "" {
		return "", false
	}
	rt, ok := roomTypeAliases[s]
	return rt, ok
}

func (rt RoomType) Valid() bool {
	return rt == SeaView || rt == GardenView
}

// Column is the availability table column holding counts for rt.
func (rt RoomType) Column() string {
	switch rt {
	case SeaView:
		return "sea_view"
	case GardenView:
		return "garden_view"
	}
	return ""
}
