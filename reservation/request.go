package reservation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"hotel-booking-server/models"

	"github.com/go-playground/validator/v10"
)

// MaxNights keeps one booking, its nightly decrements plus the booking
// insert, inside storage.MaxTransactItems.
const MaxNights = 24

const dateLayout = "2006-01-02"

// FlexString accepts a JSON string or a bare JSON number, keeping the text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// Request is a stay request exactly as the caller sent it.
type Request struct {
	GuestName      string     `json:"guestName" validate:"required"`
	CheckInDate    string     `json:"checkInDate" validate:"required"`
	NumberOfNights FlexString `json:"numberofNights" validate:"required"`
	RoomType       string     `json:"roomType" validate:"required"`
}

type normalizedRequest struct {
	GuestName   string
	CheckInDate string
	Nights      int
	RoomType    models.RoomType
	StayDates   []string
}

var validate = validator.New()

func missingFields() *ValidationError {
	return &ValidationError{
		Code: "missing_fields",
		Msg:  "Missing guestName, checkInDate, numberofNights or roomType",
	}
}

func normalize(req Request) (*normalizedRequest, error) {
	req.GuestName = strings.TrimSpace(req.GuestName)
	req.CheckInDate = strings.TrimSpace(req.CheckInDate)
	req.NumberOfNights = FlexString(strings.TrimSpace(string(req.NumberOfNights)))
	req.RoomType = strings.TrimSpace(req.RoomType)

	if err := validate.Struct(req); err != nil {
		verr := missingFields()
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			verr.Field = fieldErrs[0].Field()
		}
		return nil, verr
	}

	nights, err := strconv.Atoi(string(req.NumberOfNights))
	if err != nil || nights <= 0 {
		return nil, &ValidationError{
			Field: "NumberOfNights",
			Code:  "invalid_nights",
			Msg:   "numberofNights must be a positive integer",
		}
	}
	if nights > MaxNights {
		return nil, &ValidationError{
			Field: "NumberOfNights",
			Code:  "too_many_nights",
			Msg:   ErrTooManyNights.Error(),
			Err:   ErrTooManyNights,
		}
	}

	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		return nil, &ValidationError{
			Field: "CheckInDate",
			Code:  "invalid_check_in_date",
			Msg:   "checkInDate must be YYYY-MM-DD",
		}
	}

	roomType, ok := models.ParseRoomType(req.RoomType)
	if !ok {
		return nil, &ValidationError{
			Field: "RoomType",
			Code:  "invalid_room_type",
			Msg:   "roomType must be 'seaView' or 'gardenView'",
		}
	}

	return &normalizedRequest{
		GuestName:   req.GuestName,
		CheckInDate: checkIn.Format(dateLayout),
		Nights:      nights,
		RoomType:    roomType,
		StayDates:   StayDates(checkIn, nights),
	}, nil
}

// StayDates returns the nights consecutive dates starting at checkIn.
func StayDates(checkIn time.Time, nights int) []string {
	dates := make([]string, nights)
	for i := range dates {
		dates[i] = checkIn.AddDate(0, 0, i).Format(dateLayout)
	}
	return dates
}

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
