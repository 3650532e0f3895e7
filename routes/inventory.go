package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"hotel-booking-server/models"
	"hotel-booking-server/reservation"
	"hotel-booking-server/storage"

	"github.com/kataras/iris/v12"
)

func GetRoomInventory(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		status, payload := h.inventory(ctx.Request().Context(), ctx.Params().Get("date"))
		ctx.StatusCode(status)
		ctx.JSON(payload)
	}
}

func (h *Handler) inventory(ctx context.Context, date string) (int, any) {
	if date == "" {
		return http.StatusBadRequest, iris.Map{"error": "date path parameter is required"}
	}
	if !reservation.ValidDate(date) {
		return http.StatusBadRequest, iris.Map{"error": "invalid date format, expected YYYY-MM-DD"}
	}

	rec, err := h.Engine.Availability(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, iris.Map{"message": "No availability found for the requested date", "date": date}
	}
	if err != nil {
		h.Log.Error("availability lookup failed", "date", date, "error", err)
		var fault *reservation.BackendFault
		timeout := errors.As(err, &fault) && fault.Timeout
		return http.StatusInternalServerError, iris.Map{"error": "availability lookup failed", "details": err.Error(), "timeout": timeout}
	}

	garden := coerceCount(rec, models.GardenView)
	sea := coerceCount(rec, models.SeaView)

	var total any
	if g, ok := garden.(int); ok {
		if s, ok := sea.(int); ok {
			total = g + s
		}
	}

	return http.StatusOK, iris.Map{
		"date":                date,
		"gardenViewInventory": garden,
		"seaViewInventory":    sea,
		"summary":             iris.Map{"totalAvailable": total},
	}
}

// coerceCount reports an unconfigured category as 0 and an unparsable one
// verbatim.
func coerceCount(rec *models.AvailabilityRecord, rt models.RoomType) any {
	raw, ok := rec.Count(rt)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	return n
}
