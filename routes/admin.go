package routes

import (
	"net/http"
	"strconv"

	"hotel-booking-server/models"
	"hotel-booking-server/reservation"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

var validate = validator.New()

type InventoryInput struct {
	SeaView    *int `json:"seaView" validate:"omitempty,min=0"`
	GardenView *int `json:"gardenView" validate:"omitempty,min=0"`
}

// PutRoomInventory provisions or replaces the counts for one date.
func PutRoomInventory(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		date := ctx.Params().Get("date")
		if !reservation.ValidDate(date) {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "invalid date format, expected YYYY-MM-DD"})
			return
		}

		var input InventoryInput
		err := ctx.ReadJSON(&input)
		if err == nil {
			err = validate.Struct(input)
		}
		if err != nil {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "counts must be non-negative integers", "details": err.Error()})
			return
		}
		if input.SeaView == nil && input.GardenView == nil {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "at least one of seaView or gardenView is required"})
			return
		}

		rec := models.AvailabilityRecord{Date: date, Counts: map[models.RoomType]string{}}
		if input.SeaView != nil {
			rec.Counts[models.SeaView] = strconv.Itoa(*input.SeaView)
		}
		if input.GardenView != nil {
			rec.Counts[models.GardenView] = strconv.Itoa(*input.GardenView)
		}

		if err := h.Store.PutAvailability(ctx.Request().Context(), rec); err != nil {
			h.Log.Error("provisioning availability failed", "date", date, "error", err)
			ctx.StatusCode(http.StatusInternalServerError)
			ctx.JSON(iris.Map{"error": "Failed to save availability"})
			return
		}

		h.Log.Info("availability provisioned", "date", date)
		ctx.JSON(iris.Map{"success": true, "date": date, "counts": rec.Counts})
	}
}
