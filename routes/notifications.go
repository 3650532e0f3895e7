package routes

import (
	"hotel-booking-server/models"
	"hotel-booking-server/reservation"
	"hotel-booking-server/utils"

	"github.com/kataras/iris/v12"
)

func TestBookingNotification(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		conf := &reservation.Confirmation{
			BookingID:      "test-notification",
			GuestName:      "Test Guest",
			CheckInDate:    "2024-06-01",
			NumberOfNights: 1,
			RoomType:       models.SeaView,
			ReservedDates:  []string{"2024-06-01"},
		}

		if err := h.Notifier.BookingConfirmed(ctx.Request().Context(), conf); err != nil {
			h.Log.Error("test notification failed", "error", err)
			utils.CreateInternalServerError(ctx)
			return
		}

		ctx.JSON(iris.Map{
			"sent": true,
		})
	}
}
