package routes

import (
	"hotel-booking-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/recover"
)

type AppOptions struct {
	// Verifier guards the booking and agent routes when set.
	Verifier     *utils.Verifier
	RateLimiter  *utils.RateLimiter
	AdminKeyHash string
}

func NewApp(h *Handler, opts AppOptions) *iris.Application {
	app := iris.New()
	app.Validator = validator.New()
	app.Use(recover.New())

	var guest []iris.Handler
	if opts.RateLimiter != nil {
		guest = append(guest, opts.RateLimiter.Handler())
	}
	if opts.Verifier != nil {
		guest = append(guest, utils.TokenMiddleware(opts.Verifier))
	}

	api := app.Party("/", guest...)
	{
		api.Post("/bookHotelRoom", BookHotelRoom(h))
		api.Get("/bookings/{id}", GetBooking(h))
		api.Get("/getRoomInventory/{date}", GetRoomInventory(h))
		api.Post("/agent/actions", AgentAction(h))
	}

	admin := app.Party("/admin", utils.AdminKeyMiddleware(opts.AdminKeyHash))
	{
		admin.Put("/inventory/{date}", PutRoomInventory(h))
		admin.Post("/notifications/test", TestBookingNotification(h))
	}

	return app
}
