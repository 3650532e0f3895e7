// routes/reservation.go
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hotel-booking-server/reservation"
	"hotel-booking-server/storage"
	"hotel-booking-server/utils"

	"github.com/kataras/iris/v12"
)

const notifyTimeout = 10 * time.Second

type Handler struct {
	Engine   *reservation.Engine
	Store    storage.Store
	Notifier utils.Notifier
	Log      *slog.Logger
	// Retry re-runs bookings that lost a concurrency race; MaxAttempts <= 1
	// disables it.
	Retry reservation.RetryPolicy
}

func BookHotelRoom(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		body, err := ctx.GetBody()
		if err != nil {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "Invalid request payload"})
			return
		}
		req, err := decodeBookingRequest(body)
		if err != nil {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "Invalid request payload"})
			return
		}

		status, payload := h.book(ctx.Request().Context(), req)
		ctx.StatusCode(status)
		ctx.JSON(payload)
	}
}

func GetBooking(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		id := ctx.Params().Get("id")
		if id == "" {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "Invalid booking ID"})
			return
		}

		booking, err := h.Engine.Lookup(ctx.Request().Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				ctx.StatusCode(http.StatusNotFound)
				ctx.JSON(iris.Map{"error": "Booking not found"})
			} else {
				h.Log.Error("booking lookup failed", "bookingId", id, "error", err)
				ctx.StatusCode(http.StatusInternalServerError)
				ctx.JSON(iris.Map{"error": "Failed to retrieve booking"})
			}
			return
		}

		ctx.JSON(booking)
	}
}

func (h *Handler) book(ctx context.Context, req reservation.Request) (int, any) {
	var (
		conf *reservation.Confirmation
		err  error
	)
	if h.Retry.MaxAttempts > 1 {
		conf, err = h.Engine.BookWithRetry(ctx, req, h.Retry)
	} else {
		conf, err = h.Engine.Book(ctx, req)
	}
	if err != nil {
		status, body := reservation.Classify(err)
		return status.HTTP(), body
	}

	go h.notify(conf)
	return http.StatusOK, conf
}

func (h *Handler) notify(conf *reservation.Confirmation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := h.Notifier.BookingConfirmed(ctx, conf); err != nil {
		h.Log.Warn("booking notification failed", "bookingId", conf.BookingID, "error", err)
	}
}

type property struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// decodeBookingRequest accepts a plain JSON object or the
// {"properties": [{"name": ..., "value": ...}]} form some agent UIs send.
func decodeBookingRequest(body []byte) (reservation.Request, error) {
	var req reservation.Request

	var wrapped struct {
		Properties []property `json:"properties"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return req, err
	}
	if wrapped.Properties == nil {
		err := json.Unmarshal(body, &req)
		return req, err
	}

	flat := make(map[string]json.RawMessage, len(wrapped.Properties))
	for _, p := range wrapped.Properties {
		flat[p.Name] = p.Value
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return req, err
	}
	err = json.Unmarshal(raw, &req)
	return req, err
}
