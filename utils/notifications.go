package utils

import (
	"context"
	"fmt"
	"strings"

	"hotel-booking-server/reservation"

	"github.com/mailjet/mailjet-apiv3-go"
)

// Notifier tells hotel staff about committed bookings.
type Notifier interface {
	BookingConfirmed(ctx context.Context, conf *reservation.Confirmation) error
}

type NopNotifier struct{}

func (NopNotifier) BookingConfirmed(context.Context, *reservation.Confirmation) error { return nil }

type MailjetNotifier struct {
	client *mailjet.Client
	from   string
	to     string
}

func NewMailjetNotifier(apiKey, secretKey, from, to string) *MailjetNotifier {
	return &MailjetNotifier{
		client: mailjet.NewMailjetClient(apiKey, secretKey),
		from:   from,
		to:     to,
	}
}

func (n *MailjetNotifier) BookingConfirmed(ctx context.Context, conf *reservation.Confirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From: &mailjet.RecipientV31{Email: n.from, Name: "Reservations"},
		To: &mailjet.RecipientsV31{
			mailjet.RecipientV31{Email: n.to},
		},
		Subject:  BookingSubject(conf),
		TextPart: BookingSummary(conf),
	}}}
	if _, err := n.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("sending booking notification: %w", err)
	}
	return nil
}

func BookingSubject(conf *reservation.Confirmation) string {
	return fmt.Sprintf("New booking %s: %s, %d night(s) from %s", conf.BookingID, conf.GuestName, conf.NumberOfNights, conf.CheckInDate)
}

func BookingSummary(conf *reservation.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", conf.BookingID)
	fmt.Fprintf(&b, "Guest: %s\n", conf.GuestName)
	fmt.Fprintf(&b, "Room type: %s\n", conf.RoomType)
	fmt.Fprintf(&b, "Nights: %s\n", strings.Join(conf.ReservedDates, ", "))
	return b.String()
}
