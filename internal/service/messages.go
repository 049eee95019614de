package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/notify"
)

const (
	kindCreated  = "booking.created"
	kindCanceled = "booking.canceled"
)

func bookingDetails(b model.Booking, label string) [][2]string {
	return [][2]string{
		{"Booking", fmt.Sprintf("#%d", b.ID)},
		{"Date", b.Date},
		{"Time", label},
		{"Name", b.Name},
		{"Phone", b.Phone},
		{"Email", b.Email},
		{"Address", b.Address},
		{"Notes", b.Notes},
	}
}

func render(intro string, rows [][2]string) (text, htmlBody string) {
	var t, h strings.Builder
	t.WriteString(intro + "\n\n")
	h.WriteString("<p>" + html.EscapeString(intro) + "</p><table>")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&t, "%s: %s\n", r[0], r[1])
		fmt.Fprintf(&h, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", html.EscapeString(r[0]), html.EscapeString(r[1]))
	}
	h.WriteString("</table>")
	return t.String(), h.String()
}

func newBookingMessage(owner string, b model.Booking, label string) notify.Message {
	text, body := render("A new booking was made.", bookingDetails(b, label))
	return notify.Message{
		To:        owner,
		Subject:   fmt.Sprintf("New booking: %s, %s", b.Date, label),
		Text:      text,
		HTML:      body,
		BookingID: b.ID,
		Kind:      kindCreated,
	}
}

func canceledOwnerMessage(owner string, b model.Booking, label string) notify.Message {
	text, body := render("A booking was canceled.", bookingDetails(b, label))
	return notify.Message{
		To:        owner,
		Subject:   fmt.Sprintf("Booking canceled: %s, %s", b.Date, label),
		Text:      text,
		HTML:      body,
		BookingID: b.ID,
		Kind:      kindCanceled,
	}
}

func canceledCustomerMessage(b model.Booking, label string) notify.Message {
	greeting := "Hello,"
	if b.Name != "" {
		greeting = "Hello " + b.Name + ","
	}
	intro := greeting + " your appointment on " + b.Date + " (" + label + ") has been canceled."
	text, body := render(intro, [][2]string{{"Booking", fmt.Sprintf("#%d", b.ID)}})
	return notify.Message{
		To:        b.Email,
		Subject:   "Your appointment was canceled",
		Text:      text,
		HTML:      body,
		BookingID: b.ID,
		Kind:      kindCanceled,
	}
}
