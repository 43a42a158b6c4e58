// internal/email/alert.go
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/events"
)

const alertEmailTimeout = 5 * time.Second

type Message struct {
	Subject string
	Body    string
}

// FormatDateTimeRange renders an event's date and time range in loc. A nil
// end yields a start time only.
func FormatDateTimeRange(start time.Time, end *time.Time, loc *time.Location) (string, string) {
	start = start.In(loc)
	date := start.Format("Monday, Jan 2, 2006")
	if end == nil {
		return date, fmt.Sprintf("%s %s", start.Format("3:04 PM"), start.Format("MST"))
	}
	return date, fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.In(loc).Format("3:04 PM"), start.Format("MST"))
}

// eventLocation resolves the event's IANA zone, falling back to the zone the
// start time was written in.
func eventLocation(ev events.TeamEvent) *time.Location {
	if ev.Timezone != "" {
		if loc, err := time.LoadLocation(ev.Timezone); err == nil {
			return loc
		}
	}
	return ev.StartAt.Location()
}

// BuildEventAlert renders the reminder for one team event.
func BuildEventAlert(ev events.TeamEvent, teamName string) Message {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		teamName = "your team"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reminder from %s.\n\n", teamName)
	fmt.Fprintf(&b, "%s: %s\n", ev.Kind.Label(), ev.Title)
	if ev.AllDay {
		fmt.Fprintf(&b, "Date: %s (all day)\n", ev.StartAt.In(eventLocation(ev)).Format("Monday, Jan 2, 2006"))
	} else {
		date, timeRange := FormatDateTimeRange(ev.StartAt, ev.EndAt, eventLocation(ev))
		fmt.Fprintf(&b, "Date: %s\n", date)
		fmt.Fprintf(&b, "Time: %s\n", timeRange)
	}
	if loc := ev.Location; loc != nil {
		switch {
		case loc.Name != "" && loc.Address != "":
			fmt.Fprintf(&b, "Location: %s, %s\n", loc.Name, loc.Address)
		case loc.Name != "":
			fmt.Fprintf(&b, "Location: %s\n", loc.Name)
		case loc.Address != "":
			fmt.Fprintf(&b, "Location: %s\n", loc.Address)
		}
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}

	return Message{
		Subject: fmt.Sprintf("%s reminder: %s", ev.Kind.Label(), ev.Title),
		Body:    b.String(),
	}
}

// SendEventAlert sends msg to each recipient in turn. Recipients without an
// address are skipped. Every failure is returned, joined.
func SendEventAlert(ctx context.Context, sender EmailSender, recipients []Recipient, msg Message, from string) (int, error) {
	if sender == nil {
		return 0, fmt.Errorf("email sender is not configured")
	}
	if msg.Subject == "" || msg.Body == "" {
		return 0, fmt.Errorf("alert message is empty")
	}

	var errs []error
	sent := 0
	for _, r := range recipients {
		address := strings.TrimSpace(r.Email)
		if address == "" {
			continue
		}

		sendCtx, cancel := newEmailContext(ctx, alertEmailTimeout)
		err := sender.SendFrom(sendCtx, address, msg.Subject, msg.Body, from)
		cancel()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("user_id", r.UserID).Msg("Failed to send event alert email")
			errs = append(errs, fmt.Errorf("send to %s: %w", r.UserID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
