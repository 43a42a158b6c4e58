// internal/scheduler/reminders.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/email"
	"github.com/estrellaangel/VolleyTech/internal/events"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

const (
	eventAlertJobName     = "event_alerts"
	defaultAlertWindow    = 15 * time.Minute
	eventAlertRunDeadline = 2 * time.Minute
)

// EventSource lists every team event.
type EventSource interface {
	All() []events.TeamEvent
}

// Audience resolves who hears about a team's events.
type Audience interface {
	Team(id string) (roster.Team, bool)
	TeamAudience(teamID string) []roster.User
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// EventAlerts emails event alerts as their fire times pass. Each run covers
// the window since the previous run, so an alert fires once per process.
type EventAlerts struct {
	events   EventSource
	audience Audience
	sender   email.EmailSender
	from     string
	clock    Clock

	mu      sync.Mutex
	lastRun time.Time
}

// NewEventAlerts prepares an alert runner. The first run looks back one
// window.
func NewEventAlerts(source EventSource, audience Audience, sender email.EmailSender, from string, window time.Duration, clock Clock) *EventAlerts {
	if clock == nil {
		clock = realClock{}
	}
	if window <= 0 {
		window = defaultAlertWindow
	}
	return &EventAlerts{
		events:   source,
		audience: audience,
		sender:   sender,
		from:     from,
		clock:    clock,
		lastRun:  clock.Now().Add(-window),
	}
}

// Run sends every alert that came due since the last run and returns how
// many emails went out.
func (a *EventAlerts) Run(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	from := a.lastRun
	a.lastRun = now

	due := events.DueAlerts(a.events.All(), from, now)
	if len(due) == 0 {
		return 0, nil
	}

	logger := log.Ctx(ctx)
	var errs []error
	sent := 0
	for _, d := range due {
		teamID := d.Event.TeamID()
		team, _ := a.audience.Team(teamID)

		var recipients []email.Recipient
		for _, u := range a.audience.TeamAudience(teamID) {
			recipients = append(recipients, email.Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName})
		}
		if len(recipients) == 0 {
			continue
		}

		n, err := email.SendEventAlert(ctx, a.sender, recipients, email.BuildEventAlert(d.Event, team.Name), a.from)
		sent += n
		if err != nil {
			errs = append(errs, fmt.Errorf("event %s alert %s: %w", d.Event.ID, d.Alert.ID, err))
			continue
		}
		logger.Info().
			Str("event_id", d.Event.ID).
			Str("alert_id", d.Alert.ID).
			Int("recipients", n).
			Msg("Event alert sent")
	}
	return sent, errors.Join(errs...)
}

// RegisterEventAlertJob schedules alerts on svc.
func RegisterEventAlertJob(svc *Service, alerts *EventAlerts, cronExpr string) error {
	if alerts == nil {
		return fmt.Errorf("event alert job requires an alert runner")
	}

	jobLogger := log.With().
		Str("component", "event_alerts_job").
		Str("job_name", eventAlertJobName).
		Str("cron", cronExpr).
		Logger()

	_, err := svc.AddJob(eventAlertJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventAlertRunDeadline)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if alerts.sender == nil {
			jobLogger.Debug().Msg("Event alert job skipped: email sender not configured")
			return
		}
		if _, err := alerts.Run(ctx); err != nil {
			jobLogger.Error().Err(err).Msg("Event alert run had failures")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add event alert job: %w", err)
	}

	jobLogger.Info().Msg("Event alert job registered")
	return nil
}
