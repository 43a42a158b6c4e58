package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/events"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingSender struct {
	mu         sync.Mutex
	recipients []string
	subjects   []string
}

func (s *recordingSender) Send(ctx context.Context, recipient, subject, body string) error {
	return s.SendFrom(ctx, recipient, subject, body, "")
}

func (s *recordingSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = append(s.recipients, recipient)
	s.subjects = append(s.subjects, subject)
	return nil
}

type staticEvents []events.TeamEvent

func (e staticEvents) All() []events.TeamEvent { return e }

func testAudience() *roster.Directory {
	return &roster.Directory{
		Teams: []roster.Team{{ID: "team_001", Name: "16U National"}},
		Users: []roster.User{
			{ID: "user_coach_001", Email: "coach@example.com"},
			{ID: "user_parent_001", Email: "parent@example.com"},
		},
		Memberships: []roster.Membership{
			{TeamID: "team_001", UserID: "user_coach_001", Role: roster.RoleCoach, IsActive: true},
		},
		GuardianLinks: []roster.GuardianLink{{ParentUserID: "user_parent_001", PlayerID: "p_001"}},
		Players:       []roster.Player{{ID: "p_001", TeamID: "team_001", FirstName: "Caroline", IsActive: true}},
	}
}

func TestEventAlertsRunSendsOncePerWindow(t *testing.T) {
	start := time.Date(2026, 1, 13, 17, 30, 0, 0, time.UTC)
	evs := staticEvents{{
		ID:         "evt_practice_001",
		Kind:       events.KindPractice,
		Title:      "Team Practice",
		StartAt:    start,
		Alerts:     []events.Alert{{ID: "al_1", MinutesBefore: 1440, Enabled: true}, {ID: "al_2", MinutesBefore: 90, Enabled: true}},
		Visibility: events.TeamVisibility{TeamID: "team_001"},
	}}

	clock := &stepClock{now: start.Add(-24*time.Hour + 5*time.Minute)}
	sender := &recordingSender{}
	alerts := NewEventAlerts(evs, testAudience(), sender, "alerts@example.com", 15*time.Minute, clock)

	sent, err := alerts.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sent != 2 {
		t.Fatalf("first run sent %d, want 2 (coach and guardian)", sent)
	}

	clock.Set(start.Add(-24*time.Hour + 20*time.Minute))
	if sent, _ := alerts.Run(context.Background()); sent != 0 {
		t.Fatalf("second run sent %d, want 0", sent)
	}

	clock.Set(start.Add(-80 * time.Minute))
	if sent, _ := alerts.Run(context.Background()); sent != 2 {
		t.Fatalf("run covering the 90 minute alert sent %d, want 2", sent)
	}

	if sender.subjects[0] != "Practice reminder: Team Practice" {
		t.Errorf("subject = %q", sender.subjects[0])
	}
}

func TestServiceAddJobValidation(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	if _, err := svc.AddJob("", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("empty name err = %v", err)
	}
	if _, err := svc.AddJob("job", " ", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("empty cron err = %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Fatal("expected invalid cron expression to fail")
	}
}

func TestRegisterEventAlertJob(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	alerts := NewEventAlerts(staticEvents{}, testAudience(), &recordingSender{}, "", 0, nil)
	if err := RegisterEventAlertJob(svc, alerts, "*/15 * * * *"); err != nil {
		t.Fatalf("RegisterEventAlertJob: %v", err)
	}
	if err := RegisterEventAlertJob(svc, nil, "*/15 * * * *"); err == nil {
		t.Fatal("expected nil runner to fail")
	}
	if err := RegisterEventAlertJob(svc, alerts, "*/5 * * * *"); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("second registration err = %v, want ErrDuplicateJob", err)
	}
	if got := svc.JobNames(); len(got) != 1 || got[0] != eventAlertJobName {
		t.Fatalf("JobNames() = %v, want [%s]", got, eventAlertJobName)
	}
}

func TestUninitializedSingleton(t *testing.T) {
	var svc *Service
	if err := svc.Stop(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Stop on nil service err = %v", err)
	}
	if _, err := svc.AddJob("job", "* * * * *", func() {}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("AddJob on nil service err = %v", err)
	}
}
