package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/events"
)

type sentMail struct {
	recipient string
	subject   string
	sender    string
	ctxErr    error
}

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]error
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendFrom(ctx, recipient, subject, body, "")
}

func (f *fakeEmailSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTo[recipient]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMail{recipient: recipient, subject: subject, sender: sender, ctxErr: ctx.Err()})
	return nil
}

func gameEvent() events.TeamEvent {
	mst := time.FixedZone("MST", -7*60*60)
	end := time.Date(2026, 1, 16, 20, 0, 0, 0, mst)
	return events.TeamEvent{
		ID:          "evt_game_001",
		Kind:        events.KindGames,
		Title:       "Match vs Desert Ridge",
		Description: "Arrive early for warmups. Wear black jersey.",
		Location:    &events.Location{Name: "Desert Ridge HS", Address: "9999 E Sample Ave, Mesa, AZ 85212"},
		StartAt:     time.Date(2026, 1, 16, 18, 30, 0, 0, mst),
		EndAt:       &end,
		Visibility:  events.TeamVisibility{TeamID: "team_001"},
	}
}

func TestBuildEventAlert(t *testing.T) {
	msg := BuildEventAlert(gameEvent(), "16U National")

	if msg.Subject != "Game reminder: Match vs Desert Ridge" {
		t.Fatalf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"Reminder from 16U National.",
		"Date: Friday, Jan 16, 2026",
		"Time: 6:30 PM - 8:00 PM MST",
		"Location: Desert Ridge HS, 9999 E Sample Ave, Mesa, AZ 85212",
		"Wear black jersey.",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestBuildEventAlertDefaults(t *testing.T) {
	ev := gameEvent()
	ev.AllDay = true
	ev.Location = nil
	ev.Kind = events.KindMeeting

	msg := BuildEventAlert(ev, "")
	if !strings.Contains(msg.Body, "Reminder from your team.") || !strings.Contains(msg.Body, "(all day)") {
		t.Fatalf("Body = %q", msg.Body)
	}
	if strings.Contains(msg.Body, "Location:") {
		t.Fatalf("Body should omit location: %q", msg.Body)
	}
}

func TestSendEventAlert(t *testing.T) {
	boom := errors.New("throttled")
	sender := &fakeEmailSender{failTo: map[string]error{"bad@example.com": boom}}
	recipients := []Recipient{
		{UserID: "user_coach_001", Email: "coach@example.com"},
		{UserID: "user_nomail"},
		{UserID: "user_bad", Email: "bad@example.com"},
		{UserID: "user_parent_001", Email: " parent@example.com "},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent, err := SendEventAlert(ctx, sender, recipients, Message{Subject: "s", Body: "b"}, "alerts@example.com")
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped send failure", err)
	}
	for _, m := range sender.sent {
		if m.ctxErr != nil {
			t.Errorf("send to %s saw canceled context: %v", m.recipient, m.ctxErr)
		}
		if m.sender != "alerts@example.com" {
			t.Errorf("sender = %q", m.sender)
		}
	}
	if sender.sent[1].recipient != "parent@example.com" {
		t.Errorf("recipient not trimmed: %q", sender.sent[1].recipient)
	}
}

func TestSendEventAlertRejectsEmptyMessage(t *testing.T) {
	if _, err := SendEventAlert(context.Background(), &fakeEmailSender{}, nil, Message{}, ""); err == nil {
		t.Fatal("expected error for empty message")
	}
	if _, err := SendEventAlert(context.Background(), nil, nil, Message{Subject: "s", Body: "b"}, ""); err == nil {
		t.Fatal("expected error for nil sender")
	}
}
