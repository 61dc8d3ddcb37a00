package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"taller-service/internal/domain/fleet"
	"taller-service/internal/notify"
)

type fakeAlertRepo struct {
	statuses    []fleet.LegalStatus
	statusesErr error
	tokens      []string
	tokensErr   error

	mu      sync.Mutex
	dedup   map[fleet.AlertCandidate]bool
	inserts int
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{dedup: make(map[fleet.AlertCandidate]bool)}
}

func (f *fakeAlertRepo) ListLegalStatuses(ctx context.Context) ([]fleet.LegalStatus, error) {
	return f.statuses, f.statusesErr
}

func (f *fakeAlertRepo) FindNotificationLogs(ctx context.Context, expiryDates []string) ([]fleet.AlertCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dateSet := make(map[string]bool, len(expiryDates))
	for _, d := range expiryDates {
		dateSet[d] = true
	}
	var entries []fleet.AlertCandidate
	for c := range f.dedup {
		if dateSet[c.ExpiryDate] {
			entries = append(entries, c)
		}
	}
	return entries, nil
}

func (f *fakeAlertRepo) CreateNotificationLog(ctx context.Context, candidate fleet.AlertCandidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dedup[candidate] = true
	f.inserts++
	return nil
}

func (f *fakeAlertRepo) ListDeviceTokens(ctx context.Context) ([]string, error) {
	return f.tokens, f.tokensErr
}

type fakeSender struct {
	mu    sync.Mutex
	sends []sentMessage
	err   error
}

type sentMessage struct {
	token string
	msg   notify.Message
}

func (f *fakeSender) Send(ctx context.Context, token string, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMessage{token: token, msg: msg})
	return f.err
}

func strPtr(s string) *string { return &s }

func newTestAlertService(repo *fakeAlertRepo, sender *fakeSender, today time.Time) *AlertService {
	svc := NewAlertService(repo, sender, zerolog.Nop(), 7)
	return svc.WithClock(func() time.Time { return today })
}

func TestAlertScanSendsAndLogsOnce(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)
	expiry := "08/04/2026" // today + 7

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr(expiry)},
	}
	repo.tokens = []string{"tok1"}
	sender := &fakeSender{}

	summary, err := newTestAlertService(repo, sender, today).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(sender.sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sends))
	}
	send := sender.sends[0]
	if send.token != "tok1" {
		t.Errorf("sent to %q, want tok1", send.token)
	}
	if send.msg.Data["type"] != "ITV" || send.msg.Data["plate"] != "1234ABC" {
		t.Errorf("unexpected message data: %v", send.msg.Data)
	}

	if repo.inserts != 1 {
		t.Errorf("expected 1 dedup row, got %d", repo.inserts)
	}
	want := fleet.AlertCandidate{Plate: "1234ABC", Type: fleet.AlertITV, ExpiryDate: expiry}
	if !repo.dedup[want] {
		t.Errorf("dedup log missing %+v", want)
	}
	if len(summary.Sent) != 1 || summary.Sent[0] != want {
		t.Errorf("summary.Sent = %+v, want [%+v]", summary.Sent, want)
	}
}

func TestAlertScanSkipsAlreadySent(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)
	expiry := "08/04/2026"

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr(expiry)},
	}
	repo.tokens = []string{"tok1"}
	repo.dedup[fleet.AlertCandidate{Plate: "1234ABC", Type: fleet.AlertITV, ExpiryDate: expiry}] = true
	sender := &fakeSender{}

	summary, err := newTestAlertService(repo, sender, today).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(sender.sends) != 0 {
		t.Errorf("expected 0 sends, got %d", len(sender.sends))
	}
	if repo.inserts != 0 {
		t.Errorf("expected 0 new dedup rows, got %d", repo.inserts)
	}
	if summary.Duplicates != 1 {
		t.Errorf("summary.Duplicates = %d, want 1", summary.Duplicates)
	}
}

func TestAlertScanIsIdempotent(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr("08/04/2026"), NextTachoDate: strPtr("2026-04-08")},
		{Plate: "5678DEF", NextATPDate: strPtr("08/04/2026")},
	}
	repo.tokens = []string{"tok1", "tok2"}
	sender := &fakeSender{}
	svc := newTestAlertService(repo, sender, today)

	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Sent) != 3 {
		t.Fatalf("first run sent %d alerts, want 3", len(first.Sent))
	}
	if len(sender.sends) != 6 {
		t.Fatalf("first run made %d device sends, want 6", len(sender.sends))
	}

	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Sent) != 0 {
		t.Errorf("second run sent %d alerts, want 0", len(second.Sent))
	}
	if len(sender.sends) != 6 {
		t.Errorf("second run added device sends: total %d, want 6", len(sender.sends))
	}
	if repo.inserts != 3 {
		t.Errorf("total dedup rows %d, want 3", repo.inserts)
	}
}

func TestAlertScanNoDevices(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr("08/04/2026")},
	}
	sender := &fakeSender{}

	summary, err := newTestAlertService(repo, sender, today).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Message != "no devices registered" {
		t.Errorf("summary.Message = %q", summary.Message)
	}
	if repo.inserts != 0 {
		t.Errorf("expected no dedup rows without devices, got %d", repo.inserts)
	}
}

func TestAlertScanAbortsOnReadError(t *testing.T) {
	repo := newFakeAlertRepo()
	repo.statusesErr = errors.New("connection refused")
	sender := &fakeSender{}

	_, err := newTestAlertService(repo, sender, time.Now()).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when legal status read fails")
	}

	repo = newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr(time.Now().AddDate(0, 0, 7).Format("02/01/2006"))},
	}
	repo.tokensErr = errors.New("connection refused")

	_, err = newTestAlertService(repo, sender, time.Now()).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when device token read fails")
	}
}

func TestAlertScanSendFailureStillLogsDedup(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1234ABC", NextITVDate: strPtr("08/04/2026")},
	}
	repo.tokens = []string{"tok1"}
	sender := &fakeSender{err: errors.New("unregistered token")}

	summary, err := newTestAlertService(repo, sender, today).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if repo.inserts != 1 {
		t.Errorf("expected dedup row despite send failure, got %d", repo.inserts)
	}
	if len(summary.Sent) != 1 {
		t.Errorf("summary.Sent = %d, want 1", len(summary.Sent))
	}
}

func TestAlertScanIgnoresDatesOutsideWindow(t *testing.T) {
	today := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.Local)

	repo := newFakeAlertRepo()
	repo.statuses = []fleet.LegalStatus{
		{Plate: "1111AAA", NextITVDate: strPtr("07/04/2026")}, // today + 6
		{Plate: "2222BBB", NextITVDate: strPtr("09/04/2026")}, // today + 8
		{Plate: "3333CCC", NextITVDate: strPtr("no date")},
		{Plate: "4444DDD"},
	}
	repo.tokens = []string{"tok1"}
	sender := &fakeSender{}

	summary, err := newTestAlertService(repo, sender, today).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Candidates != 0 {
		t.Errorf("summary.Candidates = %d, want 0", summary.Candidates)
	}
	if len(sender.sends) != 0 {
		t.Errorf("expected 0 sends, got %d", len(sender.sends))
	}
}
