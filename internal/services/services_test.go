package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ripple/internal/models"
	"ripple/internal/store/memory"

	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events so tests can assert on the
// asynchronous fan-out without sleeping.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
	seen   chan publishedEvent
}

type publishedEvent struct {
	RecipientID uint
	Event       string
	Payload     any
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{seen: make(chan publishedEvent, 64)}
}

func (p *recordingPublisher) Publish(recipientID uint, event string, payload any) error {
	ev := publishedEvent{RecipientID: recipientID, Event: event, Payload: payload}
	p.mu.Lock()
	p.events = append(p.events, ev)
	fail := p.fail
	p.mu.Unlock()
	p.seen <- ev
	if fail {
		return errors.New("connection torn down")
	}
	return nil
}

// waitFor blocks until an event with the given name was published.
func (p *recordingPublisher) waitFor(t *testing.T, event string) publishedEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.seen:
			if ev.Event == event {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %q event published", event)
		}
	}
}

type fixture struct {
	store *memory.Storage
	pub   *recordingPublisher
	disp  *Dispatcher
}

func newFixture() *fixture {
	st := memory.New()
	pub := newRecordingPublisher()
	return &fixture{store: st, pub: pub, disp: NewDispatcher(st, pub)}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{Pid: "pid-" + title, UserID: author.ID, Title: title, Content: "body", Category: "general"}
	require.NoError(t, f.store.CreatePost(context.Background(), p))
	return p
}

func (f *fixture) notifications(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	notes, err := f.store.ListNotifications(context.Background(), recipientID, 50)
	require.NoError(t, err)
	return notes
}
