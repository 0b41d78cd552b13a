package queue

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type recordingStore struct {
	calls []syncCall
	err   error
}

type syncCall struct {
	userID   uint64
	username string
	role     string
}

func (r *recordingStore) Sync(ctx context.Context, userID uint64, username, role string) error {
	r.calls = append(r.calls, syncCall{userID, username, role})
	return r.err
}

func newTestConsumer(store ProfileStore) *UserEventConsumer {
	return &UserEventConsumer{Profiles: store, Logger: zap.NewNop()}
}

func TestProcessUserCreated(t *testing.T) {
	store := &recordingStore{}
	c := newTestConsumer(store)

	body := []byte(`{"event_type":"user_created","user_id":7,"username":"ada","role":"servidor"}`)
	if err := c.Process(context.Background(), body); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(store.calls) != 1 {
		t.Fatalf("sync calls = %d, want 1", len(store.calls))
	}
	if got := store.calls[0]; got != (syncCall{7, "ada", "servidor"}) {
		t.Fatalf("unexpected sync call: %+v", got)
	}
}

func TestProcessReplayIsIdempotentAtTheStore(t *testing.T) {
	store := &recordingStore{}
	c := newTestConsumer(store)

	body := []byte(`{"event_type":"user_updated","user_id":7,"username":"ada","role":"coordenador"}`)
	for i := 0; i < 3; i++ {
		if err := c.Process(context.Background(), body); err != nil {
			t.Fatalf("Process replay %d: %v", i, err)
		}
	}
	// Every replay maps to the same upsert arguments; idempotence is the
	// store's contract, uniformity of the calls is the consumer's.
	for _, call := range store.calls {
		if call != (syncCall{7, "ada", "coordenador"}) {
			t.Fatalf("replay diverged: %+v", call)
		}
	}
}

func TestProcessLoggedInWithoutRole(t *testing.T) {
	store := &recordingStore{}
	c := newTestConsumer(store)

	body := []byte(`{"event_type":"user_logged_in","user_id":7,"username":"ada"}`)
	if err := c.Process(context.Background(), body); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("login without role must not touch the store, got %d calls", len(store.calls))
	}
}

func TestProcessLoggedInWithRole(t *testing.T) {
	store := &recordingStore{}
	c := newTestConsumer(store)

	body := []byte(`{"event_type":"user_logged_in","user_id":7,"username":"ada","role":"seguranca"}`)
	if err := c.Process(context.Background(), body); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(store.calls) != 1 {
		t.Fatalf("sync calls = %d, want 1", len(store.calls))
	}
}

func TestProcessMalformed(t *testing.T) {
	store := &recordingStore{}
	c := newTestConsumer(store)

	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"event_type":"user_created","user_id":7,"username":"ada"}`), // missing role
		[]byte(`{"event_type":"user_created","username":"ada","role":"padrao"}`),
		[]byte(`{"event_type":"door_opened","user_id":7,"username":"ada"}`),
		[]byte(`{}`),
	}
	for _, body := range cases {
		err := c.Process(context.Background(), body)
		if !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("Process(%s) = %v, want ErrMalformedEvent", body, err)
		}
	}
	if len(store.calls) != 0 {
		t.Fatalf("malformed events must not touch the store, got %d calls", len(store.calls))
	}
}

func TestProcessStoreFailureIsNotMalformed(t *testing.T) {
	store := &recordingStore{err: errors.New("db gone")}
	c := newTestConsumer(store)

	body := []byte(`{"event_type":"user_created","user_id":7,"username":"ada","role":"padrao"}`)
	err := c.Process(context.Background(), body)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrMalformedEvent) {
		t.Fatal("a store failure must stay retryable, not be discarded as malformed")
	}
}

func TestParseAckPolicy(t *testing.T) {
	if ParseAckPolicy("always") != AckAlways {
		t.Fatal(`"always" did not map to AckAlways`)
	}
	if ParseAckPolicy("on_success") != AckOnSuccess {
		t.Fatal(`"on_success" did not map to AckOnSuccess`)
	}
	if ParseAckPolicy("") != AckOnSuccess {
		t.Fatal("empty policy must default to AckOnSuccess")
	}
}

func TestUserEventValidate(t *testing.T) {
	ok := UserEvent{EventType: EventUserCreated, UserID: 1, Username: "ada", Role: "padrao"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	login := UserEvent{EventType: EventUserLoggedIn, UserID: 1, Username: "ada"}
	if err := login.Validate(); err != nil {
		t.Fatalf("login without role rejected: %v", err)
	}
}
