package feedsync

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestTriggerSuccessRestoresBusy(t *testing.T) {
	r := NewRefresher(func(string) { t.Error("no error expected") })

	ran := false
	ok := r.Trigger(context.Background(), func(context.Context) error {
		if !r.Busy() {
			t.Error("busy flag not set during action")
		}
		ran = true
		return nil
	})
	if !ok || !ran {
		t.Fatalf("trigger: ok=%v ran=%v", ok, ran)
	}
	if r.Busy() {
		t.Fatal("busy flag not restored after success")
	}
}

func TestTriggerFailureSurfacesOnceAndRestoresBusy(t *testing.T) {
	var messages []string
	r := NewRefresher(func(msg string) { messages = append(messages, msg) })

	ok := r.Trigger(context.Background(), func(context.Context) error {
		return errors.New("fetch pets: transport down")
	})
	if !ok {
		t.Fatal("trigger dropped")
	}
	if r.Busy() {
		t.Fatal("busy flag not restored after failure")
	}
	if len(messages) != 1 || messages[0] != RefreshFailedMessage {
		t.Fatalf("surfaced messages: got %v, want [%s]", messages, RefreshFailedMessage)
	}
}

func TestTriggerPanicSurfacesAndRestoresBusy(t *testing.T) {
	var messages []string
	r := NewRefresher(func(msg string) { messages = append(messages, msg) })

	r.Trigger(context.Background(), func(context.Context) error {
		panic("refresh blew up")
	})
	if r.Busy() {
		t.Fatal("busy flag not restored after panic")
	}
	if len(messages) != 1 {
		t.Fatalf("surfaced messages: got %v, want one", messages)
	}
}

func TestReentrantTriggerIsDropped(t *testing.T) {
	r := NewRefresher(nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Trigger(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if ok := r.Trigger(context.Background(), func(context.Context) error {
		t.Error("re-entrant action must not run")
		return nil
	}); ok {
		t.Error("re-entrant trigger reported accepted")
	}

	close(release)
	wg.Wait()

	if r.Busy() {
		t.Fatal("busy flag stuck after both triggers")
	}
	// Released now; a fresh trigger is accepted again.
	if ok := r.Trigger(context.Background(), func(context.Context) error { return nil }); !ok {
		t.Fatal("fresh trigger after completion was dropped")
	}
}
