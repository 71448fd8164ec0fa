package http_test

import (
	"testing"
	"time"

	handler "github.com/escaduto/spotospot/internal/adapters/http"
)

func TestUpdateHub_NotifyReachesMatchingSubscribers(t *testing.T) {
	hub := handler.NewUpdateHub()

	chA, cancelA := hub.Subscribe("day-1")
	defer cancelA()
	chB, cancelB := hub.Subscribe("day-2")
	defer cancelB()

	hub.Notify("day-1")

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("expected day-1 subscriber to be notified")
	}

	select {
	case <-chB:
		t.Fatal("day-2 subscriber must not see a day-1 update")
	default:
	}
}

func TestUpdateHub_NotificationsCoalesce(t *testing.T) {
	hub := handler.NewUpdateHub()

	ch, cancel := hub.Subscribe("day-1")
	defer cancel()

	hub.Notify("day-1")
	hub.Notify("day-1")
	hub.Notify("day-1")

	<-ch
	select {
	case <-ch:
		// one pending wake at most after draining
		select {
		case <-ch:
			t.Fatal("expected pending notifications to coalesce")
		default:
		}
	default:
	}
}

func TestUpdateHub_CancelClosesChannelOnce(t *testing.T) {
	hub := handler.NewUpdateHub()

	ch, cancel := hub.Subscribe("day-1")
	cancel()
	cancel() // second call must be a no-op

	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}

	// a notify after cancel must not panic or deliver
	hub.Notify("day-1")
}

func TestUpdateHub_DispatchIgnoresMalformedFrames(t *testing.T) {
	hub := handler.NewUpdateHub()

	ch, cancel := hub.Subscribe("day-1")
	defer cancel()

	hub.Dispatch([]byte("not json"))
	hub.Dispatch([]byte(`{"day_id":""}`))

	select {
	case <-ch:
		t.Fatal("malformed frames must not notify")
	default:
	}

	hub.Dispatch([]byte(`{"day_id":"day-1"}`))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected valid frame to notify")
	}
}
