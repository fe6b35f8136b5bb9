package eventbus

import "testing"

func TestSubscribePublishDelivers(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(Event{Type: TypeSpeechStarted, Data: SpeechStartedData{SampleIndex: 42}})

	select {
	case ev := <-ch:
		if ev.Type != TypeSpeechStarted {
			t.Fatalf("got type %v", ev.Type)
		}
		data, ok := ev.Data.(SpeechStartedData)
		if !ok || data.SampleIndex != 42 {
			t.Fatalf("unexpected payload %#v", ev.Data)
		}
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := New()
	b.Publish(Event{Type: TypeVisualizationData})
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(Event{Type: TypeVisualizationData})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			if count != subscriberBuffer {
				t.Fatalf("expected exactly %d buffered events, got %d", subscriberBuffer, count)
			}
			return
		}
	}
}

func TestNewSubscriberReceivesSynthesizedCaptureState(t *testing.T) {
	b := New()
	b.Publish(Event{Type: TypeCaptureStateChanged, Data: CaptureStateChangedData{Capturing: true}})

	ch, unsub := b.Subscribe()
	defer unsub()

	select {
	case ev := <-ch:
		if ev.Type != TypeCaptureStateChanged {
			t.Fatalf("expected synthesized capture-state-changed, got %v", ev.Type)
		}
		data := ev.Data.(CaptureStateChangedData)
		if !data.Capturing {
			t.Fatal("expected Capturing=true to be replayed")
		}
	default:
		t.Fatal("expected synthesized event for new subscriber")
	}
}

func TestSubscriberCountTracksSubscribeUnsubscribe(t *testing.T) {
	b := New()
	if b.SubscriberCount() != 0 {
		t.Fatal("expected 0 subscribers initially")
	}
	_, unsub := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatal("expected 1 subscriber after Subscribe")
	}
	unsub()
	if b.SubscriberCount() != 0 {
		t.Fatal("expected 0 subscribers after unsubscribe")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	unsub()

	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}
