package events

import "testing"

func TestQueueDropsOnOverflow(t *testing.T) {
	f := NewFabric(2)
	f.Subscribe("u1")

	f.Publish("u1", Event{Kind: KindPing, Data: Keepalive{Time: 1}})
	f.Publish("u1", Event{Kind: KindPing, Data: Keepalive{Time: 2}})
	f.Publish("u1", Event{Kind: KindPing, Data: Keepalive{Time: 3}}) // dropped

	q := f.Subscribe("u1")
	first := (<-q.C()).Data.(Keepalive)
	second := (<-q.C()).Data.(Keepalive)
	if first.Time != 1 || second.Time != 2 {
		t.Fatalf("got %v, %v; want in-order 1, 2 with the 3rd dropped", first, second)
	}
	select {
	case ev := <-q.C():
		t.Fatalf("expected no third event, got %v", ev)
	default:
	}
}

func TestPublishToUnknownUserIsNoop(t *testing.T) {
	f := NewFabric(10)
	// Must not panic or block.
	f.Publish("ghost", Event{Kind: KindPing, Data: Keepalive{Time: 1}})
}

func TestSubscribePersistsAcrossReconnect(t *testing.T) {
	f := NewFabric(10)
	q1 := f.Subscribe("u1")
	q2 := f.Subscribe("u1")
	if q1 != q2 {
		t.Fatal("expected the same queue instance across subscribe calls for the same user")
	}
}
