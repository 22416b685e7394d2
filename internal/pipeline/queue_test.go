package pipeline

import (
	"strconv"
	"testing"

	"github.com/aprswatch/aprswatch/internal/types"
)

func testPacket(raw string) *types.Packet {
	return &types.Packet{SenderCallsign: "N0CALL", RawContent: raw}
}

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue(10)

	for i := 0; i < 3; i++ {
		if _, ok := q.Enqueue(testPacket(strconv.Itoa(i))); !ok {
			t.Fatalf("enqueue %d rejected", i)
		}
	}

	for i := 0; i < 3; i++ {
		got := <-q.C()
		if got.RawContent != strconv.Itoa(i) {
			t.Errorf("dequeue %d = %q", i, got.RawContent)
		}
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewQueue(3)

	totalDropped := 0
	for i := 0; i < 5; i++ {
		dropped, ok := q.Enqueue(testPacket(strconv.Itoa(i)))
		if !ok {
			t.Fatalf("enqueue %d rejected", i)
		}
		totalDropped += dropped
	}

	if totalDropped != 2 {
		t.Errorf("dropped = %d, want 2", totalDropped)
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	// The two oldest packets were shed; the newest three survive.
	for _, want := range []string{"2", "3", "4"} {
		got := <-q.C()
		if got.RawContent != want {
			t.Errorf("dequeue = %q, want %q", got.RawContent, want)
		}
	}
}

func TestQueueCloseDrainsRemaining(t *testing.T) {
	q := NewQueue(10)
	q.Enqueue(testPacket("a"))
	q.Enqueue(testPacket("b"))
	q.Close()

	var drained []string
	for pkt := range q.C() {
		drained = append(drained, pkt.RawContent)
	}

	if len(drained) != 2 || drained[0] != "a" || drained[1] != "b" {
		t.Errorf("drained = %v", drained)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(10)
	q.Close()
	q.Close() // must be safe to repeat

	if _, ok := q.Enqueue(testPacket("late")); ok {
		t.Error("enqueue accepted after Close")
	}
}

func TestQueueMinimumCapacity(t *testing.T) {
	q := NewQueue(0)
	if q.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", q.Cap())
	}
}
