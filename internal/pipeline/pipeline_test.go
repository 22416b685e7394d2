package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/aprswatch/aprswatch/pkg/aprs"
)

type fakeClient struct {
	mu          sync.Mutex
	connected   bool
	attempts    int
	failFirst   int
	disconnects int
}

func (c *fakeClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts++
	if c.attempts <= c.failFirst {
		return errors.New("connection refused")
	}
	c.connected = true
	return nil
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.connected = false
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) stats() (attempts, disconnects int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts, c.disconnects
}

type fakeStore struct {
	mu      sync.Mutex
	err     error
	packets []*types.Packet
}

func (s *fakeStore) AddPacket(ctx context.Context, p *types.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.packets = append(s.packets, p)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{keys: make(map[string]bool)}
}

func (c *fakeCache) Seen(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[fingerprint]
}

func (c *fakeCache) Remember(fingerprint string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[fingerprint] = true
}

type fakeBroadcaster struct {
	ch chan *types.Packet
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{ch: make(chan *types.Packet, 64)}
}

func (b *fakeBroadcaster) BroadcastPacket(p *types.Packet) {
	b.ch <- p
}

type testHarness struct {
	pipeline    *Pipeline
	client      *fakeClient
	store       *fakeStore
	cache       *fakeCache
	broadcaster *fakeBroadcaster
	cancel      context.CancelFunc
	wg          *sync.WaitGroup
}

func startPipeline(t *testing.T, client *fakeClient, store *fakeStore) *testHarness {
	t.Helper()

	cache := newFakeCache()
	broadcaster := newFakeBroadcaster()

	p := New(Config{QueueSize: 100, Workers: 2}, client, store, cache, broadcaster)
	p.reconnectDelay = 5 * time.Millisecond
	p.superviseInterval = 10 * time.Millisecond
	p.drainTimeout = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	p.Start(ctx, &wg)

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return &testHarness{
		pipeline:    p,
		client:      client,
		store:       store,
		cache:       cache,
		broadcaster: broadcaster,
		cancel:      cancel,
		wg:          &wg,
	}
}

func (h *testHarness) waitBroadcast(t *testing.T) *types.Packet {
	t.Helper()
	select {
	case pkt := <-h.broadcaster.ch:
		return pkt
	case <-time.After(2 * time.Second):
		t.Fatal("no packet broadcast")
		return nil
	}
}

func (h *testHarness) expectNoBroadcast(t *testing.T) {
	t.Helper()
	select {
	case pkt := <-h.broadcaster.ch:
		t.Fatalf("unexpected broadcast of %q", pkt.RawContent)
	case <-time.After(200 * time.Millisecond):
	}
}

func fingerprintOf(t *testing.T, line string) string {
	t.Helper()
	parsed, err := aprs.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	return types.NewPacket(parsed, time.Now()).Fingerprint()
}

func TestPipelineProcessesPacket(t *testing.T) {
	h := startPipeline(t, &fakeClient{}, &fakeStore{})

	line := "N0CALL>APRS,WIDE1-1:!4903.50N/07201.75W-Test Packet"
	h.pipeline.HandleLine(line)

	pkt := h.waitBroadcast(t)
	if pkt.SenderCallsign != "N0CALL" {
		t.Errorf("sender = %q", pkt.SenderCallsign)
	}
	if pkt.Type != aprs.TypePositionNoTimestamp {
		t.Errorf("type = %q", pkt.Type)
	}

	if h.store.count() != 1 {
		t.Errorf("stored = %d, want 1", h.store.count())
	}
	if !h.cache.Seen(fingerprintOf(t, line)) {
		t.Error("fingerprint was not remembered")
	}
}

func TestPipelineSuppressesDuplicates(t *testing.T) {
	h := startPipeline(t, &fakeClient{}, &fakeStore{})

	line := "N0CALL>APRS:>on the air"
	h.pipeline.HandleLine(line)
	h.waitBroadcast(t)

	// Once the first broadcast lands the fingerprint is cached, so the
	// repeat must be dropped before the store.
	h.pipeline.HandleLine(line)
	h.expectNoBroadcast(t)

	if h.store.count() != 1 {
		t.Errorf("stored = %d, want 1", h.store.count())
	}
}

func TestPipelineStoreErrorStillBroadcasts(t *testing.T) {
	store := &fakeStore{err: errors.New("insert failed")}
	h := startPipeline(t, &fakeClient{}, store)

	line := "N0CALL>APRS:>status report"
	h.pipeline.HandleLine(line)

	pkt := h.waitBroadcast(t)
	if pkt.RawContent != line {
		t.Errorf("broadcast raw = %q", pkt.RawContent)
	}
	if h.store.count() != 0 {
		t.Errorf("stored = %d, want 0", h.store.count())
	}
	if !h.cache.Seen(fingerprintOf(t, line)) {
		t.Error("fingerprint should be remembered despite the store error")
	}
}

func TestPipelineDropsUnparseableLines(t *testing.T) {
	h := startPipeline(t, &fakeClient{}, &fakeStore{})

	h.pipeline.HandleLine("this is not a TNC2 frame")
	h.expectNoBroadcast(t)

	if h.store.count() != 0 {
		t.Errorf("stored = %d, want 0", h.store.count())
	}
}

func TestSupervisorConnectsAndRetries(t *testing.T) {
	client := &fakeClient{failFirst: 2}
	startPipeline(t, client, &fakeStore{})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client.IsConnected() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !client.IsConnected() {
		t.Fatal("supervisor never connected")
	}
	if attempts, _ := client.stats(); attempts < 3 {
		t.Errorf("attempts = %d, want at least 3", attempts)
	}
}

func TestShutdownDrainsBacklogAndDisconnects(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{}
	h := startPipeline(t, client, store)

	const n = 40
	for i := 0; i < n; i++ {
		h.pipeline.HandleLine(fmt.Sprintf("N0CALL>APRS:>message %d", i))
	}

	h.cancel()
	h.wg.Wait()

	if h.store.count() != n {
		t.Errorf("stored = %d, want %d", h.store.count(), n)
	}
	if _, disconnects := client.stats(); disconnects < 1 {
		t.Error("client was never disconnected on shutdown")
	}
}
