// Package pipeline supervises the APRS-IS stream and drives the
// parse/dedup/store/broadcast chain.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/metrics"
	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/aprswatch/aprswatch/pkg/aprs"
)

// Defaults for the processing stage.
const (
	DefaultQueueSize = 10000
	DefaultWorkers   = 4
)

const (
	dedupTTL          = 30 * time.Second
	reconnectDelay    = 5 * time.Second
	superviseInterval = 30 * time.Second
	drainTimeout      = 30 * time.Second
	dropLogInterval   = 10 * time.Second
)

// StreamClient is the upstream connection the supervisor keeps alive.
type StreamClient interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// PacketStore persists processed packets.
type PacketStore interface {
	AddPacket(ctx context.Context, p *types.Packet) error
}

// DedupCache answers whether a fingerprint was seen within the TTL
// window. Implementations are expected to fail open: a cache outage
// must look like "not seen".
type DedupCache interface {
	Seen(fingerprint string) bool
	Remember(fingerprint string, ttl time.Duration)
}

// Broadcaster hands processed packets to the realtime fan-out.
type Broadcaster interface {
	BroadcastPacket(p *types.Packet)
}

// Config holds the tunable pipeline parameters.
type Config struct {
	QueueSize int
	Workers   int
}

// Pipeline owns the bounded packet queue, the worker pool, and the
// supervisor that keeps the stream connection alive.
type Pipeline struct {
	cfg         Config
	client      StreamClient
	store       PacketStore
	cache       DedupCache
	broadcaster Broadcaster

	queue   *Queue
	workers sync.WaitGroup

	reconnectDelay    time.Duration
	superviseInterval time.Duration
	drainTimeout      time.Duration

	dropLogMu   sync.Mutex
	lastDropLog time.Time
}

// New creates a pipeline. Zero config fields fall back to the
// defaults.
func New(cfg Config, client StreamClient, store PacketStore, cache DedupCache, broadcaster Broadcaster) *Pipeline {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}

	return &Pipeline{
		cfg:         cfg,
		client:      client,
		store:       store,
		cache:       cache,
		broadcaster: broadcaster,
		queue:       NewQueue(cfg.QueueSize),

		reconnectDelay:    reconnectDelay,
		superviseInterval: superviseInterval,
		drainTimeout:      drainTimeout,
	}
}

// HandleLine parses a raw line from the stream and enqueues the
// resulting packet. It never blocks and never returns an error: a
// frame that cannot be parsed is counted and dropped, and queue
// overflow sheds the oldest packets instead of pushing back on the
// stream reader.
func (p *Pipeline) HandleLine(line string) {
	metrics.LinesReceived.Inc()

	parsed, err := aprs.Parse(line)
	if err != nil {
		metrics.FrameFailures.Inc()
		log.Debugf("dropping unparseable line: %v", err)
		return
	}
	metrics.PacketsParsed.WithLabelValues(string(parsed.Type)).Inc()

	pkt := types.NewPacket(parsed, time.Now())

	dropped, ok := p.queue.Enqueue(pkt)
	if !ok {
		log.Debugf("queue closed, dropping packet from %v", pkt.SenderCallsign)
		return
	}
	if dropped > 0 {
		metrics.QueueDropped.Add(float64(dropped))
		p.warnDropped(dropped)
	}
	metrics.QueueDepth.Set(float64(p.queue.Len()))
}

// warnDropped logs queue overflow at most once per dropLogInterval so
// a sustained overload does not flood the log.
func (p *Pipeline) warnDropped(n int) {
	p.dropLogMu.Lock()
	defer p.dropLogMu.Unlock()

	if time.Since(p.lastDropLog) < dropLogInterval {
		return
	}
	p.lastDropLog = time.Now()
	log.Warnf("packet queue full, dropped %d oldest packet(s)", n)
}

// Start launches the worker pool and the supervisor. Cancelling ctx
// begins shutdown: the queue is completed, workers drain the backlog,
// and the stream disconnects. wg is released when shutdown finishes.
func (p *Pipeline) Start(ctx context.Context, wg *sync.WaitGroup) {
	// Workers keep persisting the backlog during shutdown, so their
	// store calls must survive the run context being cancelled. The
	// drain timeout bounds how long that can take.
	storeCtx := context.WithoutCancel(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		p.workers.Add(1)
		go p.worker(storeCtx)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.supervise(ctx)
	}()
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.workers.Done()

	for pkt := range p.queue.C() {
		p.process(ctx, pkt)
		metrics.QueueDepth.Set(float64(p.queue.Len()))
	}
}

// process runs the per-packet chain: fingerprint, dedup lookup,
// persist, remember, broadcast. Errors are logged and never abort the
// worker; a packet that fails to persist is still broadcast.
func (p *Pipeline) process(ctx context.Context, pkt *types.Packet) {
	fingerprint := pkt.Fingerprint()

	if p.cache.Seen(fingerprint) {
		metrics.PacketsDuplicate.Inc()
		return
	}

	if err := p.store.AddPacket(ctx, pkt); err != nil {
		metrics.StoreFailures.Inc()
		log.Errorf("storing packet from %v: %v", pkt.SenderCallsign, err)
	} else {
		metrics.PacketsStored.Inc()
	}

	p.cache.Remember(fingerprint, dedupTTL)
	p.broadcaster.BroadcastPacket(pkt)
}

// supervise keeps the stream connected until ctx is cancelled,
// checking in every superviseInterval. Connection failures retry after
// reconnectDelay. A queue running past half capacity is reported.
func (p *Pipeline) supervise(ctx context.Context) {
	for ctx.Err() == nil {
		if !p.client.IsConnected() {
			metrics.ConnectAttempts.Inc()
			if err := p.client.Connect(ctx); err != nil {
				if ctx.Err() != nil {
					break
				}
				log.Errorf("connecting to APRS-IS: %v", err)
				if !sleepCtx(ctx, p.reconnectDelay) {
					break
				}
				continue
			}
		}

		if depth, capacity := p.queue.Len(), p.queue.Cap(); depth > capacity/2 {
			log.Warnf("packet queue depth %d exceeds half of capacity %d", depth, capacity)
		}

		if !sleepCtx(ctx, p.superviseInterval) {
			break
		}
	}

	p.shutdown()
}

func (p *Pipeline) shutdown() {
	log.Info("pipeline shutting down, draining packet queue...")
	p.queue.Close()

	drained := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Info("packet queue drained")
	case <-time.After(p.drainTimeout):
		log.Warnf("timed out after %v waiting for packet workers to drain", p.drainTimeout)
	}

	p.client.Disconnect()
}

// sleepCtx waits for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
