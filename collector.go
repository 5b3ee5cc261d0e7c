package sslog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sslog-project/sslog/internal/metrics"
	"github.com/sslog-project/sslog/internal/ring"
	"github.com/sslog-project/sslog/internal/strtab"
	"github.com/sslog-project/sslog/internal/wire"
)

// Collector is the producer-facing entry point (§3): it owns the
// indexed-string table, the two ring buffers, and the session's single
// sink goroutine. All of its methods are safe for concurrent use from
// any number of producer goroutines; the only exclusive section is
// Start/Stop, serialized by startMu.
type Collector struct {
	table  *strtab.Table
	groups *groupRegistry
	stats  *metrics.Collector

	errHandler atomic.Pointer[ErrorHandler]

	collectorCfg atomic.Pointer[CollectorConfig]
	sinkCfg      atomic.Pointer[SinkConfig]

	startMu         sync.Mutex
	running         atomic.Bool
	dataRing        *ring.Ring
	stringRing      *ring.Ring
	sink            *sink
	sessionOriginNs int64
}

// NewCollector creates a Collector in its default, stopped configuration.
// Call Start before logging anything; every producer method is a no-op
// (and counts a drop) until then.
func NewCollector() *Collector {
	c := &Collector{
		table:  strtab.New(),
		groups: newGroupRegistry(),
		stats:  metrics.NewCollector(),
	}
	cc := DefaultCollectorConfig()
	sc := DefaultSinkConfig()
	eh := defaultErrorHandler()
	c.collectorCfg.Store(&cc)
	c.sinkCfg.Store(&sc)
	c.errHandler.Store(&eh)
	return c
}

// SetCollector replaces the ring-buffer sizing. It only takes effect on
// the next Start call; a running Collector keeps its existing rings.
func (c *Collector) SetCollector(cfg CollectorConfig) {
	cfg = cfg.withDefaults()
	c.collectorCfg.Store(&cfg)
}

// GetCollector returns the currently configured ring-buffer sizing.
func (c *Collector) GetCollector() CollectorConfig {
	return *c.collectorCfg.Load()
}

// SetSink replaces the writer's persistence/console settings. If the
// Collector is running, the change is handed to the live sink goroutine
// and is visible to the very next drained record; otherwise it is
// recorded for the next Start.
func (c *Collector) SetSink(cfg SinkConfig) error {
	cfg = cfg.withDefaults()
	c.sinkCfg.Store(&cfg)
	if s := c.sink; s != nil {
		return s.reconfigure(cfg)
	}
	return nil
}

// GetSink returns the currently configured SinkConfig.
func (c *Collector) GetSink() SinkConfig {
	return *c.sinkCfg.Load()
}

// SetStorageLevel is a convenience wrapper around SetSink that changes
// only the storage threshold.
func (c *Collector) SetStorageLevel(level Level) error {
	cfg := c.GetSink()
	cfg.StorageLevel = level
	return c.SetSink(cfg)
}

// SetConsoleLevel is a convenience wrapper around SetSink that changes
// only the console-echo threshold.
func (c *Collector) SetConsoleLevel(level Level) error {
	cfg := c.GetSink()
	cfg.ConsoleLevel = level
	return c.SetSink(cfg)
}

// SetConsoleFormatter is a convenience wrapper around SetSink that
// changes only the console formatter pattern.
func (c *Collector) SetConsoleFormatter(pattern string) error {
	cfg := c.GetSink()
	cfg.ConsoleFormatter = pattern
	return c.SetSink(cfg)
}

// SetStoragePath is a convenience wrapper around SetSink that changes
// only the storage directory. Passing "" disables on-disk persistence.
func (c *Collector) SetStoragePath(path string) error {
	cfg := c.GetSink()
	cfg.Path = path
	return c.SetSink(cfg)
}

// SetErrorHandler replaces the handler the sink reports LogErrors to.
// A nil handler is equivalent to SilentErrorHandler.
func (c *Collector) SetErrorHandler(h ErrorHandler) {
	if h == nil {
		h = SilentErrorHandler
	}
	c.errHandler.Store(&h)
}

// SetGroupLevel gates an entire call-site group behind a minimum level
// (§4.2's runtime group-gating registry).
func (c *Collector) SetGroupLevel(group string, level Level) {
	c.groups.SetGroupLevel(group, level)
}

// SetThreadName rebinds the calling goroutine's cached thread identity
// to name, interned under RoleThread.
func (c *Collector) SetThreadName(name string) {
	setThreadName(c.table, name)
}

// Start allocates the ring buffers and launches the sink goroutine.
// Calling Start on an already-running Collector is a no-op.
func (c *Collector) Start() error {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.running.Load() {
		return nil
	}

	cc := c.GetCollector()
	sc := c.GetSink()

	c.dataRing = ring.New(cc.DataBufferBytes, defaultMaxFrameBytes)
	c.stringRing = ring.New(cc.StringBufferBytes, defaultMaxStringBytes)
	c.sessionOriginNs = time.Now().UnixNano()

	s, err := newSink(c.table, c.dataRing, c.stringRing, c.stats, *c.errHandler.Load(), sc, c.sessionOriginNs)
	if err != nil {
		return err
	}
	c.sink = s
	c.running.Store(true)
	return nil
}

// Stop drains any buffered records and blocks until the sink goroutine
// has exited. Calling Stop on an already-stopped Collector is a no-op.
func (c *Collector) Stop() {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if !c.running.Load() {
		return
	}
	c.sink.stop()
	c.sink = nil
	c.running.Store(false)
}

// RequestDetails asks the sink to refresh the on-disk catalog (header +
// full string table) out of band from its normal new-string trigger.
func (c *Collector) RequestDetails() {
	if s := c.sink; s != nil {
		s.requestCatalogFlush()
	}
}

// GetStats returns a snapshot of the session's counters.
func (c *Collector) GetStats() metrics.Stats {
	return c.stats.Snapshot()
}

// IsEnabled reports whether level clears the configured minimum of both
// the storage and console criteria, the cheap early-out a call site
// should use before building a record (§4.2).
func (c *Collector) IsEnabled(level Level) bool {
	sc := c.GetSink()
	min := sc.StorageLevel
	if sc.ConsoleLevel < min {
		min = sc.ConsoleLevel
	}
	return level >= min
}

// IsEnabledGroup is IsEnabled further gated by group's configured
// minimum level, if any.
func (c *Collector) IsEnabledGroup(group string, level Level) bool {
	return c.IsEnabled(level) && c.groups.IsEnabled(group, level)
}

// Log submits one record (§4.2). It never blocks and never returns an
// error to the caller: a full or unstarted ring simply counts a drop.
// buffer may be nil; args may be empty.
func (c *Collector) Log(level Level, category, format string, args []interface{}, buffer []byte) {
	if !c.running.Load() {
		c.stats.RecordDropped()
		return
	}
	if !c.IsEnabled(level) {
		return
	}
	c.log(level, category, format, args, buffer)
}

// LogGroup is Log additionally gated by a call-site group.
func (c *Collector) LogGroup(group string, level Level, category, format string, args []interface{}, buffer []byte) {
	if !c.running.Load() {
		c.stats.RecordDropped()
		return
	}
	if !c.IsEnabledGroup(group, level) {
		return
	}
	c.log(level, category, format, args, buffer)
}

func (c *Collector) log(level Level, category, formatStr string, args []interface{}, buffer []byte) {
	categoryIdx, catNew := c.table.Intern([]byte(category), strtab.RoleCategory)
	formatIdx, fmtNew := c.table.Intern([]byte(formatStr), strtab.RoleFormat)

	tc := threadContextFor(c.table)

	wireArgs := make([]wire.Arg, len(args))
	newStringIDs := make([]uint32, 0, len(args)+2)
	if catNew {
		newStringIDs = append(newStringIDs, categoryIdx)
	}
	if fmtNew {
		newStringIDs = append(newStringIDs, formatIdx)
	}
	for i, v := range args {
		a, isNew := argFromValue(v, c.table)
		if isNew {
			newStringIDs = append(newStringIDs, a.StringIdx)
		}
		wireArgs[i] = a.toWireArg()
	}

	// Every newly interned string must reach the catalog before any frame
	// referencing its id can be trusted by a reader, so staging happens
	// before the frame is committed to the data ring. If the string ring
	// has no room, the whole record is dropped rather than risk a frame
	// whose string ids the catalog never learns about (§4.2).
	for _, id := range newStringIDs {
		if !c.stageStringByID(id, c.table.GetFlags(id)) {
			c.stats.RecordDropped()
			return
		}
	}

	if len(buffer) > 0xFFFF {
		buffer = buffer[:0xFFFF]
	}

	frame := wire.EncodeFrame(uint8(level), tc.threadIdx, categoryIdx, formatIdx, uint64(time.Now().UnixNano()), wireArgs, buffer)

	token, ok := c.dataRing.Reserve(len(frame))
	if !ok {
		c.stats.RecordDropped()
		return
	}
	c.dataRing.Commit(token, frame)
}

// stageStringByID pushes a newly interned string onto the string ring so
// the sink can fold it into the catalog, returning false if the ring had
// no room.
func (c *Collector) stageStringByID(id uint32, role uint8) bool {
	payload := wire.EncodeStagedString(id, c.table.Get(id), role)
	token, ok := c.stringRing.Reserve(len(payload))
	if !ok {
		return false
	}
	c.stringRing.Commit(token, payload)
	return true
}
