package sslog

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/sslog-project/sslog/internal/format"
	"github.com/sslog-project/sslog/internal/metrics"
	"github.com/sslog-project/sslog/internal/ring"
	"github.com/sslog-project/sslog/internal/strtab"
	"github.com/sslog-project/sslog/internal/wire"
)

// idlePollInterval bounds how long the writer sleeps between polls when
// both rings are empty (§4.3's "adaptive, <= 10ms" backoff).
const idlePollInterval = 10 * time.Millisecond

// sink is the single writer goroutine: it owns the on-disk storage (if
// any) and the console formatter, and is the only goroutine that updates
// the stored and buffer-usage statistics (producers also count drops).
type sink struct {
	table      *strtab.Table
	dataRing   *ring.Ring
	stringRing *ring.Ring
	stats      *metrics.Collector
	errHandler ErrorHandler

	cfg       atomic.Pointer[SinkConfig]
	formatter atomic.Pointer[Formatter]

	store             *storage // nil when SinkConfig.Path == ""
	sessionOriginNs   int64
	clockResolutionNs float64

	draining       atomic.Bool
	done           chan struct{}
	wake           chan struct{}
	requestDetails chan struct{}

	degraded atomic.Bool
}

func newSink(table *strtab.Table, dataRing, stringRing *ring.Ring, stats *metrics.Collector, errHandler ErrorHandler, cfg SinkConfig, sessionOriginNs int64) (*sink, error) {
	cfg = cfg.withDefaults()

	s := &sink{
		table:           table,
		dataRing:        dataRing,
		stringRing:      stringRing,
		stats:           stats,
		errHandler:      errHandler,
		done:            make(chan struct{}),
		wake:            make(chan struct{}, 1),
		requestDetails:  make(chan struct{}, 1),
		sessionOriginNs: sessionOriginNs,
	}
	s.clockResolutionNs = measureClockResolutionNs()
	s.cfg.Store(&cfg)
	s.formatter.Store(NewFormatter(cfg.ConsoleFormatter))

	if cfg.Path != "" {
		st, err := openStorage(cfg.Path)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	go s.run()
	return s, nil
}

// reconfigure publishes a new SinkConfig, effective for the very next
// drained frame. A Path change closes the old storage (if any) and opens
// the new one.
func (s *sink) reconfigure(cfg SinkConfig) error {
	cfg = cfg.withDefaults()
	old := s.cfg.Load()

	if cfg.Path != old.Path {
		if s.store != nil {
			if err := s.store.close(); err != nil {
				s.reportError("reconfigure", old.Path, "close previous storage", err, ErrorLevelWarn)
			}
			s.store = nil
		}
		if cfg.Path != "" {
			st, err := openStorage(cfg.Path)
			if err != nil {
				return err
			}
			s.store = st
		}
	}

	s.cfg.Store(&cfg)
	s.formatter.Store(NewFormatter(cfg.ConsoleFormatter))
	s.nudge()
	return nil
}

func (s *sink) levels() (storageLevel, consoleLevel Level) {
	cfg := s.cfg.Load()
	return cfg.StorageLevel, cfg.ConsoleLevel
}

func (s *sink) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *sink) requestCatalogFlush() {
	select {
	case s.requestDetails <- struct{}{}:
	default:
	}
	s.nudge()
}

// stop requests a drain-then-exit and blocks until the writer goroutine
// has exited (§4.3).
func (s *sink) stop() {
	s.draining.Store(true)
	s.nudge()
	<-s.done
}

func (s *sink) run() {
	defer close(s.done)
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	for {
		did := s.drainOnce()

		select {
		case <-s.requestDetails:
			s.refreshCatalog()
			did = true
		default:
		}

		if !did {
			if s.draining.Load() {
				s.refreshCatalog()
				if s.store != nil {
					if err := s.store.close(); err != nil {
						s.reportError("stop", s.cfg.Load().Path, "close storage", err, ErrorLevelWarn)
					}
				}
				return
			}
			select {
			case <-s.wake:
			case <-ticker.C:
			}
		}
	}
}

func (s *sink) drainOnce() bool {
	did := false
	storageLevel, consoleLevel := s.levels()

	s.dataRing.Drain(func(frame []byte) bool {
		did = true
		s.handleFrame(frame, storageLevel, consoleLevel)
		return true
	})
	if s.store != nil {
		_ = s.store.flush()
	}

	newStrings := 0
	s.stringRing.Drain(func(frame []byte) bool {
		did = true
		if _, _, _, err := wire.DecodeStagedString(frame); err != nil {
			s.reportError("decode", "", "decode staged string", err, ErrorLevelWarn)
			return true
		}
		newStrings++
		s.stats.RecordStoredString()
		return true
	})
	if newStrings > 0 {
		s.refreshCatalog()
	}

	s.stats.ObserveDataBufferUsage(s.dataRing.InUse() * uint64(s.dataRing.MaxFrameBytes()))
	s.stats.ObserveStringBufferUsage(s.stringRing.InUse() * uint64(s.stringRing.MaxFrameBytes()))
	return did
}

func (s *sink) handleFrame(frame []byte, storageLevel, consoleLevel Level) {
	df, _, err := wire.DecodeFrame(frame)
	if err != nil {
		s.reportError("decode", "", "decode frame from data ring", err, ErrorLevelWarn)
		return
	}
	level := Level(df.Level)

	if level >= storageLevel && s.store != nil {
		if s.degraded.Load() {
			s.stats.RecordDropped()
		} else if err := s.store.appendFrame(frame); err != nil {
			s.degraded.Store(true)
			s.stats.RecordDropped()
			s.reportError("write", s.cfg.Load().Path, "append frame to chunk", err, ErrorLevelDegraded)
		} else {
			s.stats.RecordStored(len(frame))
		}
	}

	if level >= consoleLevel {
		s.writeConsole(df)
	}
}

func (s *sink) writeConsole(df wire.DecodedFrame) {
	resolve := func(id uint32) string { return string(s.table.Get(id)) }

	values := make([]string, len(df.Args))
	for i, a := range df.Args {
		values[i] = a.DisplayString(resolve)
	}
	formatStr := string(s.table.Get(df.FormatIdx))
	message, _ := format.Render(formatStr, values)

	in := FormatInput{
		TimestampNs:     df.TimestampNs,
		Level:           Level(df.Level),
		Category:        string(s.table.Get(df.CategoryIdx)),
		Thread:          string(s.table.Get(df.ThreadIdx)),
		Message:         message,
		Buffer:          df.Buffer,
		SessionOriginNs: s.sessionOriginNs,
	}
	_, _ = os.Stderr.WriteString(s.formatter.Load().Format(in) + "\n")
}

func (s *sink) refreshCatalog() {
	if s.store == nil {
		return
	}
	bytesByID, flagsByID := s.table.Snapshot()
	header := wire.Header{
		Version:           wire.FormatVersion,
		ClockResolutionNs: s.clockResolutionNs,
		SessionOriginNs:   s.sessionOriginNs,
	}
	if err := s.store.writeCatalog(header, bytesByID, flagsByID); err != nil {
		s.reportError("write", s.cfg.Load().Path, "refresh catalog", err, ErrorLevelWarn)
	}
}

func (s *sink) reportError(op, path, message string, err error, level ErrorLevel) {
	if s.errHandler == nil {
		return
	}
	s.errHandler(LogError{
		Operation: op,
		Path:      path,
		Message:   message,
		Err:       err,
		Level:     level,
		Timestamp: time.Now(),
	})
}
