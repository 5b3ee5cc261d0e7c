package sslog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCollectorStartStopIdempotent(t *testing.T) {
	c := NewCollector()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	c.Stop()
	c.Stop()
}

func TestCollectorLogDropsWhenNotStarted(t *testing.T) {
	c := NewCollector()
	c.Log(LevelInfo, "net", "hello %s", []interface{}{"world"}, nil)
	stats := c.GetStats()
	if stats.DroppedLogs != 1 {
		t.Fatalf("DroppedLogs = %d, want 1", stats.DroppedLogs)
	}
}

func TestCollectorIsEnabledUsesLooserOfBothCriteria(t *testing.T) {
	c := NewCollector()
	if err := c.SetSink(SinkConfig{StorageLevel: LevelWarn, ConsoleLevel: LevelError}); err != nil {
		t.Fatalf("SetSink: %v", err)
	}
	if c.IsEnabled(LevelInfo) {
		t.Fatalf("IsEnabled(Info) = true, want false")
	}
	if !c.IsEnabled(LevelWarn) {
		t.Fatalf("IsEnabled(Warn) = false, want true")
	}
}

func TestCollectorIsEnabledGroupDefersWhenUnconfigured(t *testing.T) {
	c := NewCollector()
	if err := c.SetSink(SinkConfig{StorageLevel: LevelInfo, ConsoleLevel: LevelOff}); err != nil {
		t.Fatalf("SetSink: %v", err)
	}
	if !c.IsEnabledGroup("unused-group", LevelInfo) {
		t.Fatalf("IsEnabledGroup with no configured level should defer to IsEnabled")
	}
	c.SetGroupLevel("noisy", LevelError)
	if c.IsEnabledGroup("noisy", LevelInfo) {
		t.Fatalf("IsEnabledGroup should reject Info when group requires Error")
	}
}

func TestCollectorLogPersistsToStorage(t *testing.T) {
	dir := t.TempDir()
	c := NewCollector()
	if err := c.SetSink(SinkConfig{Path: dir, StorageLevel: LevelInfo, ConsoleLevel: LevelOff}); err != nil {
		t.Fatalf("SetSink: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Log(LevelInfo, "net", "request took %dms", []interface{}{42}, nil)
	c.Stop()

	stats := c.GetStats()
	if stats.StoredLogs != 1 {
		t.Fatalf("StoredLogs = %d, want 1", stats.StoredLogs)
	}
	if stats.StoredStrings == 0 {
		t.Fatalf("StoredStrings = 0, want > 0")
	}

	assertGlobMatches(t, dir, "catalog*")
	assertGlobMatches(t, dir, "chunk-*.bin")
}

func assertGlobMatches(t *testing.T, dir, pattern string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("Glob(%q): %v", pattern, err)
	}
	if len(matches) == 0 {
		t.Fatalf("no files matching %q in %s", pattern, dir)
	}
}

func TestCollectorLogBelowThresholdIsNotSubmitted(t *testing.T) {
	c := NewCollector()
	if err := c.SetSink(SinkConfig{StorageLevel: LevelWarn, ConsoleLevel: LevelOff}); err != nil {
		t.Fatalf("SetSink: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	c.Log(LevelDebug, "net", "noise", nil, nil)
	time.Sleep(20 * time.Millisecond)

	stats := c.GetStats()
	if stats.StoredLogs != 0 || stats.DroppedLogs != 0 {
		t.Fatalf("gated record should be neither stored nor dropped, got %+v", stats)
	}
}

func TestSetThreadNameRebindsCachedIdentity(t *testing.T) {
	c := NewCollector()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	c.SetThreadName("worker-1")
	id := threadContextFor(c.table).threadIdx
	if string(c.table.Get(id)) != "worker-1" {
		t.Fatalf("thread name = %q, want %q", c.table.Get(id), "worker-1")
	}
}
