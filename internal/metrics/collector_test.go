package metrics

import "testing"

func TestCollectorRecordStored(t *testing.T) {
	c := NewCollector()
	c.RecordStored(128)
	c.RecordStored(64)
	c.RecordDropped()

	snap := c.Snapshot()
	if snap.StoredLogs != 2 {
		t.Errorf("StoredLogs = %d, want 2", snap.StoredLogs)
	}
	if snap.StoredBytes != 192 {
		t.Errorf("StoredBytes = %d, want 192", snap.StoredBytes)
	}
	if snap.DroppedLogs != 1 {
		t.Errorf("DroppedLogs = %d, want 1", snap.DroppedLogs)
	}
}

func TestCollectorRecordStoredString(t *testing.T) {
	c := NewCollector()
	c.RecordStoredString()
	c.RecordStoredString()

	if got := c.Snapshot().StoredStrings; got != 2 {
		t.Errorf("StoredStrings = %d, want 2", got)
	}
}

func TestObserveDataBufferUsageKeepsMax(t *testing.T) {
	c := NewCollector()
	c.ObserveDataBufferUsage(100)
	c.ObserveDataBufferUsage(40)
	c.ObserveDataBufferUsage(250)
	c.ObserveDataBufferUsage(10)

	if got := c.Snapshot().MaxUsageDataBufferBytes; got != 250 {
		t.Errorf("MaxUsageDataBufferBytes = %d, want 250", got)
	}
}

func TestObserveStringBufferUsageKeepsMax(t *testing.T) {
	c := NewCollector()
	c.ObserveStringBufferUsage(5)
	c.ObserveStringBufferUsage(9)
	c.ObserveStringBufferUsage(3)

	if got := c.Snapshot().MaxUsageStringBufferBytes; got != 9 {
		t.Errorf("MaxUsageStringBufferBytes = %d, want 9", got)
	}
}
