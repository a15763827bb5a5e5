package feed

import (
	"testing"
)

func TestEntryID(t *testing.T) {
	t.Run("same inputs same id", func(t *testing.T) {
		a := EntryID("2026-01-15T10:00:00Z", "SOC low on unit 4")
		b := EntryID("2026-01-15T10:00:00Z", "SOC low on unit 4")
		if a != b {
			t.Errorf("expected identical ids, got %q / %q", a, b)
		}
	})

	t.Run("content beyond fragment is ignored", func(t *testing.T) {
		a := EntryID("2026-01-15T10:00:00Z", "0123456789abcdef-tail-one")
		b := EntryID("2026-01-15T10:00:00Z", "0123456789abcdef-tail-two")
		if a != b {
			t.Errorf("expected fragment-limited ids to match, got %q / %q", a, b)
		}
	})

	t.Run("different timestamps differ", func(t *testing.T) {
		a := EntryID("2026-01-15T10:00:00Z", "same")
		b := EntryID("2026-01-15T10:00:01Z", "same")
		if a == b {
			t.Error("expected different ids")
		}
	})

	t.Run("multibyte content", func(t *testing.T) {
		id := EntryID("2026-01-15T10:00:00Z", "电池组四号电量低于百分之二十注意处理")
		if id == "" {
			t.Error("expected id")
		}
	})
}

func TestBuffer_Insert(t *testing.T) {
	t.Run("idempotent by id", func(t *testing.T) {
		b := NewBuffer()

		if !b.Insert(NewEntry("SOC low", "2026-01-15T10:00:00Z")) {
			t.Error("expected first insert to succeed")
		}
		if b.Insert(NewEntry("SOC low", "2026-01-15T10:00:00Z")) {
			t.Error("expected duplicate insert to be rejected")
		}
		if b.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", b.Len())
		}
	})

	t.Run("sorted newest first", func(t *testing.T) {
		b := NewBuffer()
		b.Insert(NewEntry("older", "2026-01-15T09:00:00Z"))
		b.Insert(NewEntry("newest", "2026-01-15T11:00:00Z"))
		b.Insert(NewEntry("middle", "2026-01-15T10:00:00Z"))

		got := b.Snapshot()
		if got[0].Content != "newest" || got[1].Content != "middle" || got[2].Content != "older" {
			t.Errorf("unexpected order: %+v", got)
		}
	})

	t.Run("out of order arrival is reconciled", func(t *testing.T) {
		b := NewBuffer()
		// B 先到，A 后到，但 A 更早
		b.Insert(NewEntry("B", "2026-01-15T10:05:00Z"))
		b.Insert(NewEntry("A", "2026-01-15T10:01:00Z"))

		got := b.Snapshot()
		if got[0].Content != "B" || got[1].Content != "A" {
			t.Errorf("expected B then A (newest first), got %+v", got)
		}
	})
}

func TestBuffer_MarkRead(t *testing.T) {
	b := NewBuffer()
	e := NewEntry("note", "2026-01-15T10:00:00Z")
	b.Insert(e)

	if !b.MarkRead(e.ID) {
		t.Error("expected MarkRead to succeed")
	}
	if b.MarkRead("missing") {
		t.Error("expected MarkRead on missing id to fail")
	}
	if b.Unread() != 0 {
		t.Errorf("expected 0 unread, got %d", b.Unread())
	}

	got := b.Snapshot()
	if !got[0].Read {
		t.Error("expected entry to be marked read")
	}
}

func TestBuffer_Remove(t *testing.T) {
	b := NewBuffer()
	e1 := NewEntry("one", "2026-01-15T10:00:00Z")
	e2 := NewEntry("two", "2026-01-15T11:00:00Z")
	b.Insert(e1)
	b.Insert(e2)

	if !b.Remove(e1.ID) {
		t.Error("expected Remove to succeed")
	}
	if b.Remove(e1.ID) {
		t.Error("expected second Remove to fail")
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", b.Len())
	}

	// 删除后可以重新插入
	if !b.Insert(e1) {
		t.Error("expected reinsert after remove to succeed")
	}
}
