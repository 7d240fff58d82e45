package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_RecordDeduplicates(t *testing.T) {
	l := NewLedger()
	at := time.Unix(100, 0)

	first, added := l.Record(7, true, at)
	require.True(t, added)
	assert.Equal(t, Sighting{ID: 7, Position: 1, IsTarget: true, FirstSeen: at}, first)

	again, added := l.Record(7, false, at.Add(time.Minute))
	assert.False(t, added)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_LookupAndSnapshot(t *testing.T) {
	l := NewLedger()
	l.Record(3, false, time.Time{})
	l.Record(1, true, time.Time{})

	rec, ok := l.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Position)

	_, ok = l.Lookup(99)
	assert.False(t, ok)

	snap := l.Snapshot()
	snap[0].Position = 42
	rec, _ = l.Lookup(3)
	assert.Equal(t, 1, rec.Position, "snapshot must be a copy")
}

func TestLedger_ClearResetsSeenSet(t *testing.T) {
	l := NewLedger()
	l.Record(3, false, time.Time{})
	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Seen(3))
	rec, added := l.Record(3, false, time.Time{})
	assert.True(t, added)
	assert.Equal(t, 1, rec.Position)
	assert.NoError(t, l.Verify())
}

func TestLedger_VerifyDetectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(l *Ledger)
	}{
		{"duplicate position", func(l *Ledger) { l.records[1].Position = 1 }},
		{"orphan seen entry", func(l *Ledger) { l.seen[77] = 0 }},
		{"missing seen entry", func(l *Ledger) { delete(l.seen, 2) }},
		{"record appended without seen", func(l *Ledger) {
			l.records = append(l.records, Sighting{ID: 9, Position: 3})
		}},
		{"duplicate id", func(l *Ledger) {
			l.records = append(l.records, Sighting{ID: 1, Position: 3})
			l.seen[55] = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			l.Record(1, false, time.Time{})
			l.Record(2, false, time.Time{})
			require.NoError(t, l.Verify())

			tt.mangle(l)
			err := l.Verify()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLedgerCorrupt))
		})
	}
}

func TestTargetSet(t *testing.T) {
	ts := NewTargetSet()
	assert.Equal(t, 2, ts.Union([]int{9, 1, 9}))
	assert.Equal(t, 1, ts.Union([]int{1, 4}))
	assert.True(t, ts.Contains(4))
	assert.False(t, ts.Contains(5))
	assert.Equal(t, []int{1, 4, 9}, ts.Sorted())
	assert.Equal(t, 3, ts.Len())

	ts.Clear()
	assert.Equal(t, 0, ts.Len())
	assert.Equal(t, []int{}, ts.Sorted())
}

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{ModeMemorize, ModeDetect} {
		b, err := m.MarshalText()
		require.NoError(t, err)
		var back Mode
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, m, back)
	}

	_, err := Mode(7).MarshalText()
	assert.Error(t, err)
	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("hunt")))
	assert.Equal(t, "unknown", Mode(7).String())
}
