package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 4, 9, 5, 7, 0, time.UTC)
}

func TestLines_PrintfStampsAndOrders(t *testing.T) {
	l := NewLines(WithClock(fixedClock))
	l.Printf("Processing %s", "a.xlsx")
	l.Printf("Appended %d rows", 3)

	assert.Equal(t, []string{
		"[09:05:07] Processing a.xlsx",
		"[09:05:07] Appended 3 rows",
	}, l.Lines())
}

func TestLines_Bounded(t *testing.T) {
	l := NewLines(WithClock(fixedClock), WithMaxLines(3))
	for i := 0; i < 5; i++ {
		l.Printf("line %d", i)
	}

	lines := l.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "[09:05:07] line 2", lines[0])
	assert.Equal(t, "[09:05:07] line 4", lines[2])
}

func TestLines_Tail(t *testing.T) {
	l := NewLines(WithClock(fixedClock), WithMaxLines(0))
	for i := 0; i < 10; i++ {
		l.Printf("line %d", i)
	}

	assert.Len(t, l.Lines(), 10)
	assert.Equal(t, []string{"[09:05:07] line 8", "[09:05:07] line 9"}, l.Tail(2))
	assert.Len(t, l.Tail(0), 10)
	assert.Len(t, l.Tail(50), 10)
}

func TestLines_MirrorsToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLines(WithClock(fixedClock), WithWriter(&buf))
	l.Printf("hello")

	assert.Equal(t, "[09:05:07] hello\n", buf.String())
}

func TestLines_CopyIsIndependent(t *testing.T) {
	l := NewLines(WithClock(fixedClock))
	l.Printf("one")
	got := l.Lines()
	got[0] = "mutated"

	assert.Equal(t, "[09:05:07] one", l.Lines()[0])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Printf("ignored %s", fmt.Sprint(1))
	})
}

func TestLines_MirrorsToLoggerAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	l := NewLines(WithClock(fixedClock), WithLogger(logger))
	l.Printf("Appended %d rows", 3)

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), `msg="Appended 3 rows"`)
}
