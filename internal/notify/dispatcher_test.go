package notify

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Notice) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Notice) {
	<-s.gate
}

type gatedCountingSink struct {
	gate  chan struct{}
	count atomic.Int64
}

func (s *gatedCountingSink) Emit(context.Context, Notice) {
	<-s.gate
	s.count.Add(1)
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Notice{Text: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher must report zero drops")
	}
}

func TestCloseFlushesQueuedNotices(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Notice{Level: LevelSuccess, Text: "ok"})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 delivered notices, got %d", got)
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// first notice is picked up by the run loop and blocks in the sink,
	// second fills the buffer, the rest must be dropped.
	d.Emit(context.Background(), Notice{Text: "1"})
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Notice{Text: "n"})
	}

	if got := d.Dropped(); got != 4 {
		t.Fatalf("expected 4 dropped notices, got %d", got)
	}

	close(sink.gate)
	d.Close()
}

func TestBlockingEmitHonorsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: false}, sink)

	d.Emit(context.Background(), Notice{Text: "1"})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), Notice{Text: "2"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Emit(ctx, Notice{Text: "3"})
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("expected emit to block until context deadline")
	}

	close(sink.gate)
	d.Close()
}

func TestStaleNoticesAreDiscarded(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	sink := &gatedCountingSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, Now: clock}, sink)

	// the first notice holds the sink while the rest wait in the buffer.
	d.Emit(context.Background(), Notice{Text: "first"})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), Notice{Text: "short", Expires: now.Add(time.Second)})
	d.Emit(context.Background(), Notice{Text: "long", Expires: now.Add(time.Minute)})
	d.Emit(context.Background(), Notice{Text: "forever"})

	mu.Lock()
	now = now.Add(5 * time.Second)
	mu.Unlock()
	close(sink.gate)
	d.Close()

	if got := d.Stale(); got != 1 {
		t.Fatalf("expected 1 stale notice, got %d", got)
	}
	if got := sink.count.Load(); got != 3 {
		t.Fatalf("expected 3 delivered notices, got %d", got)
	}
}

func TestNoticeStale(t *testing.T) {
	at := time.Unix(100, 0)
	if (Notice{}).Stale(at) {
		t.Fatalf("notice without deadline must never be stale")
	}
	n := Notice{Expires: at}
	if n.Stale(at) {
		t.Fatalf("notice is still fresh at its deadline")
	}
	if !n.Stale(at.Add(time.Nanosecond)) {
		t.Fatalf("notice past its deadline must be stale")
	}
}

func TestWriterSinkWritesDisplayText(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, NewWriterSink(&buf))

	d.Emit(context.Background(), Notice{Level: LevelError, Message: "boom", Text: "[错误] boom"})
	d.Close()

	if got := strings.TrimSpace(buf.String()); got != "[错误] boom" {
		t.Fatalf("unexpected writer output %q", got)
	}
}

func TestJSONWriterSinkOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Notice{Level: LevelWarning, Message: "a", Text: "[提示] a"})
	sink.Emit(context.Background(), Notice{Level: LevelSuccess, Message: "b", Text: "b"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"warning"`) {
		t.Fatalf("expected warning level in first line, got %s", lines[0])
	}
}
