package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/powerlog/internal/testutil"
	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
	"github.com/vnykmshr/powerlog/pkg/metrics"
)

// newTestLogger builds a running logger over a MockTarget with the given
// buffer and queue sizes.
func newTestLogger(t *testing.T, bufferSize, queueDepth int) (Logger, *testutil.MockTarget) {
	t.Helper()

	target := testutil.NewMockTarget()
	l := NewWithConfig(Config{
		BufferSize: bufferSize,
		QueueDepth: queueDepth,
		Target:     target,
	})
	testutil.AssertNoError(t, l.Start("session.dat"))
	return l, target
}

func TestNewDefaults(t *testing.T) {
	l := New()
	testutil.AssertEqual(t, l.State(), StateIdle)
	testutil.AssertEqual(t, l.Healthy(), true)
}

func TestStartValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		path   string
		want   error
	}{
		{"empty path", DefaultConfig(), "", ErrInvalidPath},
		{"negative buffer", Config{BufferSize: -1}, "x.dat", commonerrors.ErrInvalidConfiguration},
		{"negative queue", Config{QueueDepth: -3}, "x.dat", commonerrors.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Target = testutil.NewMockTarget()
			l := NewWithConfig(tt.config)
			err := l.Start(tt.path)
			testutil.AssertErrorIs(t, err, tt.want)
			testutil.AssertEqual(t, l.State(), StateIdle)
		})
	}
}

func TestQueueDepthOfOneIsRaised(t *testing.T) {
	target := testutil.NewMockTarget()
	l := NewWithConfig(Config{BufferSize: 4, QueueDepth: 1, Target: target})
	testutil.AssertNoError(t, l.Start("session.dat"))
	_, err := l.PushBytes(bytes.Repeat([]byte{7}, 16))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())
	testutil.AssertEqual(t, target.Len(), 16)
}

func TestPushBeforeStart(t *testing.T) {
	l := New()
	_, err := l.Push('a')
	testutil.AssertErrorIs(t, err, ErrNotRunning)
	testutil.AssertErrorIs(t, l.Finish(), ErrNotRunning)
}

func TestDoubleStart(t *testing.T) {
	l, _ := newTestLogger(t, 16, 3)
	testutil.AssertErrorIs(t, l.Start("other.dat"), ErrAlreadyStarted)
	testutil.AssertNoError(t, l.Finish())
}

func TestFinishedIsTerminal(t *testing.T) {
	l, _ := newTestLogger(t, 16, 3)
	testutil.AssertNoError(t, l.Finish())
	testutil.AssertEqual(t, l.State(), StateFinished)

	testutil.AssertErrorIs(t, l.Start("again.dat"), ErrFinished)
	_, err := l.Push('a')
	testutil.AssertErrorIs(t, err, ErrFinished)
	testutil.AssertErrorIs(t, l.Finish(), ErrFinished)
}

func TestEmptyFinish(t *testing.T) {
	l, target := newTestLogger(t, 16, 3)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, target.Len(), 0)
	testutil.AssertEqual(t, target.WriteCount(), 0)
	testutil.AssertEqual(t, target.SyncCount(), 0)
	testutil.AssertEqual(t, target.IsOpen(), false)
}

func TestContentMatchesPushOrder(t *testing.T) {
	l, target := newTestLogger(t, 32, 3)

	var want bytes.Buffer
	for i := 0; i < 300; i++ {
		b := byte(i % 251)
		_, err := l.Push(b)
		testutil.AssertNoError(t, err)
		want.WriteByte(b)
	}
	testutil.AssertNoError(t, l.Finish())

	if !bytes.Equal(target.Bytes(), want.Bytes()) {
		t.Fatalf("persisted %d bytes, want %d, contents differ", target.Len(), want.Len())
	}
}

func TestRotationEdge(t *testing.T) {
	tests := []struct {
		name        string
		bufferSize  int
		pushedBytes int
		wantRotated bool
		wantCount   int
	}{
		{"one short of full", 8, 7, false, 0},
		{"exactly full", 8, 8, true, 1},
		{"two and a bit", 8, 21, true, 2},
		{"exact multiple", 8, 24, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rotations := 0
			target := testutil.NewMockTarget()
			l := NewWithConfig(Config{
				BufferSize: tt.bufferSize,
				QueueDepth: 3,
				Target:     target,
				OnRotate:   func() { rotations++ },
			})
			testutil.AssertNoError(t, l.Start("session.dat"))

			rotated, err := l.PushBytes(bytes.Repeat([]byte{1}, tt.pushedBytes))
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, rotated, tt.wantRotated)
			testutil.AssertEqual(t, rotations, tt.wantCount)

			testutil.AssertNoError(t, l.Finish())
			testutil.AssertEqual(t, target.Len(), tt.pushedBytes)
		})
	}
}

func TestRotationEdgeIsPerCall(t *testing.T) {
	l, _ := newTestLogger(t, 4, 3)

	rotated, err := l.PushBytes([]byte{1, 2, 3, 4})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rotated, true)

	// The edge belongs to the call that crossed it; the next push starts
	// from a fresh buffer and reports no rotation.
	rotated, err = l.Push(5)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rotated, false)

	testutil.AssertNoError(t, l.Finish())
}

func TestPartialFinalBuffer(t *testing.T) {
	l, target := newTestLogger(t, 16, 3)

	_, err := l.PushBytes(bytes.Repeat([]byte{9}, 23))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, target.Len(), 23)
	testutil.AssertEqual(t, target.WriteCount(), 2)
}

func TestPushStringAndSingleByte(t *testing.T) {
	l, target := newTestLogger(t, 64, 3)

	_, err := l.PushString("volts,")
	testutil.AssertNoError(t, err)
	_, err = l.Push('1')
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, target.String(), "volts,1")
}

func TestBackpressureCompletes(t *testing.T) {
	const bufferSize = 64
	const queueDepth = 3

	l, target := newTestLogger(t, bufferSize, queueDepth)
	target.SetWriteDelay(time.Millisecond)

	// More data than the buffers and queue can hold at once, so the push
	// has to wait for the writer at least once.
	payload := make([]byte, (queueDepth+2)*bufferSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	rotated, err := l.PushBytes(payload)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rotated, true)
	testutil.AssertNoError(t, l.Finish())

	if !bytes.Equal(target.Bytes(), payload) {
		t.Fatalf("persisted %d bytes, want %d, contents differ", target.Len(), len(payload))
	}
}

func TestWriteFailurePoisonsSession(t *testing.T) {
	l, target := newTestLogger(t, 8, 3)
	target.SetAlwaysError(errors.New("device gone"))

	// Pushes keep succeeding: storage faults are reported through Healthy,
	// never through the push path.
	_, err := l.PushBytes(bytes.Repeat([]byte{1}, 40))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, l.Healthy(), false)
	testutil.AssertEqual(t, l.State(), StateFinished)
	testutil.AssertEqual(t, target.Len(), 0)
}

func TestLaterWriteFailureKeepsEarlierData(t *testing.T) {
	l, target := newTestLogger(t, 8, 3)
	target.SetErrorOnNth(2)

	_, err := l.PushBytes(bytes.Repeat([]byte{2}, 32))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, l.Healthy(), false)
	testutil.AssertEqual(t, target.Len(), 8)
}

func TestOpenFailurePoisonsSession(t *testing.T) {
	target := testutil.NewMockTarget()
	target.SetOpenError(errors.New("no such directory"))

	l := NewWithConfig(Config{BufferSize: 8, QueueDepth: 3, Target: target})
	testutil.AssertNoError(t, l.Start("missing/session.dat"))

	_, err := l.PushBytes(bytes.Repeat([]byte{3}, 20))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, l.Healthy(), false)
	testutil.AssertEqual(t, target.Len(), 0)
}

func TestSyncFailurePoisonsSession(t *testing.T) {
	l, target := newTestLogger(t, 8, 3)
	target.SetSyncError(errors.New("sync failed"))

	_, err := l.PushBytes(bytes.Repeat([]byte{4}, 8))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, l.Healthy(), false)
}

func TestPushContextCancel(t *testing.T) {
	const bufferSize = 4
	const queueDepth = 2

	l, target := newTestLogger(t, bufferSize, queueDepth)
	target.BlockWrites()

	// Fill both buffers: one payload held by the blocked writer, the other
	// queued behind it.
	payload := []byte("abcdefgh")
	_, err := l.PushBytes(payload)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The next push needs the first buffer back from the writer, which is
	// stuck, so the context has to cut the wait short.
	_, err = l.PushContext(ctx, []byte("ijkl"))
	testutil.AssertErrorIs(t, err, ErrSubmitCanceled)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)

	// The session stays usable after a canceled push.
	testutil.AssertEqual(t, l.State(), StateRunning)

	target.ReleaseWrites()
	testutil.AssertNoError(t, l.Finish())

	// The canceled push's bytes are lost; everything queued before it
	// persists in order.
	if !bytes.Equal(target.Bytes(), payload) {
		t.Fatalf("persisted %q, want %q", target.Bytes(), payload)
	}
}

func TestRotationWaitsForInFlightBuffer(t *testing.T) {
	const bufferSize = 4
	const queueDepth = 2

	l, target := newTestLogger(t, bufferSize, queueDepth)
	target.BlockWrites()

	// Two full rotations: the writer holds the first payload at the gate,
	// the second sits in the channel. Both buffers are now in flight.
	_, err := l.PushBytes([]byte("abcdefgh"))
	testutil.AssertNoError(t, err)

	// The next byte would land in the buffer the writer is still reading;
	// the push must block until that payload is persisted, not reuse it.
	pushed := make(chan struct{})
	go func() {
		if _, err := l.PushBytes([]byte("ijkl")); err != nil {
			t.Errorf("push failed: %v", err)
		}
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push completed while its buffer was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	target.ReleaseWrites()

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not complete after the writer drained")
	}
	testutil.AssertNoError(t, l.Finish())

	want := []byte("abcdefghijkl")
	if !bytes.Equal(target.Bytes(), want) {
		t.Fatalf("persisted %q, want %q", target.Bytes(), want)
	}
}

func TestConcurrentPushesStayContiguous(t *testing.T) {
	const workers = 4
	const pushesPerWorker = 100
	const chunk = 8

	l, target := newTestLogger(t, 64, 3)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(letter byte) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{letter}, chunk)
			for i := 0; i < pushesPerWorker; i++ {
				if _, err := l.PushBytes(payload); err != nil {
					t.Errorf("push failed: %v", err)
					return
				}
			}
		}(byte('a' + w))
	}
	wg.Wait()
	testutil.AssertNoError(t, l.Finish())

	data := target.Bytes()
	testutil.AssertEqual(t, len(data), workers*pushesPerWorker*chunk)

	// Each push call's bytes land contiguously, and with the buffer size a
	// multiple of the chunk size no call straddles a chunk boundary.
	counts := map[byte]int{}
	for i := 0; i < len(data); i += chunk {
		letter := data[i]
		for j := 1; j < chunk; j++ {
			if data[i+j] != letter {
				t.Fatalf("interleaved push at offset %d", i+j)
			}
		}
		counts[letter] += chunk
	}
	for w := 0; w < workers; w++ {
		testutil.AssertEqual(t, counts[byte('a'+w)], pushesPerWorker*chunk)
	}
}

func TestIndependentSequentialSessions(t *testing.T) {
	for i := 0; i < 3; i++ {
		l, target := newTestLogger(t, 16, 3)
		payload := []byte(fmt.Sprintf("session-%d", i))
		_, err := l.PushBytes(payload)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, l.Finish())
		testutil.AssertEqual(t, target.String(), string(payload))
	}
}

func TestFinishContext(t *testing.T) {
	l, target := newTestLogger(t, 16, 3)
	_, err := l.PushBytes([]byte("tail"))
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, l.FinishContext(ctx))
	testutil.AssertEqual(t, target.String(), "tail")
}

func TestStateString(t *testing.T) {
	testutil.AssertEqual(t, StateIdle.String(), "idle")
	testutil.AssertEqual(t, StateRunning.String(), "running")
	testutil.AssertEqual(t, StateFinished.String(), "finished")
	testutil.AssertEqual(t, State(42).String(), "unknown")
}

func TestMetricsLoggerBehavesLikeLogger(t *testing.T) {
	target := testutil.NewMockTarget()
	l := NewWithConfigAndMetrics(Config{
		BufferSize: 8,
		QueueDepth: 3,
		Target:     target,
	}, "test-session", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})

	ml, ok := l.(*MetricsLogger)
	if !ok {
		t.Fatal("expected a MetricsLogger")
	}
	testutil.AssertEqual(t, ml.MetricsEnabled(), true)

	testutil.AssertNoError(t, l.Start("session.dat"))
	rotated, err := l.PushBytes(bytes.Repeat([]byte{5}, 20))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rotated, true)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, target.Len(), 20)
	testutil.AssertEqual(t, l.State(), StateFinished)
	testutil.AssertEqual(t, l.Healthy(), true)

	ml.DisableMetrics()
	testutil.AssertEqual(t, ml.MetricsEnabled(), false)
}

func TestMetricsToggleDuringPushes(t *testing.T) {
	target := testutil.NewMockTarget()
	l := NewWithConfigAndMetrics(Config{
		BufferSize: 8,
		QueueDepth: 3,
		Target:     target,
	}, "toggled", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
	ml := l.(*MetricsLogger)

	testutil.AssertNoError(t, l.Start("session.dat"))

	// Toggling collection while pushes are in flight must be safe.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				ml.DisableMetrics()
			} else {
				ml.EnableMetrics(metrics.Config{Enabled: true})
			}
			ml.MetricsEnabled()
		}
	}()

	for i := 0; i < 200; i++ {
		_, err := l.PushBytes([]byte{byte(i), byte(i + 1)})
		testutil.AssertNoError(t, err)
	}
	close(stop)
	wg.Wait()

	testutil.AssertNoError(t, l.Finish())
	testutil.AssertEqual(t, target.Len(), 400)
}

func TestMetricsDisabledReturnsPlainLogger(t *testing.T) {
	l := NewWithConfigAndMetrics(Config{
		Target: testutil.NewMockTarget(),
	}, "plain", metrics.Config{Enabled: false})

	if _, ok := l.(*MetricsLogger); ok {
		t.Fatal("expected an unwrapped logger when metrics are disabled")
	}
}

func TestMetricsLoggerChainsOnRotate(t *testing.T) {
	rotations := 0
	target := testutil.NewMockTarget()
	l := NewWithConfigAndMetrics(Config{
		BufferSize: 4,
		QueueDepth: 3,
		Target:     target,
		OnRotate:   func() { rotations++ },
	}, "chained", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})

	testutil.AssertNoError(t, l.Start("session.dat"))
	_, err := l.PushBytes(bytes.Repeat([]byte{6}, 12))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Finish())

	testutil.AssertEqual(t, rotations, 3)
}

func BenchmarkPush(b *testing.B) {
	target := testutil.NewMockTarget()
	l := NewWithConfig(Config{Target: target})
	if err := l.Start("bench.dat"); err != nil {
		b.Fatal(err)
	}
	defer l.Finish()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := l.Push(byte(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPushBytes(b *testing.B) {
	target := testutil.NewMockTarget()
	l := NewWithConfig(Config{Target: target})
	if err := l.Start("bench.dat"); err != nil {
		b.Fatal(err)
	}
	defer l.Finish()

	payload := make([]byte, 256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := l.PushBytes(payload); err != nil {
			b.Fatal(err)
		}
	}
}
