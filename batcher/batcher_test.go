package batcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"gongtp/board"
	"gongtp/pool"
)

// stubRunner echoes back a fixed value per input, or fails when told to.
type stubRunner struct {
	mu      sync.Mutex
	batches [][]*board.FeatureSet
	fail    bool
}

func (r *stubRunner) Run(inputs []*board.FeatureSet) ([]Output, error) {
	r.mu.Lock()
	r.batches = append(r.batches, inputs)
	fail := r.fail
	r.mu.Unlock()

	if fail {
		return nil, errors.New("stub: model failure")
	}
	outs := make([]Output, len(inputs))
	for i := range inputs {
		outs[i] = Output{Value: float32(i)}
	}
	return outs, nil
}

func (r *stubRunner) numBatches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestInferenceBatcherBatchFull(t *testing.T) {
	Convey("Given a batcher with batch size 3 and a long deadline", t, func() {
		runner := &stubRunner{}
		callbacks := pool.New(2)
		b := New(3, time.Hour, runner, callbacks)
		defer b.Shutdown()

		Convey("adding batchSize tasks flushes immediately", func() {
			var wg sync.WaitGroup
			wg.Add(3)
			results := make([]bool, 3)
			for i := 0; i < 3; i++ {
				i := i
				b.Add(board.NewFeatureSet(5, 5), func(ok bool, out Output) {
					results[i] = ok
					wg.Done()
				})
			}
			wg.Wait()
			So(runner.numBatches(), ShouldEqual, 1)
			for _, ok := range results {
				So(ok, ShouldBeTrue)
			}
		})
	})
}

func TestInferenceBatcherDeadlineFlush(t *testing.T) {
	Convey("Given a batcher with a short deadline and a batch size never reached", t, func() {
		runner := &stubRunner{}
		callbacks := pool.New(2)
		b := New(100, 20*time.Millisecond, runner, callbacks)
		defer b.Shutdown()

		Convey("a single task still flushes once the deadline elapses", func() {
			done := make(chan struct{})
			var ok bool
			b.Add(board.NewFeatureSet(5, 5), func(cbOk bool, out Output) {
				ok = cbOk
				close(done)
			})

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("deadline flush never fired")
			}
			So(ok, ShouldBeTrue)
		})
	})
}

func TestInferenceBatcherModelFailureFansOut(t *testing.T) {
	Convey("Given a batcher whose model always fails", t, func() {
		runner := &stubRunner{fail: true}
		callbacks := pool.New(2)
		b := New(2, time.Hour, runner, callbacks)
		defer b.Shutdown()

		Convey("every task in the batch gets ok=false", func() {
			var wg sync.WaitGroup
			wg.Add(2)
			oks := make([]bool, 2)
			for i := 0; i < 2; i++ {
				i := i
				oks[i] = true
				b.Add(board.NewFeatureSet(5, 5), func(ok bool, out Output) {
					oks[i] = ok
					wg.Done()
				})
			}
			wg.Wait()
			So(oks[0], ShouldBeFalse)
			So(oks[1], ShouldBeFalse)
		})
	})
}

func TestInferenceBatcherTracksInferenceSeconds(t *testing.T) {
	Convey("Given a batcher that dispatches two batches", t, func() {
		runner := &stubRunner{}
		callbacks := pool.New(2)
		b := New(1, time.Hour, runner, callbacks)
		defer b.Shutdown()

		Convey("InferenceSeconds accumulates across dispatches and never regresses", func() {
			So(b.InferenceSeconds(), ShouldEqual, 0)

			done := make(chan struct{}, 2)
			b.Add(board.NewFeatureSet(5, 5), func(ok bool, out Output) { done <- struct{}{} })
			<-done
			first := b.InferenceSeconds()
			So(first, ShouldBeGreaterThanOrEqualTo, 0)

			b.Add(board.NewFeatureSet(5, 5), func(ok bool, out Output) { done <- struct{}{} })
			<-done
			So(b.InferenceSeconds(), ShouldBeGreaterThanOrEqualTo, first)
		})
	})
}

func TestInferenceBatcherShutdownFlushesRemainder(t *testing.T) {
	Convey("Given a batcher with tasks buffered below batch size", t, func() {
		runner := &stubRunner{}
		callbacks := pool.New(2)
		b := New(10, time.Hour, runner, callbacks)

		Convey("Shutdown flushes the remainder before returning", func() {
			done := make(chan struct{})
			var ok bool
			b.Add(board.NewFeatureSet(5, 5), func(cbOk bool, out Output) {
				ok = cbOk
				close(done)
			})
			b.Shutdown()
			<-done
			So(ok, ShouldBeTrue)
			callbacks.Shutdown()
		})
	})
}
