// Package batcher implements InferenceBatcher: it collects independent
// model-scoring requests, batches them by size or by a deadline, runs a
// caller-supplied model once per batch, and fans the per-task outputs back
// out via callbacks dispatched on a worker pool rather than inline.
//
// Grounded on model/tf_client.h/.cc (TensorFlowClient's buffer-or-deadline
// batching) and on tabular/reinforcement's use of
// github.com/niceyeti/channerics/channels for its alarm ticker.
package batcher

import (
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"gongtp/board"
	"gongtp/pool"
	"gongtp/stats"
)

// Output is one task's slice of a batch's model output: a policy value per
// board cell, and a scalar value-network estimate.
type Output struct {
	Policy []float32
	Value  float32
}

// ModelRunner runs model inference on a stacked batch of feature sets,
// returning one Output per input in the same order. It stands in for the
// reference's TensorFlowClient/tf::Session — the neural network runtime
// itself is outside this module's scope.
type ModelRunner interface {
	Run(inputs []*board.FeatureSet) ([]Output, error)
}

type task struct {
	input *board.FeatureSet
	cb    func(ok bool, out Output)
}

// InferenceBatcher buffers Add calls and flushes them as a batch either once
// batchSize tasks have accumulated, or on the next tick of an alarm that
// fires every maxQueueDelay, whichever comes first. The alarm period is not
// tied to when a task arrived, so a task waits at most about maxQueueDelay.
type InferenceBatcher struct {
	batchSize int
	runner    ModelRunner
	callbacks *pool.Pool

	mu     sync.Mutex
	buffer []task

	done      chan struct{}
	alarmOnce sync.Once
	alarmWg   sync.WaitGroup

	// inferenceSeconds accumulates model wall-clock time across every
	// dispatched batch. dispatch's runner.Run call runs outside b.mu, so
	// concurrent flushes (a full-buffer Add racing the alarm, or two
	// full-buffer Adds) update this concurrently — an atomic CAS loop
	// avoids serializing the hot dispatch path behind a second mutex.
	inferenceSeconds *stats.Float64
}

// New builds a batcher. callbacks is the worker pool task callbacks are
// dispatched on — never called inline, matching the reference's explicit
// "NOT inline" flushing protocol.
func New(batchSize int, maxQueueDelay time.Duration, runner ModelRunner, callbacks *pool.Pool) *InferenceBatcher {
	if batchSize <= 0 {
		panic("batcher: batchSize must be positive")
	}
	b := &InferenceBatcher{
		batchSize:        batchSize,
		runner:           runner,
		callbacks:        callbacks,
		done:             make(chan struct{}),
		inferenceSeconds: stats.NewFloat64(0),
	}
	b.alarmWg.Add(1)
	go b.alarmLoop(maxQueueDelay)
	return b
}

func (b *InferenceBatcher) alarmLoop(delay time.Duration) {
	defer b.alarmWg.Done()
	for range channerics.NewTicker(b.done, delay) {
		b.Flush()
	}
}

// Add appends a scoring request. If the buffer reaches batchSize, the batch
// is drained and dispatched immediately.
func (b *InferenceBatcher) Add(input *board.FeatureSet, cb func(ok bool, out Output)) {
	b.mu.Lock()
	b.buffer = append(b.buffer, task{input: input, cb: cb})
	var drained []task
	if len(b.buffer) >= b.batchSize {
		drained = b.buffer
		b.buffer = nil
	}
	b.mu.Unlock()

	if drained != nil {
		b.dispatch(drained)
	}
}

// Flush drains and dispatches whatever is currently buffered, if anything.
func (b *InferenceBatcher) Flush() {
	b.mu.Lock()
	drained := b.buffer
	b.buffer = nil
	b.mu.Unlock()

	if len(drained) > 0 {
		b.dispatch(drained)
	}
}

// dispatch runs the model once for the whole batch and schedules each
// task's callback on the callback pool with its slice of the output. A
// model failure is fanned out to every callback as ok=false.
func (b *InferenceBatcher) dispatch(tasks []task) {
	inputs := make([]*board.FeatureSet, len(tasks))
	for i, t := range tasks {
		inputs[i] = t.input
	}

	start := time.Now()
	outputs, err := b.runner.Run(inputs)
	elapsed := time.Since(start).Seconds()
	for {
		if _, ok := b.inferenceSeconds.Add(elapsed); ok {
			break
		}
	}

	for i, t := range tasks {
		t := t
		if err != nil {
			b.callbacks.Submit(func() { t.cb(false, Output{}) })
			continue
		}
		out := outputs[i]
		b.callbacks.Submit(func() { t.cb(true, out) })
	}
}

// InferenceSeconds reports cumulative model wall-clock time across every
// dispatched batch, for diagnostics.
func (b *InferenceBatcher) InferenceSeconds() float64 {
	return b.inferenceSeconds.Load()
}

// Shutdown stops the alarm goroutine, performs a final flush, and waits for
// the alarm goroutine to exit. Shutdown does not own the callback pool or
// the ModelRunner's underlying session — the caller must tear those down
// only after Shutdown returns, since a scheduled callback may still
// reference them until the callback pool itself drains.
func (b *InferenceBatcher) Shutdown() {
	b.alarmOnce.Do(func() { close(b.done) })
	b.alarmWg.Wait()
	b.Flush()
}
