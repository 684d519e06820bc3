package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given a pool of 4 workers", t, func() {
		p := New(4)

		Convey("Submit runs every task exactly once", func() {
			const n = 200
			var count int64
			var wg sync.WaitGroup
			wg.Add(n)
			for i := 0; i < n; i++ {
				p.Submit(func() {
					atomic.AddInt64(&count, 1)
					wg.Done()
				})
			}
			wg.Wait()
			So(atomic.LoadInt64(&count), ShouldEqual, int64(n))
		})

		Convey("WaitUntilEmpty blocks until every submitted task has finished", func() {
			const n = 50
			var count int64
			for i := 0; i < n; i++ {
				p.Submit(func() {
					atomic.AddInt64(&count, 1)
				})
			}
			p.WaitUntilEmpty()
			So(atomic.LoadInt64(&count), ShouldEqual, int64(n))

			Convey("and it can be called again once the pool is idle", func() {
				p.WaitUntilEmpty()
				So(atomic.LoadInt64(&count), ShouldEqual, int64(n))
			})
		})

		Convey("Shutdown waits for in-flight tasks and returns", func() {
			var ran int32
			done := make(chan struct{})
			p.Submit(func() {
				atomic.StoreInt32(&ran, 1)
				close(done)
			})
			<-done
			p.Shutdown()
			So(atomic.LoadInt32(&ran), ShouldEqual, int32(1))
		})
	})

	Convey("New panics on a non-positive worker count", t, func() {
		So(func() { New(0) }, ShouldPanic)
	})
}
