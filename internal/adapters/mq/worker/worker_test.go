package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/duelodds/internal/adapters/mq/queue"
	worker "github.com/okian/duelodds/internal/adapters/mq/worker"
	model "github.com/okian/duelodds/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockEvaluator struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (m *mockEvaluator) Evaluate(_ context.Context, q model.Query) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.fail[q.ID]; ok {
		return 0, err
	}
	return float64(q.Events) / 100, nil
}

func (m *mockEvaluator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// slowEvaluator holds each job long enough for work to pile up in the queue.
type slowEvaluator struct {
	mockEvaluator
	delay time.Duration
}

func (s *slowEvaluator) Evaluate(ctx context.Context, q model.Query) (float64, error) {
	time.Sleep(s.delay)
	return s.mockEvaluator.Evaluate(ctx, q)
}

func submit(q *queue.InMemoryQueue, id string, events int) <-chan model.Result {
	reply := make(chan model.Result, 1)
	ok := q.Enqueue(context.Background(), queue.Job{
		ID:    id,
		Query: model.Query{ID: id, Kind: model.KindWin, Events: events, WinProb: 0.5},
		Reply: reply,
	})
	if !ok {
		panic("enqueue failed")
	}
	return reply
}

func await(ch <-chan model.Result) model.Result {
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		panic("timed out waiting for result")
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		eval := &mockEvaluator{fail: map[string]error{"bad": errors.New("boom")}}
		w := worker.NewInMemoryWorker(q, eval, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			r := await(submit(q, "ok", 12))

			convey.Convey("Then its result should be delivered with the query id", func() {
				convey.So(r.Err, convey.ShouldBeNil)
				convey.So(r.QueryID, convey.ShouldEqual, "ok")
				convey.So(r.Kind, convey.ShouldEqual, model.KindWin)
				convey.So(r.Probability, convey.ShouldAlmostEqual, 0.12)
			})
		})

		convey.Convey("When evaluation fails", func() {
			r := await(submit(q, "bad", 3))

			convey.Convey("Then the error should be carried in the result", func() {
				convey.So(r.Err, convey.ShouldNotBeNil)
				convey.So(r.Err.Error(), convey.ShouldEqual, "boom")
				convey.So(r.QueryID, convey.ShouldEqual, "bad")
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it should stop gracefully and tolerate a second call", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		eval := &mockEvaluator{}

		convey.Convey("When created with a non-positive worker count", func() {
			pool := worker.NewPool(0, q, eval, nil)

			convey.Convey("Then it should fall back to at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When started with several jobs queued", func() {
			pool := worker.NewPool(3, q, eval, nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			replies := make([]<-chan model.Result, 0, 20)
			for i := 0; i < 20; i++ {
				replies = append(replies, submit(q, "job", i))
			}
			results := make([]model.Result, 0, len(replies))
			for _, ch := range replies {
				results = append(results, await(ch))
			}

			convey.Convey("Then every job should be evaluated exactly once", func() {
				convey.So(len(results), convey.ShouldEqual, 20)
				convey.So(eval.count(), convey.ShouldEqual, 20)
				for i, r := range results {
					convey.So(r.Probability, convey.ShouldAlmostEqual, float64(i)/100)
				}
			})

			convey.Convey("And shutdown should close the queue", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shut down with jobs still queued behind a slow worker", func() {
			slow := &slowEvaluator{delay: 5 * time.Millisecond}
			pool := worker.NewPool(1, q, slow, nil)
			pool.Start(context.Background())

			replies := make([]<-chan model.Result, 0, 10)
			for i := 0; i < 10; i++ {
				replies = append(replies, submit(q, "queued", i))
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued job should be drained before it returns", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(slow.count(), convey.ShouldEqual, 10)
				for i, ch := range replies {
					select {
					case r := <-ch:
						convey.So(r.Err, convey.ShouldBeNil)
						convey.So(r.Probability, convey.ShouldAlmostEqual, float64(i)/100)
					default:
						t.Fatalf("job %d was abandoned at shutdown", i)
					}
				}
			})
		})

		convey.Convey("When shut down before it was started", func() {
			pool := worker.NewPool(2, q, eval, nil)

			convey.Convey("Then it should close the queue without waiting", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
