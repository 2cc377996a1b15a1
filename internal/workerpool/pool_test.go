package workerpool

import (
	"fmt"
	"sync"
	"testing"
)

// fakeWorker implements Worker in-process, letting pool.go's dispatch
// logic be tested without spawning real OS processes.
type fakeWorker struct {
	mu        sync.Mutex
	processed []string
	failNext  bool
	cancelled bool
}

func (w *fakeWorker) ProcessDocument(req Request) (Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext {
		w.failNext = false
		return Response{}, fmt.Errorf("simulated worker crash")
	}
	w.processed = append(w.processed, req.DocID)
	return Response{Outcome: OutcomeOk, PageCount: 1}, nil
}

func (w *fakeWorker) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelled = true
	return nil
}

func newTestPool(workers ...Worker) *Pool {
	p := &Pool{chunkSize: 100, workerCount: len(workers)}
	for _, w := range workers {
		p.slots = append(p.slots, &workerSlot{worker: w})
	}
	return p
}

func TestSubmit_DispatchesAllJobsAcrossWorkers(t *testing.T) {
	w1, w2 := &fakeWorker{}, &fakeWorker{}
	p := newTestPool(w1, w2)

	jobs := []Job{{DocID: "a"}, {DocID: "b"}, {DocID: "c"}, {DocID: "d"}}
	var mu sync.Mutex
	seen := make(map[string]Response)

	p.Submit(jobs, 0.4, func(docID string, resp Response) {
		mu.Lock()
		defer mu.Unlock()
		seen[docID] = resp
	})

	if len(seen) != len(jobs) {
		t.Fatalf("want %d results, got %d: %v", len(jobs), len(seen), seen)
	}
	for _, j := range jobs {
		if seen[j.DocID].Outcome != OutcomeOk {
			t.Errorf("job %s: want outcome ok, got %+v", j.DocID, seen[j.DocID])
		}
	}
}

func TestSubmit_WorkerRPCFailureRespawnsAndReportsInternal(t *testing.T) {
	w := &fakeWorker{failNext: true}
	p := newTestPool(w)

	var got Response
	p.Submit([]Job{{DocID: "a"}}, 0.4, func(docID string, resp Response) {
		got = resp
	})

	if got.Outcome != OutcomeInternal {
		t.Fatalf("want internal_error outcome on RPC failure, got %+v", got)
	}
}

func TestCancel_SignalsEveryWorker(t *testing.T) {
	w1, w2 := &fakeWorker{}, &fakeWorker{}
	p := newTestPool(w1, w2)

	p.Cancel()

	if !w1.cancelled || !w2.cancelled {
		t.Errorf("want every worker to receive Cancel, got w1=%v w2=%v", w1.cancelled, w2.cancelled)
	}
	if !p.cancelled.Load() {
		t.Errorf("want pool-level cancelled flag set")
	}
}

func TestSubmit_CancelledPoolSkipsRemainingJobs(t *testing.T) {
	w := &fakeWorker{}
	p := newTestPool(w)
	p.cancelled.Store(true)

	var count int
	p.Submit([]Job{{DocID: "a"}, {DocID: "b"}}, 0.4, func(docID string, resp Response) {
		count++
	})

	if count != 0 {
		t.Errorf("want zero results dispatched once cancelled before Submit starts, got %d", count)
	}
}
