package recognize

import (
	"context"
	"log"
	"sync"
)

type task struct {
	photoID int64
	path    string
}

// Queue feeds uploaded photos to the resolution engine from a single
// background worker. Uploads return immediately; a failed photo is logged
// and left unprocessed without affecting the rest of the queue.
type Queue struct {
	service *Service
	tasks   chan task
	wg      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewQueue starts the background worker.
func NewQueue(ctx context.Context, service *Service, buffer int) *Queue {
	q := &Queue{
		service: service,
		tasks:   make(chan task, buffer),
	}
	q.wg.Add(1)
	go q.worker(ctx)
	return q
}

// Enqueue schedules a photo for processing. Returns false when the queue is
// full or already stopped.
func (q *Queue) Enqueue(photoID int64, path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	select {
	case q.tasks <- task{photoID: photoID, path: path}:
		return true
	default:
		return false
	}
}

// Stop drains the queue and waits for the worker to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.tasks)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for t := range q.tasks {
		if ctx.Err() != nil {
			return
		}
		faces, err := q.service.ProcessPhoto(ctx, t.photoID, t.path)
		if err != nil {
			log.Printf("process photo %d: %v", t.photoID, err)
			continue
		}
		log.Printf("photo %d processed, %d faces resolved", t.photoID, faces)
	}
}
