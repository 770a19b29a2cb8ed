package worker

import (
	"context"
	"errors"
	"hash/maphash"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// KeyedPool runs tasks on a fixed set of workers, routing every task to a
// worker picked by its key. Tasks sharing a key land on the same worker's
// queue and therefore run strictly in submission order; tasks with
// different keys run concurrently. This is what serializes event handling
// per conversation without locking the whole store.
type KeyedPool struct {
	wg     sync.WaitGroup
	queues []chan Task
	quit   chan struct{}
	seed   maphash.Seed
	log    *zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewKeyedPool(workers, depth int, logger *zerolog.Logger) *KeyedPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if depth <= 0 {
		depth = 32
	}
	queues := make([]chan Task, workers)
	for i := range queues {
		queues[i] = make(chan Task, depth)
	}
	return &KeyedPool{
		queues: queues,
		quit:   make(chan struct{}),
		seed:   maphash.MakeSeed(),
		log:    logger,
	}
}

func (p *KeyedPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i, q := range p.queues {
			p.wg.Add(1)
			go func(id int, jobs <-chan Task) {
				defer p.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case <-p.quit:
						return
					case task := <-jobs:
						if task == nil {
							continue
						}
						if err := task(ctx); err != nil {
							p.log.Error().Int("worker", id).Err(err).Msg("task failed")
						}
					}
				}
			}(i, q)
		}
	})
}

// Stop signals workers to exit and waits for in-flight tasks to finish.
// Queued but unstarted tasks are discarded.
func (p *KeyedPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

var ErrPoolStopped = errors.New("worker pool stopped")

// Submit enqueues a task on the worker owning the key. It blocks while
// that worker's queue is full, so submission order per key is preserved
// and no task is silently dropped.
func (p *KeyedPool) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	var h maphash.Hash
	h.SetSeed(p.seed)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(key) >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	q := p.queues[h.Sum64()%uint64(len(p.queues))]

	select {
	case q <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
