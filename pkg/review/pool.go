package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	minPoolSize = 1
	maxPoolSize = 8
)

// PoolConfig sizes the pool and names the engine setups to try while
// bringing workers up.
type PoolConfig struct {
	Engine   EngineConfig
	Primary  EngineVariant
	Fallback EngineVariant
	Size     int
}

type poolState int

const (
	poolIdle poolState = iota
	poolReady
	poolClosed
)

// EnginePool owns a fixed set of engine workers and hands them out
// through an idle queue: Acquire blocks until a worker is free and
// Release puts it back, so a worker can never be scheduled twice at
// once. Workers that fail to initialize with the primary variant are
// retried with the fallback; the pool comes up as long as at least one
// worker survives.
type EnginePool struct {
	cfg PoolConfig
	log *zap.SugaredLogger

	// spawn is swappable in tests.
	spawn func(EngineConfig, EngineVariant, *zap.SugaredLogger) (*EngineHandle, error)

	mu      sync.Mutex
	state   poolState
	workers []*EngineHandle
	idle    chan Evaluator
}

func NewEnginePool(cfg PoolConfig, log *zap.SugaredLogger) *EnginePool {
	return &EnginePool{cfg: cfg, log: ensureLogger(log), spawn: NewEngineHandle}
}

// Initialize brings the workers up concurrently. The configured size
// is clamped to [1, 8]. Initialization succeeds if at least one worker
// comes up; ErrInitFailed reports that none did.
func (p *EnginePool) Initialize(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case poolReady:
		p.mu.Unlock()
		return errors.New("engine pool: already initialized")
	case poolClosed:
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	size := p.cfg.Size
	if size < minPoolSize {
		size = minPoolSize
	}
	if size > maxPoolSize {
		size = maxPoolSize
	}

	handles := make([]*EngineHandle, size)
	errs := make([]error, size)
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := p.spawn(p.cfg.Engine, p.cfg.Primary, p.log)
			if err != nil && p.cfg.Fallback.Name != "" {
				p.log.Warnw("primary engine variant failed, trying fallback",
					"worker", i, "variant", p.cfg.Primary.Name, "error", err)
				h, err = p.spawn(p.cfg.Engine, p.cfg.Fallback, p.log)
			}
			handles[i], errs[i] = h, err
		}(i)
	}
	wg.Wait()

	var survivors []*EngineHandle
	var firstErr error
	for i, h := range handles {
		if h != nil {
			survivors = append(survivors, h)
			continue
		}
		p.log.Errorw("engine worker failed to initialize", "worker", i, "error", errs[i])
		if firstErr == nil {
			firstErr = errs[i]
		}
	}
	if err := ctx.Err(); err != nil {
		for _, h := range survivors {
			h.Shutdown()
		}
		return err
	}
	if len(survivors) == 0 {
		if firstErr != nil {
			return fmt.Errorf("%w: %v", ErrInitFailed, firstErr)
		}
		return ErrInitFailed
	}

	idle := make(chan Evaluator, len(survivors))
	for _, h := range survivors {
		idle <- h
	}
	p.mu.Lock()
	if p.state == poolClosed {
		p.mu.Unlock()
		for _, h := range survivors {
			h.Shutdown()
		}
		return ErrPoolClosed
	}
	p.workers = survivors
	p.idle = idle
	p.state = poolReady
	p.mu.Unlock()
	p.log.Infow("engine pool ready", "workers", len(survivors), "requested", size)
	return nil
}

// Acquire blocks until a worker is free, the context is done or the
// pool shuts down.
func (p *EnginePool) Acquire(ctx context.Context) (Evaluator, error) {
	p.mu.Lock()
	state, idle := p.state, p.idle
	p.mu.Unlock()
	switch state {
	case poolIdle:
		return nil, ErrPoolNotReady
	case poolClosed:
		return nil, ErrPoolClosed
	}
	select {
	case w, ok := <-idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release puts an acquired worker back on the idle queue. After
// Shutdown the worker has already been closed and is simply dropped.
func (p *EnginePool) Release(w Evaluator) {
	if w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != poolReady {
		return
	}
	select {
	case p.idle <- w:
	default:
		p.log.Warnw("worker released twice, dropping")
	}
}

// Workers reports how many workers survived initialization.
func (p *EnginePool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Shutdown interrupts in-flight searches and terminates every worker.
// Pending Acquire calls fail with ErrPoolClosed. Idempotent.
func (p *EnginePool) Shutdown() {
	p.mu.Lock()
	if p.state == poolClosed {
		p.mu.Unlock()
		return
	}
	wasReady := p.state == poolReady
	p.state = poolClosed
	workers := p.workers
	idle := p.idle
	p.mu.Unlock()

	if wasReady && idle != nil {
		close(idle)
	}
	for _, h := range workers {
		h.Stop()
	}
	for _, h := range workers {
		h.Shutdown()
	}
	if wasReady {
		p.log.Infow("engine pool shut down", "workers", len(workers))
	}
}
