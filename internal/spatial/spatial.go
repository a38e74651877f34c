// Package spatial wraps the bare index containers with the locking
// discipline they leave to callers, plus optional background rebalancing.
package spatial

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"terra/internal/geom"
	"terra/internal/index/kdtree"
	"terra/internal/logging"
)

// WithRebalanceInterval schedules a periodic rebalance of the wrapped tree.
// Zero disables the scheduler.
func WithRebalanceInterval(d time.Duration) Option {
	return func(i *Index) {
		i.opts.rebalanceInterval = d
	}
}

type Option func(*Index)

type Options struct {
	rebalanceInterval time.Duration
}

// Index is a synchronized point index: a KD-tree behind an RWMutex with an
// optional rebalance scheduler. Mutations are cheap; rebalancing runs in
// the background only after the tree has actually changed.
type Index struct {
	mtx    sync.RWMutex
	opts   Options
	tree   *kdtree.Tree
	opCnt  int
	cancel func()
}

func NewIndex(ctx context.Context, dims int, opts ...Option) (*Index, error) {
	tree, err := kdtree.New(dims)
	if err != nil {
		return nil, err
	}
	idx := &Index{tree: tree}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.opts.rebalanceInterval > 0 {
		sctx, cancel := context.WithCancel(ctx)
		idx.cancel = cancel
		go idx.schedule(sctx)
	}
	return idx, nil
}

func (i *Index) Close() {
	if i.cancel != nil {
		i.cancel()
	}
}

func (i *Index) Add(coords ...geom.Coordinate) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	if err := i.tree.AddAll(coords...); err != nil {
		return err
	}
	i.opCnt += len(coords)
	return nil
}

func (i *Index) Remove(c geom.Coordinate) bool {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	if !i.tree.Remove(c) {
		return false
	}
	i.opCnt++
	return true
}

func (i *Index) Contains(c geom.Coordinate) bool {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return i.tree.Contains(c)
}

func (i *Index) Search(env geom.Envelope) []geom.Coordinate {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return i.tree.Search(env)
}

func (i *Index) NearestNeighbour(c geom.Coordinate) (geom.Coordinate, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return i.tree.NearestNeighbour(c)
}

func (i *Index) Len() int {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return i.tree.Len()
}

// Rebalance reconstructs the tree and resets the mutation counter.
func (i *Index) Rebalance() {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.tree.Rebalance()
	i.opCnt = 0
}

func (i *Index) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(i.opts.rebalanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			i.mtx.RLock()
			dirty := i.opCnt > 0
			i.mtx.RUnlock()
			if dirty {
				i.Rebalance()
				logger.Debugf("spatial: rebalanced index, len %d", i.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}

// Collection holds independently locked named layers and rebalances them
// together.
type Collection struct {
	mtx    sync.RWMutex
	layers map[string]*Index
}

func NewCollection() *Collection {
	return &Collection{layers: map[string]*Index{}}
}

// Layer returns the named index, creating it on first use.
func (c *Collection) Layer(ctx context.Context, name string, dims int, opts ...Option) (*Index, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if idx, ok := c.layers[name]; ok {
		return idx, nil
	}
	idx, err := NewIndex(ctx, dims, opts...)
	if err != nil {
		return nil, err
	}
	c.layers[name] = idx
	return idx, nil
}

func (c *Collection) Close() {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	for _, idx := range c.layers {
		idx.Close()
	}
}

// RebalanceAll rebuilds every layer concurrently.
func (c *Collection) RebalanceAll(ctx context.Context) error {
	c.mtx.RLock()
	layers := make(map[string]*Index, len(c.layers))
	for name, idx := range c.layers {
		layers[name] = idx
	}
	c.mtx.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for name, idx := range layers {
		name, idx := name, idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx.Rebalance()
			logging.FromContext(ctx).Debugf("spatial: rebalanced layer %q, len %d", name, idx.Len())
			return nil
		})
	}
	return g.Wait()
}
