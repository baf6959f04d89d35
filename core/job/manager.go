package job

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/entikit/entikit/core/entity"
	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/concurrent"
	"github.com/entikit/entikit/pkg/sequence"
)

// Manager holds job lists keyed by numeric priority and executes them
// in ascending priority order over an entity tree. Nodes lacking a
// job's required components are skipped.
type Manager struct {
	log   log.Log
	lists map[int]*List
}

func NewManager(l log.Log) *Manager {
	if l == nil {
		l = log.Provide()
	}
	return &Manager{
		log:   l,
		lists: make(map[int]*List),
	}
}

// Add registers j under the given priority.
func (m *Manager) Add(priority int, j *Job) {
	if j == nil {
		panic("job: Add called with nil job")
	}
	list, ok := m.lists[priority]
	if !ok {
		list = NewList(priority)
		m.lists[priority] = list
	}
	list.Add(j)
}

// Remove deletes the first job with the given name across all
// priorities, dropping a list that becomes empty.
func (m *Manager) Remove(name string) bool {
	for _, prio := range m.priorities() {
		list := m.lists[prio]
		if list.Remove(name) {
			if list.Len() == 0 {
				delete(m.lists, prio)
			}
			return true
		}
	}
	return false
}

// Len returns the total number of registered jobs.
func (m *Manager) Len() int {
	n := 0
	for _, list := range m.lists {
		n += list.Len()
	}
	return n
}

func (m *Manager) priorities() []int {
	return slices.Sorted(maps.Keys(m.lists))
}

// nodes returns root plus its full subtree in traversal order.
func nodes(root *entity.Entity) []*entity.Entity {
	if root == nil {
		panic("job: run called with nil root entity")
	}
	return append([]*entity.Entity{root}, root.AllChildren()...)
}

// RunAll executes every job sequentially: priorities ascending, jobs in
// insertion order, entities in tree-traversal order. Failures are
// logged and collected; execution never short-circuits.
func (m *Manager) RunAll(ctx context.Context, root *entity.Entity) error {
	targets := nodes(root)
	var errs []error
	for _, prio := range m.priorities() {
		for _, j := range m.lists[prio].Jobs() {
			for _, target := range targets {
				if !j.Matches(target) {
					continue
				}
				if err := j.Run(ctx, target); err != nil {
					m.log.Warn("job: sequential run failed",
						log.String("job", j.Name()),
						log.String("entity", target.ID()),
						log.Error(err))
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

// RunAllConcurrent executes every job with one goroutine per matching
// entity, fire-and-await-all: all tasks for a job are launched, then
// the manager waits for every one before moving to the next job. There
// is no partial-failure short-circuiting and no cancellation beyond
// whatever the jobs themselves observe on ctx.
func (m *Manager) RunAllConcurrent(ctx context.Context, root *entity.Entity) error {
	targets := nodes(root)
	var errs []error
	for _, prio := range m.priorities() {
		for _, j := range m.lists[prio].Jobs() {
			matching := sequence.From(targets).Filter(j.Matches)
			if err := concurrent.Each(matching, func(target *entity.Entity) error {
				return j.Run(ctx, target)
			}); err != nil {
				m.log.Warn("job: concurrent run failed",
					log.String("job", j.Name()),
					log.Error(err))
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
