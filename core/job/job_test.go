package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entikit/entikit/core/component"
	"github.com/entikit/entikit/core/entity"
	"github.com/entikit/entikit/core/observability/log"
)

type FooComponent struct {
	component.Base
}

func (c *FooComponent) TypeName() string { return "FooComponent" }
func (c *FooComponent) Clone() component.Component {
	return &FooComponent{Base: c.CloneBase()}
}

type BarComponent struct {
	component.Base
}

func (c *BarComponent) TypeName() string { return "BarComponent" }
func (c *BarComponent) Clone() component.Component {
	return &BarComponent{Base: c.CloneBase()}
}

// buildTree returns a root with nine descendants; entities at even
// positions carry a FooComponent (root included), for five Foo carriers
// total.
func buildTree(t *testing.T) (*entity.Entity, int) {
	t.Helper()
	reg := component.NewRegistry(log.Nop())
	require.True(t, component.Register[FooComponent](reg, true))
	require.True(t, component.Register[BarComponent](reg, true))

	root := entity.NewWith("root", reg, log.Nop())
	require.True(t, root.Components().Add(&FooComponent{}, false))
	carriers := 1

	parent := root
	for i := 1; i < 10; i++ {
		child := entity.NewWith(fmt.Sprintf("node_%d", i), reg, log.Nop())
		if i%2 == 0 {
			require.True(t, child.Components().Add(&FooComponent{}, false))
			carriers++
		} else {
			require.True(t, child.Components().Add(&BarComponent{}, false))
		}
		require.True(t, parent.AddChild(child, false))
		if i%3 == 0 {
			parent = child // vary the tree shape
		}
	}
	return root, carriers
}

func TestRunAllSkipsNonCarriers(t *testing.T) {
	root, carriers := buildTree(t)
	m := NewManager(log.Nop())

	var mu sync.Mutex
	visited := make(map[string]int)
	m.Add(0, New("count_foo", func(_ context.Context, target *entity.Entity) error {
		mu.Lock()
		defer mu.Unlock()
		visited[target.ID()]++
		return nil
	}, "FooComponent"))

	require.NoError(t, m.RunAll(context.Background(), root))
	assert.Len(t, visited, carriers)
	for id, n := range visited {
		assert.Equal(t, 1, n, "entity %s visited %d times", id, n)
	}
}

func TestRunAllConcurrentMatchesSequentialCounts(t *testing.T) {
	root, carriers := buildTree(t)

	run := func(concurrently bool) map[string]int {
		m := NewManager(log.Nop())
		var mu sync.Mutex
		visited := make(map[string]int)
		m.Add(0, New("count_foo", func(_ context.Context, target *entity.Entity) error {
			mu.Lock()
			defer mu.Unlock()
			visited[target.ID()]++
			return nil
		}, "FooComponent"))

		var err error
		if concurrently {
			err = m.RunAllConcurrent(context.Background(), root)
		} else {
			err = m.RunAll(context.Background(), root)
		}
		require.NoError(t, err)
		return visited
	}

	sequential := run(false)
	concurrent := run(true)
	assert.Equal(t, sequential, concurrent)
	assert.Len(t, sequential, carriers)
}

func TestRunAllPriorityOrder(t *testing.T) {
	root, _ := buildTree(t)
	m := NewManager(log.Nop())

	var order []string
	record := func(name string) Func {
		return func(context.Context, *entity.Entity) error {
			order = append(order, name)
			return nil
		}
	}
	// Registration order deliberately scrambled.
	m.Add(10, New("late", record("late"), "FooComponent"))
	m.Add(-5, New("early", record("early"), "FooComponent"))
	m.Add(0, New("middle_a", record("middle_a"), "FooComponent"))
	m.Add(0, New("middle_b", record("middle_b"), "FooComponent"))

	// Run over a lone carrier so each job fires exactly once.
	lone := entity.NewWith("lone", root.Components().Registry(), log.Nop())
	require.True(t, lone.Components().Add(&FooComponent{}, false))
	require.NoError(t, m.RunAll(context.Background(), lone))

	assert.Equal(t, []string{"early", "middle_a", "middle_b", "late"}, order)
}

func TestRunCollectsErrorsWithoutShortCircuit(t *testing.T) {
	root, carriers := buildTree(t)
	m := NewManager(log.Nop())

	boom := errors.New("job failed")
	var mu sync.Mutex
	calls := 0
	m.Add(0, New("flaky", func(context.Context, *entity.Entity) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	}, "FooComponent"))

	err := m.RunAll(context.Background(), root)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, carriers, calls, "a failure must not stop later entities")
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(log.Nop())
	noop := func(context.Context, *entity.Entity) error { return nil }
	m.Add(1, New("a", noop))
	m.Add(1, New("b", noop))
	m.Add(2, New("c", noop))
	assert.Equal(t, 3, m.Len())

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	assert.Equal(t, 2, m.Len())

	// Removing the last job of a priority drops its list.
	assert.True(t, m.Remove("c"))
	assert.Equal(t, 1, m.Len())
}

func TestNewJobContract(t *testing.T) {
	assert.Panics(t, func() { New("bad", nil) })

	j := New("my job!", func(context.Context, *entity.Entity) error { return nil }, "Foo")
	assert.Equal(t, "my_job_", j.Name())
	assert.Equal(t, []string{"Foo"}, j.Required())
}

func TestRunNilRootPanics(t *testing.T) {
	m := NewManager(log.Nop())
	assert.Panics(t, func() { _ = m.RunAll(context.Background(), nil) })
}
