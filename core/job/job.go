// Package job dispatches units of work over an entity and its
// descendants, gated by the component types each job requires.
package job

import (
	"context"

	"github.com/entikit/entikit/core/entity"
	"github.com/entikit/entikit/core/ident"
)

// Func is the work a job performs against one entity.
type Func func(ctx context.Context, target *entity.Entity) error

// Job binds a callable to the component type names an entity must carry
// for the job to apply.
type Job struct {
	name     string
	run      Func
	required []string
}

// New creates a job. A nil run function is a caller bug and panics.
func New(name string, run Func, required ...string) *Job {
	if run == nil {
		panic("job: New called with nil run function")
	}
	return &Job{
		name:     ident.AsValidID(name),
		run:      run,
		required: append([]string(nil), required...),
	}
}

func (j *Job) Name() string { return j.name }

// Required returns the component type names gating this job.
func (j *Job) Required() []string {
	return append([]string(nil), j.required...)
}

// Matches reports whether target carries every required component type.
func (j *Job) Matches(target *entity.Entity) bool {
	for _, req := range j.required {
		if !target.Components().Contains(req) {
			return false
		}
	}
	return true
}

// Run executes the job against target without checking Matches; the
// manager gates invocation.
func (j *Job) Run(ctx context.Context, target *entity.Entity) error {
	return j.run(ctx, target)
}

// List is an insertion-ordered collection of jobs sharing one priority.
type List struct {
	priority int
	jobs     []*Job
}

func NewList(priority int) *List {
	return &List{priority: priority}
}

func (l *List) Priority() int { return l.priority }
func (l *List) Len() int      { return len(l.jobs) }

// Jobs returns the jobs in insertion order.
func (l *List) Jobs() []*Job {
	return append([]*Job(nil), l.jobs...)
}

// Add appends j. A nil job is a caller bug and panics.
func (l *List) Add(j *Job) {
	if j == nil {
		panic("job: Add called with nil job")
	}
	l.jobs = append(l.jobs, j)
}

// Remove deletes the first job with the given name, reporting whether
// one was found.
func (l *List) Remove(name string) bool {
	for i, j := range l.jobs {
		if j.name == name {
			l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)
			return true
		}
	}
	return false
}
