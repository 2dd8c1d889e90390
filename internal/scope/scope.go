package scope

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vk/stepgrid/internal/ctxlog"
)

// Key identifies the worker that owns a stack.
type Key struct {
	Group  string
	Worker string
}

func (k Key) String() string {
	return k.Group + "/" + k.Worker
}

// Disposer is implemented by beans that need explicit teardown.
type Disposer interface {
	Dispose() error
}

// Identified is the scenario identity attached to a Key for correlation.
type Identified interface {
	ScenarioID() string
	ResultID() string
}

type entryKind int

const (
	beanEntry entryKind = iota
	callbackEntry
)

func (k entryKind) String() string {
	if k == beanEntry {
		return "bean"
	}
	return "callback"
}

type entry struct {
	kind     entryKind
	name     string
	instance any
	callback func()
}

type stack struct {
	mu      sync.Mutex
	entries []entry
}

// find returns the index of the topmost entry of kind with name, or -1.
func (s *stack) find(kind entryKind, name string) int {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].kind == kind && s.entries[i].name == name {
			return i
		}
	}
	return -1
}

func (s *stack) take(i int) entry {
	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return e
}

// Scope is the scenario-local storage shared by all workers of a run.
type Scope struct {
	host  string
	suite string

	stacks sync.Map // Key -> *stack
	idents sync.Map // Key -> Identified
}

// New creates a Scope. host and suite only feed the correlation key.
func New(host, suite string) *Scope {
	return &Scope{host: host, suite: suite}
}

func (s *Scope) stack(key Key, create bool) *stack {
	if st, ok := s.stacks.Load(key); ok {
		return st.(*stack)
	}
	if !create {
		return nil
	}
	st, _ := s.stacks.LoadOrStore(key, &stack{})
	return st.(*stack)
}

// Get returns the bean called name on key's stack, creating it with factory
// if absent. The existence check, the factory call and the push are separate
// steps so that a factory may itself use the scope.
func (s *Scope) Get(ctx context.Context, key Key, name string, factory func() (any, error)) (any, error) {
	st := s.stack(key, true)

	st.mu.Lock()
	if i := st.find(beanEntry, name); i >= 0 {
		instance := st.entries[i].instance
		st.mu.Unlock()
		return instance, nil
	}
	st.mu.Unlock()

	instance, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating scoped bean '%s': %w", name, err)
	}

	st.mu.Lock()
	if i := st.find(beanEntry, name); i >= 0 {
		existing := st.entries[i].instance
		st.mu.Unlock()
		s.dispose(ctx, key, entry{kind: beanEntry, name: name, instance: instance})
		return existing, nil
	}
	st.entries = append(st.entries, entry{kind: beanEntry, name: name, instance: instance})
	st.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Scoped bean created.", "key", key.String(), "name", name)
	return instance, nil
}

// RegisterDestructionCallback pushes cb to run when name is removed or the
// scope is cleared. An existing callback for name is run and replaced.
func (s *Scope) RegisterDestructionCallback(ctx context.Context, key Key, name string, cb func()) {
	st := s.stack(key, true)

	st.mu.Lock()
	var old *entry
	if i := st.find(callbackEntry, name); i >= 0 {
		e := st.take(i)
		old = &e
	}
	st.entries = append(st.entries, entry{kind: callbackEntry, name: name, callback: cb})
	st.mu.Unlock()

	if old != nil {
		s.dispose(ctx, key, *old)
	}
}

// Remove pops the bean called name, disposing of it, and runs any callback
// registered under the same name. It returns the removed instance.
func (s *Scope) Remove(ctx context.Context, key Key, name string) (any, bool) {
	st := s.stack(key, false)
	if st == nil {
		return nil, false
	}

	st.mu.Lock()
	var bean, cb *entry
	if i := st.find(beanEntry, name); i >= 0 {
		e := st.take(i)
		bean = &e
	}
	if i := st.find(callbackEntry, name); i >= 0 {
		e := st.take(i)
		cb = &e
	}
	st.mu.Unlock()

	if bean != nil {
		s.dispose(ctx, key, *bean)
	}
	if cb != nil {
		s.dispose(ctx, key, *cb)
	}
	if bean == nil {
		return nil, false
	}
	return bean.instance, true
}

// Clear tears down key's stack in LIFO order and forgets its scenario
// identity. Clearing an empty or unknown key is a no-op.
func (s *Scope) Clear(ctx context.Context, key Key) {
	s.idents.Delete(key)
	v, ok := s.stacks.LoadAndDelete(key)
	if !ok {
		return
	}
	st := v.(*stack)

	st.mu.Lock()
	entries := st.entries
	st.entries = nil
	st.mu.Unlock()

	if len(entries) > 0 {
		ctxlog.FromContext(ctx).Debug("Clearing scenario scope.", "key", key.String(), "entries", len(entries))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		s.dispose(ctx, key, entries[i])
	}
}

// Len returns the number of entries on key's stack.
func (s *Scope) Len(key Key) int {
	st := s.stack(key, false)
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// SetScenario attaches id to key, or detaches it when id is nil.
func (s *Scope) SetScenario(key Key, id Identified) {
	if id == nil {
		s.idents.Delete(key)
		return
	}
	s.idents.Store(key, id)
}

// Scenario returns the identity attached to key.
func (s *Scope) Scenario(key Key) (Identified, bool) {
	v, ok := s.idents.Load(key)
	if !ok {
		return nil, false
	}
	return v.(Identified), true
}

// Correlation returns host/suite/group/worker/scenario/result for key, or
// false when no scenario is attached.
func (s *Scope) Correlation(key Key) (string, bool) {
	id, ok := s.Scenario(key)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", s.host, s.suite, key.Group, key.Worker, id.ScenarioID(), id.ResultID()), true
}

// dispose runs a callback entry or disposes a bean entry. Errors and panics
// are logged, never returned.
func (s *Scope) dispose(ctx context.Context, key Key, e entry) {
	logger := ctxlog.FromContext(ctx).With("key", key.String(), "name", e.name, "kind", e.kind.String())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scoped entry teardown panicked.", "panic", r)
		}
	}()

	var err error
	switch e.kind {
	case callbackEntry:
		if e.callback != nil {
			e.callback()
		}
	case beanEntry:
		switch v := e.instance.(type) {
		case Disposer:
			err = v.Dispose()
		case io.Closer:
			err = v.Close()
		}
	}
	if err != nil {
		logger.Warn("Scoped entry teardown failed.", "error", err)
		return
	}
	logger.Debug("Scoped entry torn down.")
}
