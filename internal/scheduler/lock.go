package scheduler

import "github.com/ivlev/gloworb/internal/dom"

// Lock marks a container as busy for the duration of a run
type Lock struct {
	el       *dom.Element
	released bool
}

// Acquire sets the lock class on el
func Acquire(el *dom.Element) *Lock {
	el.AddClass(dom.ClassLock)
	return &Lock{el: el}
}

// Release removes the lock class. Repeated calls and nil locks are no-ops.
func (l *Lock) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	l.el.RemoveClass(dom.ClassLock)
}

// Held reports whether the lock was acquired and not yet released
func (l *Lock) Held() bool {
	return l != nil && !l.released
}
