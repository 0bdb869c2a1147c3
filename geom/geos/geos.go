// Package geos wraps the reentrant (_r) API of the GEOS C library.
//
// Every native call takes an explicit GEOS context handle. A Context is shared
// by reference counting: geometries, prepared geometries and indices clone the
// context they were created with and release it when they are destroyed, so a
// context is only finished after its last holder is gone.
package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdint.h>

extern void setMessageHandlers(GEOSContextHandle_t h, uintptr_t userdata);
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omniscale/geosprep/logging"
)

var log = logging.NewLogger("GEOS")

// MessageHandler receives notice or error messages reported by GEOS.
type MessageHandler func(msg string)

// Context is a shared GEOS context handle.
//
// NewContext returns a context with one reference held by the caller. Clone
// adds a reference, Release drops one. The native handle is finished when the
// last reference is released.
type Context struct {
	v      C.GEOSContextHandle_t
	refs   atomic.Int32
	id     string
	handle cgo.Handle
	log    *logging.Logger

	mu      sync.Mutex
	notice  MessageHandler
	onError MessageHandler
	lastErr string
}

func NewContext() (*Context, error) {
	v := C.GEOS_init_r()
	if v == nil {
		return nil, &ConstructionError{Constructor: "Context.New"}
	}
	c := &Context{v: v, id: uuid.NewString()}
	c.log = log.With(zap.String("context", c.id))
	c.refs.Store(1)
	c.handle = cgo.NewHandle(c)
	C.setMessageHandlers(v, C.uintptr_t(c.handle))
	contextsLive.Add(1)
	return c, nil
}

// Clone adds a reference to the context and returns it. Each Clone needs a
// matching Release.
func (c *Context) Clone() *Context {
	if !c.tryClone() {
		panic("geos: clone of released context")
	}
	return c
}

// tryClone adds a reference unless the context is already released.
func (c *Context) tryClone() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops one reference. The GEOS handle is finished with the last one.
func (c *Context) Release() {
	n := c.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("geos: double free? context released more often than cloned")
	}
	C.finishGEOS_r(c.v)
	c.v = nil
	c.handle.Delete()
	contextsLive.Add(-1)
}

// Refs returns the number of holders of this context.
func (c *Context) Refs() int32 {
	return c.refs.Load()
}

// ID identifies the context in log records.
func (c *Context) ID() string {
	return c.id
}

// SetNoticeHandler registers the handler for GEOS notices. A nil handler
// restores the default, which logs at debug level.
// Handlers must not be replaced while other goroutines run operations on this
// context.
func (c *Context) SetNoticeHandler(h MessageHandler) {
	c.mu.Lock()
	c.notice = h
	c.mu.Unlock()
}

// SetErrorHandler registers the handler for GEOS errors. A nil handler
// restores the default, which logs a warning.
func (c *Context) SetErrorHandler(h MessageHandler) {
	c.mu.Lock()
	c.onError = h
	c.mu.Unlock()
}

// LastError returns the last error message GEOS reported on this context.
// Prepare and predicate calls reset it before the native call. Other
// goroutines using the same context can still overwrite it, so the message
// of a returned error is only exact if the context is not shared.
func (c *Context) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Context) resetLastError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *Context) raw() C.GEOSContextHandle_t {
	return c.v
}

func (c *Context) handleNotice(msg string) {
	c.mu.Lock()
	h := c.notice
	c.mu.Unlock()
	if h != nil {
		h(msg)
		return
	}
	c.log.Debugf("notice: %s", msg)
}

func (c *Context) handleError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	h := c.onError
	c.mu.Unlock()
	if h != nil {
		h(msg)
		return
	}
	c.log.Warnf("error: %s", msg)
}

//export goContextNotice
func goContextNotice(msg *C.char, userdata C.uintptr_t) {
	if c, ok := cgo.Handle(userdata).Value().(*Context); ok {
		c.handleNotice(C.GoString(msg))
	}
}

//export goContextError
func goContextError(msg *C.char, userdata C.uintptr_t) {
	if c, ok := cgo.Handle(userdata).Value().(*Context); ok {
		c.handleError(C.GoString(msg))
	}
}

// Version returns the version of the linked GEOS library.
func Version() string {
	return C.GoString(C.GEOSversion())
}
