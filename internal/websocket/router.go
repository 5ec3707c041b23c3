// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/validation"
)

// FrameHandler handles one decoded inbound frame.
type FrameHandler func(ctx context.Context, s *Session, f protocol.Frame) error

// Router maps client message tags to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[protocol.Type]FrameHandler
	problems []error
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[protocol.Type]FrameHandler)}
}

// HandleFrame registers fn for t. Registration problems (a server tag, a
// duplicate) are kept and reported by Validate.
func (r *Router) HandleFrame(t protocol.Type, fn FrameHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case !protocol.IsClientType(t):
		r.problems = append(r.problems, fmt.Errorf("%q is not a client message type", t))
		return
	case fn == nil:
		r.problems = append(r.problems, fmt.Errorf("nil handler for %q", t))
		return
	}
	if _, dup := r.handlers[t]; dup {
		r.problems = append(r.problems, fmt.Errorf("duplicate handler for %q", t))
		return
	}
	r.handlers[t] = fn
}

// Handle registers a typed handler. The payload is decoded into P and, when
// P is a struct, validated against its validate tags before fn runs.
func Handle[P any](r *Router, t protocol.Type, fn func(ctx context.Context, s *Session, p P) error) {
	validate := reflect.TypeOf((*P)(nil)).Elem().Kind() == reflect.Struct
	r.HandleFrame(t, func(ctx context.Context, s *Session, f protocol.Frame) error {
		p, err := protocol.DecodePayload[P](f)
		if err != nil {
			return err
		}
		if validate {
			if verr := validation.ValidateStruct(&p); verr != nil {
				return verr
			}
		}
		return fn(ctx, s, p)
	})
}

// Validate returns an error listing registration problems and every type
// in required that has no handler. cmd/server refuses to start on error.
func (r *Router) Validate(required ...protocol.Type) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	errs := append([]error(nil), r.problems...)
	for _, t := range required {
		if _, ok := r.handlers[t]; !ok {
			errs = append(errs, fmt.Errorf("no handler registered for %q", t))
		}
	}
	return errors.Join(errs...)
}

// Types returns the registered tags, sorted.
func (r *Router) Types() []protocol.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch decodes data and runs its handler. Every failure is reported to
// the session; Dispatch itself never panics and never closes the connection.
func (r *Router) Dispatch(ctx context.Context, s *Session, data []byte) {
	f, err := protocol.DecodeClient(data)
	if err != nil {
		r.report(s, "", err)
		return
	}

	r.mu.RLock()
	fn, ok := r.handlers[f.Type]
	r.mu.RUnlock()
	if !ok {
		s.ReportError(CodeUnsupportedType, fmt.Sprintf("no handler for %q", f.Type), nil)
		return
	}

	start := time.Now()
	err = r.run(ctx, s, f, fn)
	metrics.RecordDispatch(string(f.Type), time.Since(start))
	if err != nil {
		r.report(s, f.Type, err)
	}
}

func (r *Router) run(ctx context.Context, s *Session, f protocol.Frame, fn FrameHandler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger().Error().
				Str("type", string(f.Type)).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("message handler panicked")
			err = errHandlerPanic
		}
	}()
	return fn(ctx, s, f)
}

var errHandlerPanic = errors.New("handler panicked")

// report maps err to an error code and sends it to the session.
func (r *Router) report(s *Session, t protocol.Type, err error) {
	var (
		perr   *protocol.Error
		verr   *validation.RequestValidationError
		action *ActionError
	)
	switch {
	case errors.As(err, &action):
		s.ReportError(action.Code, action.Message, nil)
	case errors.As(err, &verr):
		s.ReportError(CodeInvalidPayload, verr.Error(), verr.Fields)
	case errors.As(err, &perr):
		s.ReportError(perr.Code, perr.Message, nil)
	case errors.Is(err, rooms.ErrInvalidRoomID):
		s.ReportError(CodeInvalidRoomID, err.Error(), nil)
	case errors.Is(err, rooms.ErrRoomNotFound):
		s.ReportError(CodeRoomNotFound, err.Error(), nil)
	case errors.Is(err, rooms.ErrNotAMember):
		s.ReportError(CodeNotAMember, err.Error(), nil)
	case errors.Is(err, ErrConnectionClosed):
		s.Logger().Debug().Err(err).Str("type", string(t)).Msg("connection closed during dispatch")
	default:
		s.Logger().Error().Err(err).Str("type", string(t)).Msg("message handler failed")
		s.ReportError(CodeInternalError, "internal error", nil)
	}
}
