package gelf

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// maxErrorChainDepth bounds the walk of an error's causes, so an error that
// unwraps to itself cannot hang the encoder.
const maxErrorChainDepth = 32

// errorLink is one error of a causal chain, reported as the
// Exception.<n>.{Type,Source,Message,StackTrace} fields. Empty members are
// left out of the payload.
type errorLink struct {
	Type       string
	Source     string
	Message    string
	StackTrace string
}

// stackTracer is implemented by errors created or wrapped with
// github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// errorSource lets an error name its origin explicitly.
type errorSource interface {
	Source() string
}

// flattenErrors lists err and its causes, outermost first.
//
// errors.Wrap and errors.WithStack from github.com/pkg/errors add a layer
// that carries only a stack trace. Such a layer reads the same as its cause,
// so it is folded into the cause instead of being listed on its own.
func flattenErrors(err error) []errorLink {
	var links []errorLink
	for err != nil && len(links) < maxErrorChainDepth {
		l := describeError(err)
		next := nextCause(err)
		if next != nil && l.StackTrace != "" && next.Error() == l.Message {
			inner := describeError(next)
			if inner.StackTrace == "" {
				inner.StackTrace = l.StackTrace
			}
			if inner.Source == "" {
				inner.Source = l.Source
			}
			l, next = inner, nextCause(next)
		}
		links = append(links, l)
		err = next
	}
	return links
}

// nextCause follows Unwrap. Joined errors continue with their first member.
func nextCause(err error) error {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := e.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func describeError(err error) errorLink {
	l := errorLink{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	var st errors.StackTrace
	if t, ok := err.(stackTracer); ok {
		st = t.StackTrace()
	}
	if len(st) > 0 {
		l.StackTrace = strings.TrimPrefix(fmt.Sprintf("%+v", st), "\n")
	}

	if s, ok := err.(errorSource); ok {
		l.Source = s.Source()
	} else if len(st) > 0 {
		l.Source = framePackage(st[0])
	}
	return l
}

// framePackage returns the import path of the function executing at f.
func framePackage(f errors.Frame) string {
	fn := runtime.FuncForPC(uintptr(f) - 1)
	if fn == nil {
		return ""
	}
	name := fn.Name()

	// github.com/a/b/pkg.(*T).Method -> github.com/a/b/pkg
	slash := strings.LastIndexByte(name, '/')
	if dot := strings.IndexByte(name[slash+1:], '.'); dot >= 0 {
		return name[:slash+1+dot]
	}
	return name
}
