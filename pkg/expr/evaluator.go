package expr

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/scope"
)

// Evaluator evaluates expressions on behalf of one owning component.
type Evaluator struct {
	comp    scope.Component
	cache   *Cache
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu    sync.RWMutex
	paths map[string][]string // bare path segments by text; nil entry = general
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCache sets the compiled expression cache. Default: DefaultCache.
func WithCache(c *Cache) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithLogger sets the logger used for evaluation failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Evaluator) {
		e.metrics = r
	}
}

// NewEvaluator creates an evaluator for comp. comp may be nil, in which
// case only the supplied context is consulted.
func NewEvaluator(comp scope.Component, opts ...Option) *Evaluator {
	e := &Evaluator{
		comp:   comp,
		cache:  DefaultCache,
		logger: slog.Default().With("component", "expr"),
		paths:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Component returns the owning component.
func (e *Evaluator) Component() scope.Component {
	return e.comp
}

// Evaluate returns the value of expression against ctx, or EvaluationError
// if it fails for any reason. A bare path with a missing segment yields
// Undefined.
func (e *Evaluator) Evaluate(expression string, ctx scope.Context) any {
	text := strings.TrimSpace(expression)
	if segs := e.barePath(text); segs != nil {
		e.metrics.Evaluation("bare")
		return e.resolvePath(segs, ctx)
	}

	e.metrics.Evaluation("general")
	prog, err := e.Compile(text, ctx.Keys())
	if err != nil {
		e.fail(text, err)
		return EvaluationError
	}
	v, err := prog.Run(ctx)
	if err != nil {
		e.fail(text, err)
		return EvaluationError
	}
	return v
}

// Compile returns the program for text compiled against params, which
// must be sorted. Results, including failures, come from the cache when
// present.
func (e *Evaluator) Compile(text string, params []string) (*Program, error) {
	key := CacheKey(text, params)
	if prog, err, ok := e.cache.Get(key); ok {
		e.metrics.CacheHit()
		return prog, err
	}
	e.metrics.CacheMiss()

	prog, err := compile(text, params)
	for n := e.cache.Put(key, prog, err); n > 0; n-- {
		e.metrics.CacheEviction()
	}
	e.metrics.CacheSize(e.cache.Len())
	return prog, err
}

func (e *Evaluator) fail(text string, err error) {
	kind := "syntax"
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		kind = string(rerr.Kind)
	}
	e.metrics.EvaluationError(kind)
	e.logger.Warn("expression evaluation failed", "expr", text, "kind", kind, "error", err)
}

// barePath returns the segments of text if it is a bare property path, or
// nil. Results are memoized per text; the set of texts is bounded by the
// templates the evaluator serves.
func (e *Evaluator) barePath(text string) []string {
	e.mu.RLock()
	segs, ok := e.paths[text]
	e.mu.RUnlock()
	if ok {
		return segs
	}
	segs = splitBarePath(text)
	e.mu.Lock()
	e.paths[text] = segs
	e.mu.Unlock()
	return segs
}

// splitBarePath splits "a.b?.c" into [a b c]. Anything else, including a
// path starting with a keyword, returns nil.
func splitBarePath(text string) []string {
	if text == "" {
		return nil
	}
	var segs []string
	rest := text
	for {
		i := 0
		for i < len(rest) && isIdentPart(rest[i]) {
			i++
		}
		if i == 0 || !isIdentStart(rest[0]) {
			return nil
		}
		segs = append(segs, rest[:i])
		rest = rest[i:]
		switch {
		case rest == "":
			if isKeyword(segs[0]) {
				return nil
			}
			return segs
		case strings.HasPrefix(rest, "?."):
			rest = rest[2:]
		case rest[0] == '.':
			rest = rest[1:]
		default:
			return nil
		}
	}
}

func isKeyword(s string) bool {
	switch s {
	case "true", "false", "null", "undefined", "this":
		return true
	}
	return false
}

// resolvePath looks up the first segment in ctx, then the component's
// context, then the component's properties, and walks the rest. A missing
// segment at any point yields Undefined.
func (e *Evaluator) resolvePath(segs []string, ctx scope.Context) any {
	v, ok := ctx.Lookup(segs[0])
	if !ok && e.comp != nil {
		v, ok = e.comp.Context().Lookup(segs[0])
		if !ok {
			v, ok = e.comp.Property(segs[0])
		}
	}
	if !ok {
		return Undefined
	}
	for _, name := range segs[1:] {
		if v, ok = getMember(v, name); !ok {
			return Undefined
		}
	}
	return v
}

// Lookup reads a dotted path out of v with bare-path semantics.
func Lookup(v any, path string) any {
	for _, name := range strings.Split(path, ".") {
		var ok bool
		if v, ok = getMember(v, name); !ok {
			return Undefined
		}
	}
	return v
}
