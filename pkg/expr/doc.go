// Package expr evaluates template expressions against a scope.Context.
//
// Two kinds of expression are supported. A bare property path such as
// "user.profile.name" (optionally written with "?." separators) takes a
// direct lookup path: it resolves against the supplied context, then the
// owning component's context, then the component's properties, and yields
// Undefined as soon as a segment is missing. Anything else is a general
// expression: it is lexed, parsed into a typed AST, and compiled into a
// Program whose identifiers are resolved to parameter slots. Programs are
// cached by (text, sorted parameter names) in a bounded LRU.
//
// # Grammar
//
//	literals      1  2.5  'a'  "b"  true  false  null  undefined
//	names         item  this
//	access        a.b  a?.b  a[i]
//	calls         f(x)  a.m(x, y)
//	unary         !x  -x  +x
//	binary        * / %   + -   < <= > >=   == != === !==   &&   ||   ??
//	conditional   c ? a : b
//
// # Failures
//
// Evaluate never returns an error and never panics. Any syntax, reference,
// type, or call error is logged and reported as the EvaluationError
// sentinel, which every consumer treats as an absent value.
package expr
