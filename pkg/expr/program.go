package expr

import (
	"math"
	"sort"

	"github.com/vango-dev/weave/pkg/scope"
)

// Program is a parsed expression whose identifiers have been resolved to
// positions in a fixed, sorted parameter list.
type Program struct {
	src    string
	root   Node
	params []string
}

// chainCut marks an optional chain that met a nullish value; the whole
// chain evaluates to Undefined.
var chainCut = &Sentinel{name: "chain cut"}

// compile parses src and binds every identifier to its slot in params,
// which must be sorted.
func compile(src string, params []string) (*Program, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	bind(root, params)
	return &Program{src: src, root: root, params: params}, nil
}

func bind(n Node, params []string) {
	switch n := n.(type) {
	case *Ident:
		i := sort.SearchStrings(params, n.Name)
		if i < len(params) && params[i] == n.Name {
			n.Slot = i
		}
	case *Member:
		bind(n.Object, params)
	case *Index:
		bind(n.Object, params)
		bind(n.Index, params)
	case *Call:
		bind(n.Callee, params)
		for _, a := range n.Args {
			bind(a, params)
		}
	case *Unary:
		bind(n.X, params)
	case *Binary:
		bind(n.X, params)
		bind(n.Y, params)
	case *Conditional:
		bind(n.Test, params)
		bind(n.Then, params)
		bind(n.Else, params)
	}
}

// Source returns the expression text.
func (p *Program) Source() string {
	return p.src
}

// Params returns the parameter names the program was compiled against.
func (p *Program) Params() []string {
	return p.params
}

// Run evaluates the program with ctx supplying the parameters and bound
// as this. ctx is expected to have the key set the program was compiled
// for; names it lacks read as Undefined.
func (p *Program) Run(ctx scope.Context) (any, error) {
	args := make([]any, len(p.params))
	for i, name := range p.params {
		v, ok := ctx[name]
		if !ok {
			v = Undefined
		}
		args[i] = v
	}
	e := &env{args: args, this: ctx}
	v, err := e.eval(p.root)
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok && rerr.Expr == "" {
			rerr.Expr = p.src
		}
		return nil, err
	}
	return v, nil
}

type env struct {
	args []any
	this scope.Context
}

// eval evaluates n and collapses a cut optional chain to Undefined.
func (e *env) eval(n Node) (any, error) {
	v, err := e.evalChain(n)
	if err != nil {
		return nil, err
	}
	if v == chainCut {
		return Undefined, nil
	}
	return v, nil
}

func (e *env) evalChain(n Node) (any, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		if n.Slot < 0 {
			return nil, referenceError("%s is not defined", n.Name)
		}
		return e.args[n.Slot], nil

	case *This:
		return e.this, nil

	case *Member:
		obj, err := e.evalChain(n.Object)
		if err != nil || obj == chainCut {
			return obj, err
		}
		if isNullish(obj) {
			if n.Optional {
				return chainCut, nil
			}
			return nil, typeError("cannot read property %q of %s", n.Name, ToString(obj))
		}
		v, ok := getMember(obj, n.Name)
		if !ok {
			return Undefined, nil
		}
		return v, nil

	case *Index:
		obj, err := e.evalChain(n.Object)
		if err != nil || obj == chainCut {
			return obj, err
		}
		if isNullish(obj) && n.Optional {
			return chainCut, nil
		}
		idx, err := e.eval(n.Index)
		if err != nil {
			return nil, err
		}
		if isNullish(obj) {
			return nil, typeError("cannot read index %s of %s", ToString(idx), ToString(obj))
		}
		v, ok := getIndex(obj, idx)
		if !ok {
			return Undefined, nil
		}
		return v, nil

	case *Call:
		fn, err := e.evalChain(n.Callee)
		if err != nil || fn == chainCut {
			return fn, err
		}
		if isNullish(fn) && n.Optional {
			return chainCut, nil
		}
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = e.eval(a); err != nil {
				return nil, err
			}
		}
		v, rerr := call(calleeName(n.Callee), fn, args)
		if rerr != nil {
			return nil, rerr
		}
		return v, nil

	case *Unary:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "!":
			return !Truthy(x), nil
		case "-":
			return -ToNumber(x), nil
		default:
			return ToNumber(x), nil
		}

	case *Binary:
		return e.evalBinary(n)

	case *Conditional:
		test, err := e.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if Truthy(test) {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)
	}
	return nil, typeError("unsupported node %T", n)
}

func (e *env) evalBinary(n *Binary) (any, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "&&":
		if !Truthy(x) {
			return x, nil
		}
		return e.eval(n.Y)
	case "||":
		if Truthy(x) {
			return x, nil
		}
		return e.eval(n.Y)
	case "??":
		if !isNullish(x) {
			return x, nil
		}
		return e.eval(n.Y)
	}

	y, err := e.eval(n.Y)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		if isString(x) || isString(y) {
			return ToString(x) + ToString(y), nil
		}
		return ToNumber(x) + ToNumber(y), nil
	case "-":
		return ToNumber(x) - ToNumber(y), nil
	case "*":
		return ToNumber(x) * ToNumber(y), nil
	case "/":
		return ToNumber(x) / ToNumber(y), nil
	case "%":
		return math.Mod(ToNumber(x), ToNumber(y)), nil
	case "==":
		return looseEqual(x, y), nil
	case "!=":
		return !looseEqual(x, y), nil
	case "===":
		return strictEqual(x, y), nil
	case "!==":
		return !strictEqual(x, y), nil
	case "<", "<=", ">", ">=":
		return compare(n.Op, x, y), nil
	}
	return nil, typeError("unsupported operator %q", n.Op)
}

func calleeName(n Node) string {
	switch n := n.(type) {
	case *Ident:
		return n.Name
	case *Member:
		return n.Name
	}
	return "expression"
}
