package fragment

import (
	"reflect"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/scope"
)

// dupKey stands in for a repeated key so the later item still renders.
type dupKey struct {
	key   any
	index int
}

func (f *Fragment) itemContext(ctx scope.Context, item any, i int) scope.Context {
	return ctx.With(f.desc.ItemName, item).With(IndexName, i)
}

func (f *Fragment) updateForEach(ctx scope.Context) {
	v := f.cfg.Evaluator.Evaluate(f.desc.Expression, ctx)
	items, ok := expr.Items(v)
	if !ok {
		if !expr.IsAbsent(v) {
			f.cfg.Logger.Debug("for-each collection is not a list", "expr", f.desc.Expression)
		}
		items = nil
	}
	if f.keyed != nil {
		f.reconcileKeyed(ctx, items)
		return
	}
	f.reconcilePositional(ctx, items)
}

func (f *Fragment) reconcilePositional(ctx scope.Context, items []any) {
	if len(items) == len(f.items) {
		for i, n := range f.items {
			f.updateItem(n, f.itemContext(ctx, items[i], i), items[i])
			f.cfg.Metrics.FragmentOp("item_update")
		}
		return
	}

	f.teardownItems()
	if len(items) > 0 {
		f.cfg.Metrics.FragmentOp("rebuild")
	}
	for i, item := range items {
		n, err := f.createItem()
		if err != nil {
			f.cfg.Logger.Error("for-each item failed", "expr", f.desc.Expression, "index", i, "error", err)
			continue
		}
		f.insert(n, f.desc.Placeholder)
		f.items = append(f.items, n)
		f.updateItem(n, f.itemContext(ctx, item, i), item)
	}
}

func (f *Fragment) reconcileKeyed(ctx scope.Context, items []any) {
	keys := make([]any, len(items))
	ctxs := make([]scope.Context, len(items))
	seen := make(map[any]bool, len(items))
	for i, item := range items {
		ictx := f.itemContext(ctx, item, i)
		k := normalizeKey(f.cfg.Evaluator.Evaluate(f.desc.KeyExpression, ictx))
		if seen[k] {
			f.cfg.Logger.Warn("duplicate for-each key", "expr", f.desc.KeyExpression, "key", k, "index", i)
			k = dupKey{key: k, index: i}
		}
		seen[k] = true
		keys[i] = k
		ctxs[i] = ictx
	}

	// Removed keys go first so the surviving nodes are contiguous.
	for k, n := range f.keyed {
		if !seen[k] {
			f.teardownUnit(n)
			delete(f.keyed, k)
			f.cfg.Metrics.FragmentOp("item_remove")
		}
	}

	var cursor *dom.Node
	for _, n := range f.items {
		if n.Parent != nil {
			cursor = n
			break
		}
	}
	if cursor == nil {
		cursor = f.desc.Placeholder
	}

	next := make([]*dom.Node, 0, len(items))
	created := make(map[*dom.Node]bool)
	for i, k := range keys {
		n, ok := f.keyed[k]
		if !ok {
			var err error
			if n, err = f.createItem(); err != nil {
				f.cfg.Logger.Error("for-each item failed", "expr", f.desc.Expression, "index", i, "error", err)
				continue
			}
			f.keyed[k] = n
			created[n] = true
			f.cfg.Metrics.FragmentOp("item_create")
		}
		next = append(next, n)
	}

	for _, n := range next {
		if n == cursor {
			cursor = cursor.NextSibling
			continue
		}
		f.insert(n, cursor)
	}
	f.items = next

	for i, k := range keys {
		n, ok := f.keyed[k]
		if !ok {
			continue
		}
		if !created[n] {
			f.cfg.Metrics.FragmentOp("item_update")
		}
		f.cfg.State.Ensure(n.ID).Key = k
		f.updateItem(n, ctxs[i], items[i])
	}
}

// createItem clones the item template and parses it while detached.
func (f *Fragment) createItem() (*dom.Node, error) {
	n := f.desc.Template.CloneDeep()
	if err := f.mountUnit(n); err != nil {
		f.releaseUnit(n)
		return nil, err
	}
	return n, nil
}

func (f *Fragment) updateItem(n *dom.Node, ctx scope.Context, item any) {
	f.cfg.State.Ensure(n.ID).ForEachItem = item
	f.updateUnit(n, ctx)
}

func (f *Fragment) teardownItems() {
	for _, n := range f.items {
		f.teardownUnit(n)
		f.cfg.Metrics.FragmentOp("item_remove")
	}
	f.items = nil
	for k := range f.keyed {
		delete(f.keyed, k)
	}
}

// normalizeKey maps keys that compare equal in expressions to the same map
// key: every number becomes a float64 and values that cannot be hashed use
// their string form.
func normalizeKey(k any) any {
	switch v := k.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return expr.ToNumber(v)
	}
	if !reflect.TypeOf(k).Comparable() || !hashable(k) {
		return expr.ToString(k)
	}
	return k
}

// hashable reports whether k can be used as a map key. A comparable static
// type can still hold a slice or map in an interface field.
func hashable(k any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{k: {}}
	return true
}
