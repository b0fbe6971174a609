// Package fragment reconciles a live tree against a changing context.
//
// A Fragment is created for the template root and for every if and
// for-each directive discovered in it. The root fragment is always
// mounted. An if fragment mounts a clone of its template before its
// placeholder while its guard is truthy. A for-each fragment keeps one
// clone per collection item before its placeholder.
//
// Each mounted clone (the root, an if mount, a list item) is a unit: its
// bindings, nested-component hosts, and child fragments are parsed once
// when it is created and kept in the state table under the clone's node,
// so later updates only re-apply them.
//
// # List reconciliation
//
// With a key expression, items are matched by key: removed keys are torn
// down, new keys are created, surviving keys are updated in place, and a
// single forward pass moves nodes whose relative order changed.
//
// Without a key, reconciliation is positional. If the collection length
// is unchanged every rendered item is updated in place with the item now
// at its index; otherwise all items are torn down and rebuilt. Positional
// mode therefore keeps node identity only for same-length updates, and
// identity follows the index rather than the item. Use a key whenever item
// identity matters.
package fragment
