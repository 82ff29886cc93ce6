package seedcache

import "context"

type ctxKey struct{}

// NewContext returns a context carrying the table. This is the explicit
// scoped handle for one rendering context: acquire at the boundary with
// NewContext, read anywhere below with FromContext, and let the table go out
// of scope when the context ends.
func NewContext(ctx context.Context, t *Table) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext extracts the table placed by NewContext, if any.
func FromContext(ctx context.Context) (*Table, bool) {
	t, ok := ctx.Value(ctxKey{}).(*Table)
	return t, ok
}
