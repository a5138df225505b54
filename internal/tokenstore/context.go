package tokenstore

import "context"

type contextKey struct {
	name string
}

var storeKey = contextKey{"token_store"}

// ContextWithStore returns a copy of ctx carrying store.
// The api client prefers a store found in the request context over its own default store.
func ContextWithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, storeKey, store)
}

func StoreFromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(storeKey).(Store)
	return store, ok && store != nil
}
