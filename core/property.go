package core

import "context"

// PropertyStore is a small JSON-valued KV used for process bookkeeping.
type PropertyStore interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any) error
}
