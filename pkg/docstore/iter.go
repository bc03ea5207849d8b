package docstore

import (
	"context"
	"iter"
)

// All lists every document of coll lazily, converting each with decode.
// Iteration stops at the first error, which is yielded once with a zero T.
// The cursor is opened on the first pull and closed when iteration ends.
func All[T any](ctx context.Context, coll Collection, decode func(Document) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		cur, err := coll.FindAll(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer cur.Close(context.WithoutCancel(ctx))

		for cur.Next(ctx) {
			item, err := decode(cur.Document())
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}

		if err := cur.Err(); err != nil {
			yield(zero, err)
		}
	}
}
