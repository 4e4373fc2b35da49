package domain

import "context"

// Category is owned by the external category catalog and is read-only here.
// swagger:model Category
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryCatalog is the read-only client over the category catalog; the
// batch/single contract matches UserDirectory (partial batch results are
// success, ResolveOne returns ErrCategoryNotFound).
type CategoryCatalog interface {
	ResolveMany(ctx context.Context, ids []int64) (map[int64]*Category, error)
	ResolveOne(ctx context.Context, id int64) (*Category, error)
}
