package domain

import "context"

// User is the full projection owned by the external identity directory.
// swagger:model User
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserShort is the display projection embedded in event output.
// swagger:model UserShort
type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Short returns the display projection of u.
func (u *User) Short() *UserShort {
	return &UserShort{ID: u.ID, Name: u.Name}
}

// UserDirectory is the read-only client over the identity directory.
//
// ResolveMany omits ids unknown upstream: partial results are success. An
// empty id set returns an empty map without a network round trip.
// ResolveOne returns ErrUserNotFound and is used only where absence must
// abort the calling operation.
type UserDirectory interface {
	ResolveMany(ctx context.Context, ids []int64) (map[int64]*User, error)
	ResolveOne(ctx context.Context, id int64) (*User, error)
}
