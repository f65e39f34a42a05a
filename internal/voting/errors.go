package voting

import "errors"

var (
	// ErrInvalidVoteValue is returned when a vote is outside {-1, 0, +1}.
	ErrInvalidVoteValue = errors.New("vote must be -1, 0 or +1")

	// ErrUnauthenticated is returned when a vote is cast without a user.
	ErrUnauthenticated = errors.New("you should be logged in")

	// ErrAccountDisabled is returned when a deactivated user casts a vote.
	ErrAccountDisabled = errors.New("your account is disabled")

	// ErrUnknownVoteKind is returned for a vote kind no ledger table backs.
	ErrUnknownVoteKind = errors.New("unknown vote kind")

	// ErrCacheFieldIncomplete is returned when a cache field registration
	// misses its table or column name.
	ErrCacheFieldIncomplete = errors.New("cache field needs a table and a column")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrRegistryNil is returned when the cache field registry is nil.
	ErrRegistryNil = errors.New("cache field registry is nil")
)
