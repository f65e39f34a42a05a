// Package voting implements the vote ledger shared by post ratings,
// comment ratings and user karma, together with the denormalized cache
// columns kept in sync with it.
//
// Each vote kind is an append-only per-(voter, target) record of +1/-1.
// Cache fields are registered against a kind; every vote mutation applies
// its delta to the rows the field's scope selects, atomically and in the
// same transaction as the ledger write. Reads of a cache column never
// recompute anything.
package voting

import "gorm.io/gorm"

// Kind identifies one vote ledger table.
type Kind string

const (
	// KindPost is the ledger of votes on posts.
	KindPost Kind = "post"
	// KindComment is the ledger of votes on comments.
	KindComment Kind = "comment"
	// KindKarma is the ledger of reputation votes on users.
	KindKarma Kind = "karma"
)

// kindTables maps a vote kind to its ledger table.
var kindTables = map[Kind]string{
	KindPost:    "post_votes",
	KindComment: "comment_votes",
	KindKarma:   "karma_votes",
}

// CastVote is the vote mutation handed to a cache field scope.
type CastVote struct {
	// UserID is the voter.
	UserID uint64
	// TargetID is the voted entity.
	TargetID uint64
	// Vote is the new value, 0 for a retraction.
	Vote int
}

// Scope narrows a query on a cache field's owner table down to the rows
// that must absorb a vote's delta. It receives a query already bound to
// the owner table. Scopes are evaluated at vote time: whichever rows
// match when the vote lands receive the delta.
type Scope func(q *gorm.DB, v CastVote) *gorm.DB

// Field declares one denormalized cache column watching a vote kind.
// A nil Scope selects the single owner row whose primary key equals the
// vote's target.
type Field struct {
	// Kind is the vote ledger this field watches.
	Kind Kind
	// Table is the owner table carrying the cache column.
	Table string
	// Column is the integer cache column.
	Column string
	// Scope selects the owner rows to adjust; nil means "id = target".
	Scope Scope
}

// Registry is the directory of cache fields, keyed by vote kind. It is
// built once at startup and passed into the voting service explicitly so
// tests can construct isolated registries.
type Registry struct {
	fields map[Kind][]Field
}

// NewRegistry creates an empty cache field registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[Kind][]Field)}
}

// Register adds a cache field to the registry.
func (r *Registry) Register(f Field) error {
	if _, ok := kindTables[f.Kind]; !ok {
		return ErrUnknownVoteKind
	}
	if f.Table == "" || f.Column == "" {
		return ErrCacheFieldIncomplete
	}

	r.fields[f.Kind] = append(r.fields[f.Kind], f)

	return nil
}

// FieldsFor returns the cache fields watching the given kind.
func (r *Registry) FieldsFor(k Kind) []Field {
	return r.fields[k]
}
