package membership

import "errors"

var (
	// ErrPermissionDenied is returned whenever an action is attempted
	// outside its authorization rule. The wrapped message carries the
	// human-readable note shown to the user; this is never a server fault.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyJoined is returned when a live (non-left) member joins again.
	ErrAlreadyJoined = errors.New("you've already joined this blog")

	// ErrNotAwaitingApproval is returned when approving or refusing a
	// membership that holds no pending join request.
	ErrNotAwaitingApproval = errors.New("membership is not awaiting approval")

	// ErrNotBannable is returned when the ban transition does not apply to
	// the target's role (owners, admins, pending requests, clean leavers).
	ErrNotBannable = errors.New("this member cannot be banned")

	// ErrNotBanned is returned when unbanning a member who is not banned.
	ErrNotBanned = errors.New("this member is not banned")

	// ErrMembershipNotFound is returned when no membership row exists for
	// the requested (user, blog) pair.
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrConcurrentModification is returned when two moderators race to
	// change the same membership row. The caller may retry.
	ErrConcurrentModification = errors.New("membership was changed concurrently, retry")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)
