package models

import (
	"sort"
	"time"
)

// Role represents the state of a user's relationship with a blog.
// A membership row is created on the first join and is never deleted:
// leaving transitions the role to RoleLeft or RoleLeftBanned so the
// history (flags, ban state) survives a later re-join.
type Role string

const (
	// RoleOwner is the blog creator. Owners hold every permission
	// implicitly and cannot leave or be banned.
	RoleOwner Role = "owner"
	// RoleAdmin is a member holding at least one permission flag.
	RoleAdmin Role = "admin"
	// RoleMember is a regular member.
	RoleMember Role = "member"
	// RoleBanned is a member banned from the blog.
	RoleBanned Role = "banned"
	// RoleWaiting is a join request pending manual approval.
	RoleWaiting Role = "waiting"
	// RoleLeft is a user who left the blog.
	RoleLeft Role = "left"
	// RoleLeftBanned is a banned user who left; the ban survives re-joining.
	RoleLeftBanned Role = "left_banned"
)

// RoleOrder maps roles to their position in member listings
// (owner first, left last).
var RoleOrder = map[Role]int{
	RoleOwner:      0,
	RoleAdmin:      2,
	RoleWaiting:    3,
	RoleMember:     4,
	RoleBanned:     5,
	RoleLeftBanned: 5,
	RoleLeft:       6,
}

// DefaultColor is the display color assigned to fresh members.
const DefaultColor = "gray"

// Permission identifies one of the per-blog permission flags a
// membership can carry.
type Permission string

const (
	// PermChangeSettings allows editing the blog's settings.
	PermChangeSettings Permission = "change_settings"
	// PermDeletePosts allows deleting other members' posts.
	PermDeletePosts Permission = "delete_posts"
	// PermDeleteComments allows deleting other members' comments.
	PermDeleteComments Permission = "delete_comments"
	// PermBan allows banning and unbanning members.
	PermBan Permission = "ban"
	// PermAcceptNewUsers allows accepting and refusing join requests.
	PermAcceptNewUsers Permission = "accept_new_users"
	// PermManagePermissions allows editing other members' permission flags.
	PermManagePermissions Permission = "manage_permissions"
)

// PermissionFlags is the set of boolean permission flags on a membership.
type PermissionFlags struct {
	ChangeSettings    bool `json:"can_change_settings"`
	DeletePosts       bool `json:"can_delete_posts"`
	DeleteComments    bool `json:"can_delete_comments"`
	Ban               bool `json:"can_ban"`
	AcceptNewUsers    bool `json:"can_accept_new_users"`
	ManagePermissions bool `json:"can_manage_permissions"`
}

// Any reports whether at least one flag is set.
func (f PermissionFlags) Any() bool {
	return f.ChangeSettings || f.DeletePosts || f.DeleteComments ||
		f.Ban || f.AcceptNewUsers || f.ManagePermissions
}

// Get returns the flag value for the given permission.
func (f PermissionFlags) Get(p Permission) bool {
	switch p {
	case PermChangeSettings:
		return f.ChangeSettings
	case PermDeletePosts:
		return f.DeletePosts
	case PermDeleteComments:
		return f.DeleteComments
	case PermBan:
		return f.Ban
	case PermAcceptNewUsers:
		return f.AcceptNewUsers
	case PermManagePermissions:
		return f.ManagePermissions
	default:
		return false
	}
}

// Membership represents the durable relationship between a user and a blog.
// Exactly one row exists per (user, blog) pair for the lifetime of that
// relationship. The rating columns are vote caches maintained by the
// voting service.
type Membership struct {
	// ID is the unique identifier for the membership.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the ID of the member. Unique together with BlogID.
	UserID uint64 `gorm:"uniqueIndex:idx_user_blog;not null"`
	// User is the associated user (enforced with a foreign key constraint).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// BlogID is the ID of the blog. Unique together with UserID.
	BlogID uint64 `gorm:"uniqueIndex:idx_user_blog;not null"`
	// Blog is the associated blog (enforced with a foreign key constraint).
	Blog Blog `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`

	// Role is the membership state.
	Role Role `gorm:"type:varchar(20);not null;default:'left'"`
	// Color is the cosmetic display tag for the member's name.
	Color string `gorm:"size:10;not null;default:'gray'"`

	// BanExpiresAt is the end of a temporary ban. Nil while RoleBanned
	// means the ban is permanent. IsBanned is the authoritative check;
	// an expired ban keeps the role until unban or leave.
	BanExpiresAt *time.Time

	// CanChangeSettingsFlag allows editing the blog's settings.
	CanChangeSettingsFlag bool `gorm:"not null;default:false"`
	// CanDeletePostsFlag allows deleting other members' posts.
	CanDeletePostsFlag bool `gorm:"not null;default:false"`
	// CanDeleteCommentsFlag allows deleting other members' comments.
	CanDeleteCommentsFlag bool `gorm:"not null;default:false"`
	// CanBanFlag allows banning and unbanning members.
	CanBanFlag bool `gorm:"not null;default:false"`
	// CanAcceptNewUsersFlag allows accepting and refusing join requests.
	CanAcceptNewUsersFlag bool `gorm:"not null;default:false"`
	// CanManagePermissionsFlag allows editing other members' flags.
	CanManagePermissionsFlag bool `gorm:"not null;default:false"`

	// OverallPostsRating is the cached signed sum of votes on the member's
	// posts within this blog.
	OverallPostsRating int `gorm:"not null;default:0"`
	// OverallCommentsRating is the cached signed sum of votes on the
	// member's comments within this blog.
	OverallCommentsRating int `gorm:"not null;default:0"`

	// Revision is bumped on every role transition. Updates carry the
	// expected revision so concurrent moderator actions fail instead of
	// silently clobbering each other.
	Revision uint64 `gorm:"not null;default:0"`

	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the membership was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Membership model.
func (Membership) TableName() string {
	return "memberships"
}

// Flags collects the permission flag columns into a PermissionFlags value.
func (m *Membership) Flags() PermissionFlags {
	return PermissionFlags{
		ChangeSettings:    m.CanChangeSettingsFlag,
		DeletePosts:       m.CanDeletePostsFlag,
		DeleteComments:    m.CanDeleteCommentsFlag,
		Ban:               m.CanBanFlag,
		AcceptNewUsers:    m.CanAcceptNewUsersFlag,
		ManagePermissions: m.CanManagePermissionsFlag,
	}
}

// SetFlags writes a PermissionFlags value back to the flag columns.
func (m *Membership) SetFlags(f PermissionFlags) {
	m.CanChangeSettingsFlag = f.ChangeSettings
	m.CanDeletePostsFlag = f.DeletePosts
	m.CanDeleteCommentsFlag = f.DeleteComments
	m.CanBanFlag = f.Ban
	m.CanAcceptNewUsersFlag = f.AcceptNewUsers
	m.CanManagePermissionsFlag = f.ManagePermissions
}

// IsLeft reports whether the member has left the blog.
func (m *Membership) IsLeft() bool {
	return m.Role == RoleLeft || m.Role == RoleLeftBanned
}

// IsBanned reports whether the ban is in effect at the given instant.
// A nil expiration on a banned role means the ban is permanent.
func (m *Membership) IsBanned(now time.Time) bool {
	if m.Role != RoleBanned && m.Role != RoleLeftBanned {
		return false
	}

	return m.BanExpiresAt == nil || m.BanExpiresAt.After(now)
}

// BanIsPermanent reports whether the member is banned with no expiration.
func (m *Membership) BanIsPermanent() bool {
	return (m.Role == RoleBanned || m.Role == RoleLeftBanned) && m.BanExpiresAt == nil
}

// CanBeBanned reports whether the ban transition applies to this role.
// Owners, admins, pending requests and users who left cleanly are not
// bannable through this path.
func (m *Membership) CanBeBanned() bool {
	return m.Role == RoleMember || m.Role == RoleBanned || m.Role == RoleLeftBanned
}

// SortMemberships orders memberships for display: owners first, then
// admins, pending requests, members, banned, and finally users who left.
// Usernames break ties.
func SortMemberships(ms []Membership) {
	sort.SliceStable(ms, func(i, j int) bool {
		oi, oj := RoleOrder[ms[i].Role], RoleOrder[ms[j].Role]
		if oi != oj {
			return oi < oj
		}

		return ms[i].User.Username < ms[j].User.Username
	})
}

// HasPermission evaluates one permission flag against the membership
// state. Only owners and admins who are neither banned nor left pass;
// owners pass regardless of flags. This is the pure half of the check:
// the staff override is applied separately by the policy layer.
func (m *Membership) HasPermission(p Permission, now time.Time) bool {
	if m.Role != RoleOwner && m.Role != RoleAdmin {
		return false
	}
	if m.IsLeft() || m.IsBanned(now) {
		return false
	}

	return m.Role == RoleOwner || m.Flags().Get(p)
}
