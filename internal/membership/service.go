// Package membership implements the registry of user-blog relationships:
// the role state machine behind join/leave/approve/refuse/ban/unban and
// permission flag management, plus the permission evaluation the rest of
// the system authorizes against.
package membership

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
)

// Join outcome messages, surfaced verbatim to the user by the boundary.
const (
	MsgJoined      = "Success"
	MsgStillBanned = "Success. You are still banned, though"
	MsgRequestSent = "A request has been sent"
)

// Actor bundles the user performing a moderation action with their own
// membership in the blog. The membership may be nil (e.g. staff acting on
// a blog they never joined).
type Actor struct {
	User       *models.User
	Membership *models.Membership
}

// StaffOverride reports whether the user's global standing alone grants
// the action. It is the single place the staff bypass lives; every
// authorization path applies it before consulting membership state.
func StaffOverride(u *models.User) bool {
	return u != nil && u.ID != 0 && u.Active && u.Staff
}

// Allows combines the staff override with the membership-level permission
// check. The membership may be nil.
func Allows(a Actor, p models.Permission, now time.Time) bool {
	if StaffOverride(a.User) {
		return true
	}

	return a.Membership != nil && a.Membership.HasPermission(p, now)
}

// Service is the membership registry. Every transition runs in a
// transaction and guards the membership row with a revision check, so two
// racing moderators fail with ErrConcurrentModification instead of
// clobbering each other.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a membership service over the given database.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Service{db: db, now: time.Now}, nil
}

// MembershipFor returns the membership row for the (user, blog) pair, or
// nil when the user never interacted with the blog.
func (s *Service) MembershipFor(userID, blogID uint64) (*models.Membership, error) {
	if userID == 0 {
		return nil, nil
	}

	var m models.Membership

	err := s.db.Where("user_id = ? AND blog_id = ?", userID, blogID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &m, nil
}

// Karma reads the cached karma of a user. Users without a profile row
// score as zero.
func (s *Service) Karma(userID uint64) (int, error) {
	var profile models.Profile

	err := s.db.Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load profile: %w", err)
	}

	return profile.Karma, nil
}

// CheckCanJoin reports whether the user may join (or request to join) the
// blog. False for inactive or anonymous users and for live members; true
// under manual approval means a request can be sent.
func (s *Service) CheckCanJoin(blog *models.Blog, user *models.User) (bool, error) {
	if user == nil || user.ID == 0 || !user.Active {
		return false, nil
	}

	m, err := s.MembershipFor(user.ID, blog.ID)
	if err != nil {
		return false, err
	}

	if m != nil && !m.IsLeft() {
		return false, nil
	}

	switch blog.JoinCondition {
	case models.JoinAnyone, models.JoinManualApproval:
		return true, nil
	case models.JoinKarmaThreshold:
		karma, err := s.Karma(user.ID)
		if err != nil {
			return false, err
		}

		return karma >= blog.JoinKarmaThreshold, nil
	default:
		return false, nil
	}
}

// Join adds the user to the blog under its join condition and returns the
// outcome message. The membership row is created on first contact and
// never deleted afterwards; a ban recorded before leaving survives the
// round trip.
func (s *Service) Join(blog *models.Blog, user *models.User) (string, error) {
	can, err := s.CheckCanJoin(blog, user)
	if err != nil {
		return "", err
	}
	if !can {
		m, err := s.MembershipFor(user.ID, blog.ID)
		if err != nil {
			return "", err
		}
		if m != nil && !m.IsLeft() {
			return "", ErrAlreadyJoined
		}

		return "", fmt.Errorf("%w: you can't join this blog", ErrPermissionDenied)
	}

	var message string

	err = s.db.Transaction(func(tx *gorm.DB) error {
		m, err := s.lockedMembership(tx, user.ID, blog.ID)
		if errors.Is(err, ErrMembershipNotFound) {
			m = &models.Membership{
				UserID: user.ID,
				BlogID: blog.ID,
				Role:   models.RoleLeft,
				Color:  models.DefaultColor,
			}
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}
		} else if err != nil {
			return err
		}

		if !m.IsLeft() {
			return ErrAlreadyJoined
		}

		switch {
		case m.Role == models.RoleLeftBanned:
			message = MsgStillBanned

			return s.transition(tx, m, map[string]interface{}{
				"role":  models.RoleBanned,
				"color": models.DefaultColor,
			})
		case blog.JoinCondition == models.JoinManualApproval:
			message = MsgRequestSent

			return s.transition(tx, m, map[string]interface{}{
				"role":  models.RoleWaiting,
				"color": models.DefaultColor,
			})
		default:
			message = MsgJoined

			return s.transition(tx, m, map[string]interface{}{
				"role":  models.RoleMember,
				"color": models.DefaultColor,
			})
		}
	})
	if err != nil {
		return "", err
	}

	return message, nil
}

// Leave removes the user from the blog. Owners cannot leave; a banned
// member leaves into RoleLeftBanned so the ban persists. The row stays.
func (s *Service) Leave(blog *models.Blog, user *models.User) error {
	if user == nil || user.ID == 0 {
		return fmt.Errorf("%w: you should be logged in", ErrPermissionDenied)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		m, err := s.lockedMembership(tx, user.ID, blog.ID)
		if errors.Is(err, ErrMembershipNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if m.Role == models.RoleOwner || m.IsLeft() {
			return nil
		}

		next := models.RoleLeft
		if m.Role == models.RoleBanned {
			next = models.RoleLeftBanned
		}

		return s.transition(tx, m, map[string]interface{}{
			"role":  next,
			"color": models.DefaultColor,
		})
	})
}

// Approve accepts a pending join request, promoting it to RoleMember.
func (s *Service) Approve(actor Actor, target *models.Membership) error {
	if !Allows(actor, models.PermAcceptNewUsers, s.now()) {
		return fmt.Errorf("%w: you can't accept new users here", ErrPermissionDenied)
	}
	if target.Role != models.RoleWaiting {
		return ErrNotAwaitingApproval
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.transition(tx, target, map[string]interface{}{
			"role":  models.RoleMember,
			"color": models.DefaultColor,
		})
	})
}

// Refuse declines a pending join request, returning it to RoleLeft.
func (s *Service) Refuse(actor Actor, target *models.Membership) error {
	if !Allows(actor, models.PermAcceptNewUsers, s.now()) {
		return fmt.Errorf("%w: you can't refuse join requests here", ErrPermissionDenied)
	}
	if target.Role != models.RoleWaiting {
		return ErrNotAwaitingApproval
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.transition(tx, target, map[string]interface{}{
			"role":  models.RoleLeft,
			"color": models.DefaultColor,
		})
	})
}

// Ban bans the target member. A nil duration makes the ban permanent
// (no expiration); otherwise the ban runs until now + duration. Owners
// and admins are never bannable.
func (s *Service) Ban(actor Actor, target *models.Membership, duration *time.Duration) error {
	now := s.now()

	if !Allows(actor, models.PermBan, now) {
		return fmt.Errorf("%w: you can't ban members here", ErrPermissionDenied)
	}
	if !target.CanBeBanned() {
		return ErrNotBannable
	}

	var expires *time.Time
	if duration != nil {
		e := now.Add(*duration)
		expires = &e
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.transition(tx, target, map[string]interface{}{
			"role":           models.RoleBanned,
			"ban_expires_at": expires,
		})
	})
}

// Unban lifts a ban, returning the target to RoleMember.
func (s *Service) Unban(actor Actor, target *models.Membership) error {
	if !Allows(actor, models.PermBan, s.now()) {
		return fmt.Errorf("%w: you can't unban members here", ErrPermissionDenied)
	}
	if target.Role != models.RoleBanned {
		return ErrNotBanned
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.transition(tx, target, map[string]interface{}{
			"role":           models.RoleMember,
			"ban_expires_at": nil,
		})
	})
}

// ManageFlags replaces the target's permission flags. Granting any flag
// promotes a member to admin; clearing them all demotes an admin back to
// member. Owner rows are immutable through this path, and members cannot
// manage their own flags.
func (s *Service) ManageFlags(actor Actor, target *models.Membership, flags models.PermissionFlags) error {
	now := s.now()

	if !Allows(actor, models.PermManagePermissions, now) {
		return fmt.Errorf("%w: you can't manage permissions here", ErrPermissionDenied)
	}
	if target.Role == models.RoleOwner {
		return fmt.Errorf("%w: the owner's permissions are immutable", ErrPermissionDenied)
	}
	if actor.User != nil && actor.User.ID == target.UserID {
		return fmt.Errorf("%w: you can't manage your own permissions", ErrPermissionDenied)
	}

	role := target.Role

	switch {
	case flags.Any() && role == models.RoleMember:
		role = models.RoleAdmin
	case !flags.Any() && role == models.RoleAdmin:
		role = models.RoleMember
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.transition(tx, target, map[string]interface{}{
			"role":                        role,
			"can_change_settings_flag":    flags.ChangeSettings,
			"can_delete_posts_flag":       flags.DeletePosts,
			"can_delete_comments_flag":    flags.DeleteComments,
			"can_ban_flag":                flags.Ban,
			"can_accept_new_users_flag":   flags.AcceptNewUsers,
			"can_manage_permissions_flag": flags.ManagePermissions,
		})
	})
}

// lockedMembership re-reads the membership inside a transaction so the
// revision guard covers the whole transition.
func (s *Service) lockedMembership(tx *gorm.DB, userID, blogID uint64) (*models.Membership, error) {
	var m models.Membership

	err := tx.Where("user_id = ? AND blog_id = ?", userID, blogID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &m, nil
}

// transition applies the column changes to the membership row iff its
// revision has not moved since the caller read it. The in-memory struct is
// refreshed on success.
func (s *Service) transition(tx *gorm.DB, m *models.Membership, changes map[string]interface{}) error {
	expected := m.Revision
	changes["revision"] = expected + 1

	result := tx.Model(&models.Membership{}).
		Where("id = ? AND revision = ?", m.ID, expected).
		Updates(changes)
	if result.Error != nil {
		return fmt.Errorf("failed to update membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentModification
	}

	return tx.Take(m, m.ID).Error
}
