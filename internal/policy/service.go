// Package policy implements the decision functions that combine a blog's
// configuration with a user's membership: who can join, post and comment,
// who can see a post, and the gates every vote passes through before it
// reaches the ledger.
package policy

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
)

var (
	// ErrPostNotFound is returned when a referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound is returned when a referenced comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrProfileNotFound is returned when a karma vote targets a user
	// without a profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Service evaluates blog policies and gates vote casting.
type Service struct {
	db          *gorm.DB
	memberships *membership.Service
	votes       *voting.Service
	now         func() time.Time
}

// NewService creates a policy service over the given collaborators.
func NewService(db *gorm.DB, memberships *membership.Service, votes *voting.Service) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Service{
		db:          db,
		memberships: memberships,
		votes:       votes,
		now:         time.Now,
	}, nil
}

// CheckCanJoin reports whether the user may join (or request to join) the blog.
func (s *Service) CheckCanJoin(blog *models.Blog, user *models.User) (bool, error) {
	return s.memberships.CheckCanJoin(blog, user)
}

// CheckCanPost reports whether the user may publish posts into the blog.
func (s *Service) CheckCanPost(blog *models.Blog, user *models.User) (bool, error) {
	return s.checkCanWrite(blog, user,
		blog.Type != models.BlogOpen || blog.PostMembershipRequired,
		blog.PostCondition, blog.PostKarmaThreshold)
}

// CheckCanComment reports whether the user may comment in the blog. It
// mirrors CheckCanPost over the comment policy columns.
func (s *Service) CheckCanComment(blog *models.Blog, user *models.User) (bool, error) {
	return s.checkCanWrite(blog, user,
		blog.Type != models.BlogOpen || blog.CommentMembershipRequired,
		blog.CommentCondition, blog.CommentKarmaThreshold)
}

func (s *Service) checkCanWrite(blog *models.Blog, user *models.User, needMembership bool, cond models.WriteCondition, threshold int) (bool, error) {
	if user == nil || user.ID == 0 || !user.Active {
		return false, nil
	}

	if needMembership {
		m, err := s.memberships.MembershipFor(user.ID, blog.ID)
		if err != nil {
			return false, err
		}
		if m == nil || m.IsLeft() || m.IsBanned(s.now()) {
			return false, nil
		}
	}

	if cond == models.WriteKarmaThreshold {
		karma, err := s.memberships.Karma(user.ID)
		if err != nil {
			return false, err
		}
		if karma < threshold {
			return false, nil
		}
	}

	return true, nil
}

// PostVisibleTo reports whether the user may see the post. Staff and the
// author always can; drafts are invisible to everyone else; otherwise the
// blog must be open or the membership live and not banned.
func (s *Service) PostVisibleTo(blog *models.Blog, post *models.Post, user *models.User, m *models.Membership) bool {
	if membership.StaffOverride(user) {
		return true
	}
	if user != nil && user.ID != 0 && user.ID == post.AuthorID {
		return true
	}
	if post.IsDraft || blog == nil {
		return false
	}
	if blog.Type == models.BlogOpen {
		return true
	}

	return m != nil && !m.IsLeft() && !m.IsBanned(s.now())
}

// PostVotableBy reports whether the user may vote on the post. Authors
// never vote on their own posts.
func (s *Service) PostVotableBy(blog *models.Blog, post *models.Post, user *models.User, m *models.Membership) bool {
	if user == nil || user.ID == 0 || user.ID == post.AuthorID {
		return false
	}

	return user.Active && s.PostVisibleTo(blog, post, user, m)
}

// VotePost authorizes and casts a vote on a post.
func (s *Service) VotePost(user *models.User, postID uint64, vote int) error {
	var post models.Post

	err := s.db.Take(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}

	if user != nil && user.ID == post.AuthorID {
		return fmt.Errorf("%w: you can't vote for your own post", membership.ErrPermissionDenied)
	}

	blog, m, err := s.postContext(&post, user)
	if err != nil {
		return err
	}

	if !s.PostVotableBy(blog, &post, user, m) {
		return fmt.Errorf("%w: you can't vote for this post", membership.ErrPermissionDenied)
	}

	return s.votes.Cast(user, voting.KindPost, post.ID, vote)
}

// VoteComment authorizes and casts a vote on a comment. The visibility
// rule is the enclosing post's.
func (s *Service) VoteComment(user *models.User, commentID uint64, vote int) error {
	var comment models.Comment

	err := s.db.Take(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load comment: %w", err)
	}

	if user != nil && user.ID == comment.AuthorID {
		return fmt.Errorf("%w: you can't vote for your own comment", membership.ErrPermissionDenied)
	}

	var post models.Post
	if err := s.db.Take(&post, comment.PostID).Error; err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}

	blog, m, err := s.postContext(&post, user)
	if err != nil {
		return err
	}

	if user == nil || user.ID == 0 || !user.Active ||
		!s.PostVisibleTo(blog, &post, user, m) {
		return fmt.Errorf("%w: you can't vote for this comment", membership.ErrPermissionDenied)
	}

	return s.votes.Cast(user, voting.KindComment, comment.ID, vote)
}

// VoteKarma authorizes and casts a reputation vote on another user.
func (s *Service) VoteKarma(user *models.User, targetUserID uint64, vote int) error {
	if user != nil && user.ID == targetUserID {
		return fmt.Errorf("%w: you can't vote for yourself", membership.ErrPermissionDenied)
	}

	var profile models.Profile

	err := s.db.Where("user_id = ?", targetUserID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if !profile.CanBeVotedBy(user) {
		return fmt.Errorf("%w: you can't vote for this user", membership.ErrPermissionDenied)
	}

	return s.votes.Cast(user, voting.KindKarma, targetUserID, vote)
}

// postContext loads the post's blog and the user's membership in it.
// Draft posts without a blog yield a nil blog and nil membership.
func (s *Service) postContext(post *models.Post, user *models.User) (*models.Blog, *models.Membership, error) {
	if post.BlogID == nil {
		return nil, nil, nil
	}

	var blog models.Blog
	if err := s.db.Take(&blog, *post.BlogID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load blog: %w", err)
	}

	var m *models.Membership

	if user != nil && user.ID != 0 {
		found, err := s.memberships.MembershipFor(user.ID, blog.ID)
		if err != nil {
			return nil, nil, err
		}

		m = found
	}

	return &blog, m, nil
}
