package daemon

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/voting"
)

// membershipRoleFilter keeps cache deltas away from withdrawn
// memberships. Their per-blog rating columns freeze when the user leaves.
const membershipRoleFilter = "role NOT IN ('left', 'left_banned')"

// buildRegistry wires up every denormalized vote cache column:
//
//	posts.rating                       <- post votes
//	comments.rating                    <- comment votes
//	profiles.karma                     <- karma votes
//	memberships.overall_posts_rating   <- post votes, via the post's author and blog
//	memberships.overall_comments_rating<- comment votes, via the comment's post
func buildRegistry() (*voting.Registry, error) {
	reg := voting.NewRegistry()

	fields := []voting.Field{
		{
			Kind:   voting.KindPost,
			Table:  "posts",
			Column: "rating",
		},
		{
			Kind:   voting.KindComment,
			Table:  "comments",
			Column: "rating",
		},
		{
			Kind:   voting.KindKarma,
			Table:  "profiles",
			Column: "karma",
			Scope: func(q *gorm.DB, v voting.CastVote) *gorm.DB {
				return q.Where("user_id = ?", v.TargetID)
			},
		},
		{
			Kind:   voting.KindPost,
			Table:  "memberships",
			Column: "overall_posts_rating",
			Scope: func(q *gorm.DB, v voting.CastVote) *gorm.DB {
				return q.Where(
					"user_id = (SELECT author_id FROM posts WHERE id = ?)"+
						" AND blog_id = (SELECT blog_id FROM posts WHERE id = ?)"+
						" AND "+membershipRoleFilter,
					v.TargetID, v.TargetID,
				)
			},
		},
		{
			Kind:   voting.KindComment,
			Table:  "memberships",
			Column: "overall_comments_rating",
			Scope: func(q *gorm.DB, v voting.CastVote) *gorm.DB {
				return q.Where(
					"user_id = (SELECT author_id FROM comments WHERE id = ?)"+
						" AND blog_id = (SELECT blog_id FROM posts"+
						" WHERE id = (SELECT post_id FROM comments WHERE id = ?))"+
						" AND "+membershipRoleFilter,
					v.TargetID, v.TargetID,
				)
			},
		},
	}

	for _, f := range fields {
		if err := reg.Register(f); err != nil {
			return nil, fmt.Errorf("failed to register cache field %s.%s: %w", f.Table, f.Column, err)
		}
	}

	return reg, nil
}
