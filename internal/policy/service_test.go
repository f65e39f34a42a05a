package policy

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Blog{},
		&models.Membership{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.CommentVote{},
		&models.KarmaVote{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func setupService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()

	reg := voting.NewRegistry()
	require.NoError(t, reg.Register(voting.Field{Kind: voting.KindPost, Table: "posts", Column: "rating"}))
	require.NoError(t, reg.Register(voting.Field{Kind: voting.KindComment, Table: "comments", Column: "rating"}))
	require.NoError(t, reg.Register(voting.Field{
		Kind:   voting.KindKarma,
		Table:  "profiles",
		Column: "karma",
		Scope: func(q *gorm.DB, v voting.CastVote) *gorm.DB {
			return q.Where("user_id = ?", v.TargetID)
		},
	}))

	votes, err := voting.NewService(db, reg)
	require.NoError(t, err)

	memberships, err := membership.NewService(db)
	require.NoError(t, err)

	svc, err := NewService(db, memberships, votes)
	require.NoError(t, err)

	return svc
}

func seedUser(t *testing.T, db *gorm.DB, username string, karma int) *models.User {
	t.Helper()

	user := models.User{Username: username, Active: true}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID, Karma: karma}).Error)

	return &user
}

func seedBlog(t *testing.T, db *gorm.DB, mutate func(*models.Blog)) *models.Blog {
	t.Helper()

	blog := models.Blog{
		Name:             "Test Blog",
		Slug:             "test-blog",
		Type:             models.BlogOpen,
		JoinCondition:    models.JoinAnyone,
		PostCondition:    models.WriteAnyone,
		CommentCondition: models.WriteAnyone,
	}
	if mutate != nil {
		mutate(&blog)
	}
	require.NoError(t, db.Create(&blog).Error)

	return &blog
}

func seedPost(t *testing.T, db *gorm.DB, author *models.User, blog *models.Blog, draft bool) *models.Post {
	t.Helper()

	post := models.Post{
		AuthorID: author.ID,
		Heading:  "Post",
		Slug:     "post-" + author.Username,
		IsDraft:  draft,
	}
	if blog != nil {
		post.BlogID = &blog.ID
	}
	require.NoError(t, db.Create(&post).Error)

	return &post
}

func seedMembership(t *testing.T, db *gorm.DB, user *models.User, blog *models.Blog, role models.Role) *models.Membership {
	t.Helper()

	m := models.Membership{UserID: user.ID, BlogID: blog.ID, Role: role, Color: models.DefaultColor}
	require.NoError(t, db.Create(&m).Error)

	return &m
}

func TestCheckCanPost(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	blog := seedBlog(t, db, func(b *models.Blog) {
		b.PostCondition = models.WriteKarmaThreshold
		b.PostKarmaThreshold = 5
		b.PostMembershipRequired = true
	})

	testCases := []struct {
		name     string
		username string
		karma    int
		role     models.Role
		member   bool
		expected bool
	}{
		{name: "member above threshold", username: "rich", karma: 10, role: models.RoleMember, member: true, expected: true},
		{name: "member below threshold", username: "poor", karma: 1, role: models.RoleMember, member: true, expected: false},
		{name: "non-member above threshold", username: "outsider", karma: 10, expected: false},
		{name: "banned member", username: "banned", karma: 10, role: models.RoleBanned, member: true, expected: false},
		{name: "left member", username: "gone", karma: 10, role: models.RoleLeft, member: true, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user := seedUser(t, db, tc.username, tc.karma)
			if tc.member {
				seedMembership(t, db, user, blog, tc.role)
			}

			ok, err := svc.CheckCanPost(blog, user)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestCheckCanPostOpenBlogWithoutMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	blog := seedBlog(t, db, func(b *models.Blog) {
		b.PostMembershipRequired = false
	})

	user := seedUser(t, db, "passerby", 0)

	ok, err := svc.CheckCanPost(blog, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckCanCommentAnonymous(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)
	blog := seedBlog(t, db, nil)

	ok, err := svc.CheckCanComment(blog, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckCanComment(blog, &models.User{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostVisibleTo(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	viewer := seedUser(t, db, "viewer", 0)
	staff := &models.User{ID: 999, Username: "staff", Active: true, Staff: true}

	openBlog := seedBlog(t, db, nil)
	privateBlog := seedBlog(t, db, func(b *models.Blog) {
		b.Name = "Private Blog"
		b.Slug = "private-blog"
		b.Type = models.BlogPrivate
	})

	openPost := seedPost(t, db, author, openBlog, false)
	draft := seedPost(t, db, viewer, openBlog, true)

	privateAuthor := seedUser(t, db, "insider", 0)
	privatePost := seedPost(t, db, privateAuthor, privateBlog, false)

	liveM := seedMembership(t, db, viewer, privateBlog, models.RoleMember)

	testCases := []struct {
		name     string
		blog     *models.Blog
		post     *models.Post
		user     *models.User
		m        *models.Membership
		expected bool
	}{
		{name: "open post, anonymous", blog: openBlog, post: openPost, expected: true},
		{name: "draft invisible to others", blog: openBlog, post: draft, user: author, expected: false},
		{name: "draft visible to author", blog: openBlog, post: draft, user: viewer, expected: true},
		{name: "draft visible to staff", blog: openBlog, post: draft, user: staff, expected: true},
		{name: "private post, anonymous", blog: privateBlog, post: privatePost, expected: false},
		{name: "private post, live member", blog: privateBlog, post: privatePost, user: viewer, m: liveM, expected: true},
		{name: "private post, no membership", blog: privateBlog, post: privatePost, user: author, expected: false},
		{name: "private post, author", blog: privateBlog, post: privatePost, user: privateAuthor, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.PostVisibleTo(tc.blog, tc.post, tc.user, tc.m))
		})
	}
}

func TestPostVisibleToBannedMember(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	banned := seedUser(t, db, "banned", 0)

	privateBlog := seedBlog(t, db, func(b *models.Blog) {
		b.Type = models.BlogPrivate
	})

	post := seedPost(t, db, author, privateBlog, false)
	m := seedMembership(t, db, banned, privateBlog, models.RoleBanned)

	assert.False(t, svc.PostVisibleTo(privateBlog, post, banned, m))

	// an expired ban keeps the role but no longer blocks reading
	past := time.Now().Add(-time.Hour)
	m.BanExpiresAt = &past
	assert.True(t, svc.PostVisibleTo(privateBlog, post, banned, m))
}

func TestVotePostSelfVote(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	blog := seedBlog(t, db, nil)
	post := seedPost(t, db, author, blog, false)

	err := svc.VotePost(author, post.ID, 1)
	require.ErrorIs(t, err, membership.ErrPermissionDenied)
}

func TestVotePost(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	voter := seedUser(t, db, "voter", 0)
	blog := seedBlog(t, db, nil)
	post := seedPost(t, db, author, blog, false)

	require.NoError(t, svc.VotePost(voter, post.ID, 1))

	var reloaded models.Post
	require.NoError(t, db.Take(&reloaded, post.ID).Error)
	assert.Equal(t, 1, reloaded.Rating)
}

func TestVotePostNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)
	voter := seedUser(t, db, "voter", 0)

	err := svc.VotePost(voter, 12345, 1)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestVotePostInvisiblePost(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	outsider := seedUser(t, db, "outsider", 0)

	privateBlog := seedBlog(t, db, func(b *models.Blog) {
		b.Type = models.BlogPrivate
	})
	post := seedPost(t, db, author, privateBlog, false)

	err := svc.VotePost(outsider, post.ID, 1)
	require.ErrorIs(t, err, membership.ErrPermissionDenied)
}

func TestVoteCommentSelfVote(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	blog := seedBlog(t, db, nil)
	post := seedPost(t, db, author, blog, false)

	comment := models.Comment{AuthorID: author.ID, PostID: post.ID, Content: "hi"}
	require.NoError(t, db.Create(&comment).Error)

	err := svc.VoteComment(author, comment.ID, 1)
	require.ErrorIs(t, err, membership.ErrPermissionDenied)
}

func TestVoteComment(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	author := seedUser(t, db, "author", 0)
	voter := seedUser(t, db, "voter", 0)
	blog := seedBlog(t, db, nil)
	post := seedPost(t, db, author, blog, false)

	comment := models.Comment{AuthorID: author.ID, PostID: post.ID, Content: "hi"}
	require.NoError(t, db.Create(&comment).Error)

	require.NoError(t, svc.VoteComment(voter, comment.ID, -1))

	var reloaded models.Comment
	require.NoError(t, db.Take(&reloaded, comment.ID).Error)
	assert.Equal(t, -1, reloaded.Rating)
}

func TestVoteKarma(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)

	voter := seedUser(t, db, "voter", 0)
	target := seedUser(t, db, "target", 0)

	require.NoError(t, svc.VoteKarma(voter, target.ID, 1))

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", target.ID).Take(&profile).Error)
	assert.Equal(t, 1, profile.Karma)
}

func TestVoteKarmaSelfVote(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)
	voter := seedUser(t, db, "voter", 0)

	err := svc.VoteKarma(voter, voter.ID, 1)
	require.ErrorIs(t, err, membership.ErrPermissionDenied)
}

func TestVoteKarmaNoProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := setupService(t, db)
	voter := seedUser(t, db, "voter", 0)

	err := svc.VoteKarma(voter, 12345, 1)
	require.ErrorIs(t, err, ErrProfileNotFound)
}
