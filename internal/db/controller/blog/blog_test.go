package blog

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Blog{}, &models.Membership{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{Username: username, Active: true}
	require.NoError(t, db.Create(&user).Error)

	return &user
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		blog          models.Blog
		expectedError error
		expectedSlug  string
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			blog:          models.Blog{Name: "Test"},
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			blog:          models.Blog{},
			expectedError: ErrBlogNameEmpty,
		},
		{
			name:          "invalid type",
			dbParam:       db,
			blog:          models.Blog{Name: "Bad", Type: "secret"},
			expectedError: ErrInvalidSettings,
		},
		{
			name:         "successful create",
			dbParam:      db,
			blog:         models.Blog{Name: "Cooking Club"},
			expectedSlug: "cooking-club",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog := tc.blog
			err := Create(tc.dbParam, &blog, owner.ID)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
				assert.NotZero(t, blog.ID)
				assert.Equal(t, tc.expectedSlug, blog.Slug)

				// defaults applied
				assert.Equal(t, models.BlogOpen, blog.Type)
				assert.Equal(t, models.JoinAnyone, blog.JoinCondition)
				assert.Equal(t, models.WriteKarmaThreshold, blog.PostCondition)
				assert.Equal(t, models.WriteAnyone, blog.CommentCondition)

				// the creator owns the blog
				var m models.Membership
				require.NoError(t, db.Where("user_id = ? AND blog_id = ?", owner.ID, blog.ID).Take(&m).Error)
				assert.Equal(t, models.RoleOwner, m.Role)
			}
		})
	}
}

func TestCreateSlugCollision(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")

	first := models.Blog{Name: "Cooking Club"}
	require.NoError(t, Create(db, &first, owner.ID))
	assert.Equal(t, "cooking-club", first.Slug)

	// same folded name needs a numeric suffix; names are unique but
	// "Cooking  Club" folds to the same slug
	second := models.Blog{Name: "Cooking  Club"}
	require.NoError(t, Create(db, &second, owner.ID))
	assert.Equal(t, "cooking-club-2", second.Slug)

	third := models.Blog{Name: "Cooking   Club"}
	require.NoError(t, Create(db, &third, owner.ID))
	assert.Equal(t, "cooking-club-3", third.Slug)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")

	blog := models.Blog{Name: "Cooking Club"}
	require.NoError(t, Create(db, &blog, owner.ID))

	blog.Name = "Baking Club"
	blog.Type = models.BlogPrivate
	require.NoError(t, Update(db, &blog))

	reloaded, err := GetByID(db, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Baking Club", reloaded.Name)
	assert.Equal(t, "baking-club", reloaded.Slug)
	assert.Equal(t, models.BlogPrivate, reloaded.Type)
}

func TestUpdateKeepsOwnSlug(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")

	blog := models.Blog{Name: "Cooking Club"}
	require.NoError(t, Create(db, &blog, owner.ID))

	// saving without a name change must not pick up a -2 suffix
	blog.About = "now with a description"
	require.NoError(t, Update(db, &blog))
	assert.Equal(t, "cooking-club", blog.Slug)
}

func TestGetBySlug(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")

	blog := models.Blog{Name: "Cooking Club"}
	require.NoError(t, Create(db, &blog, owner.ID))

	found, err := GetBySlug(db, "cooking-club")
	require.NoError(t, err)
	assert.Equal(t, blog.ID, found.ID)

	_, err = GetBySlug(db, "nope")
	require.ErrorIs(t, err, ErrBlogNotFound)
}

func TestMembersOrdering(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "zoe")

	blog := models.Blog{Name: "Cooking Club"}
	require.NoError(t, Create(db, &blog, owner.ID))

	seedMember := func(username string, role models.Role) {
		user := seedUser(t, db, username)
		require.NoError(t, db.Create(&models.Membership{
			UserID: user.ID,
			BlogID: blog.ID,
			Role:   role,
			Color:  models.DefaultColor,
		}).Error)
	}

	seedMember("carol", models.RoleLeft)
	seedMember("bob", models.RoleMember)
	seedMember("alice", models.RoleMember)
	seedMember("dan", models.RoleAdmin)
	seedMember("eve", models.RoleBanned)

	members, err := Members(db, blog.ID)
	require.NoError(t, err)
	require.Len(t, members, 6)

	usernames := make([]string, len(members))
	for i, m := range members {
		usernames[i] = m.User.Username
	}

	// owner, admin, members by name, banned, left
	assert.Equal(t, []string{"zoe", "dan", "alice", "bob", "eve", "carol"}, usernames)
}
