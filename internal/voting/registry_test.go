package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	testCases := []struct {
		name          string
		field         Field
		expectedError error
	}{
		{
			name:  "valid field",
			field: Field{Kind: KindPost, Table: "posts", Column: "rating"},
		},
		{
			name:          "unknown kind",
			field:         Field{Kind: Kind("star"), Table: "posts", Column: "rating"},
			expectedError: ErrUnknownVoteKind,
		},
		{
			name:          "missing table",
			field:         Field{Kind: KindPost, Column: "rating"},
			expectedError: ErrCacheFieldIncomplete,
		},
		{
			name:          "missing column",
			field:         Field{Kind: KindPost, Table: "posts"},
			expectedError: ErrCacheFieldIncomplete,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Register(tc.field)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Empty(t, reg.FieldsFor(tc.field.Kind))
			} else {
				require.NoError(t, err)
				assert.Len(t, reg.FieldsFor(tc.field.Kind), 1)
			}
		})
	}
}

func TestRegistryFieldsForIsPerKind(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(Field{Kind: KindPost, Table: "posts", Column: "rating"}))
	require.NoError(t, reg.Register(Field{Kind: KindPost, Table: "memberships", Column: "overall_posts_rating"}))
	require.NoError(t, reg.Register(Field{Kind: KindKarma, Table: "profiles", Column: "karma"}))

	assert.Len(t, reg.FieldsFor(KindPost), 2)
	assert.Len(t, reg.FieldsFor(KindKarma), 1)
	assert.Empty(t, reg.FieldsFor(KindComment))
}
