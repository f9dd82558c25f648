package changerequest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
)

func TestTag(t *testing.T) {
	cases := []struct {
		kind       record.Kind
		changeType changerequest.ChangeType
		expected   string
	}{
		{record.KindTeacher, changerequest.TypeUpdate, "TEACHER_UPDATE"},
		{record.KindTeacher, changerequest.TypeCreate, "TEACHER_CREATE"},
		{record.KindBranchProfile, changerequest.TypeUpdate, "BRANCH_PROFILE_UPDATE"},
		{record.KindPackage, changerequest.TypeDelete, "PACKAGE_DELETE"},
		{record.KindNews, changerequest.TypeCreate, "NEWS_CREATE"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, changerequest.Tag(tc.kind, tc.changeType))
	}
}

func TestParseChangeType(t *testing.T) {
	ct, ok := changerequest.ParseChangeType("ENTITY_UPDATE")
	require.True(t, ok)
	assert.Equal(t, changerequest.TypeUpdate, ct)

	_, ok = changerequest.ParseChangeType("ENTITY_RENAME")
	assert.False(t, ok)

	_, ok = changerequest.ParseChangeType("")
	assert.False(t, ok)
}

func TestIsPending(t *testing.T) {
	cr := &changerequest.ChangeRequest{Status: changerequest.StatusPending}
	assert.True(t, cr.IsPending())

	cr.Status = changerequest.StatusApproved
	assert.False(t, cr.IsPending())
}
