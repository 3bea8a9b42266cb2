package profile

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestProfile_HasUsername(t *testing.T) {
	alice := "alice"
	empty := ""

	assert.False(t, (*Profile)(nil).HasUsername())
	assert.False(t, (&Profile{}).HasUsername())
	assert.False(t, (&Profile{Username: &empty}).HasUsername())
	assert.True(t, (&Profile{Username: &alice}).HasUsername())
}

func TestUpdate_Apply(t *testing.T) {
	bio := "Go developer"
	oldTitle := "Designer"

	p := &Profile{
		Title:  &oldTitle,
		Skills: pq.StringArray{"figma"},
	}

	Update{Bio: &bio}.Apply(p)

	assert.Equal(t, "Go developer", *p.Bio)
	assert.Equal(t, "Designer", *p.Title)
	assert.Equal(t, pq.StringArray{"figma"}, p.Skills)

	Update{Skills: []string{}}.Apply(p)
	assert.Empty(t, p.Skills)
	assert.NotNil(t, p.Skills)
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", *StringPtr("x"))
}
