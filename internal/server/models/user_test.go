package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGender_Valid(t *testing.T) {
	for _, g := range []Gender{"", GenderMan, GenderWoman, GenderOthers} {
		assert.True(t, g.Valid(), g)
	}
	assert.False(t, Gender("robot").Valid())
}

func TestMaritalStatus_Valid(t *testing.T) {
	for _, m := range []MaritalStatus{"", MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidow, MaritalWidower} {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, MaritalStatus("complicated").Valid())
}
