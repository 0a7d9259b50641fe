package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  spaced@example.com \n", "spaced@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.in))
		})
	}
}

func TestAccount_Linking(t *testing.T) {
	acc := &Account{ID: "1", Email: "a@example.com"}
	assert.False(t, acc.IsLinked())
	assert.False(t, acc.LinkedTo(""))

	acc.ExternalID = "fb-1"
	assert.True(t, acc.IsLinked())
	assert.True(t, acc.LinkedTo("fb-1"))
	assert.False(t, acc.LinkedTo("fb-2"))
}

func TestAccount_Clone(t *testing.T) {
	acc := &Account{ID: "1", Email: "a@example.com"}
	c := acc.Clone()
	c.ExternalID = "fb-1"

	assert.Empty(t, acc.ExternalID)
}
