package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIdentifier(t *testing.T) {
	testData := []struct {
		s  string
		ok bool
	}{
		{"a", true},
		{"_a1", true},
		{"bar_1_L12", true},
		{"1a", false},
		{"", false},
		{"a-b", false},
		{"a.b", false},
	}
	for _, data := range testData {
		assert.Equal(t, data.ok, IsIdentifier(data.s), data.s)
	}
}

func TestIsInteger(t *testing.T) {
	testData := []struct {
		s  string
		ok bool
	}{
		{"0", true},
		{"-1", true},
		{"32767", true},
		{"007", false},
		{"-", false},
		{"", false},
		{"1a", false},
	}
	for _, data := range testData {
		assert.Equal(t, data.ok, IsInteger(data.s), data.s)
	}
}

func TestIsClassName(t *testing.T) {
	assert.True(t, IsClassName("Foo"))
	assert.True(t, IsClassName("java/lang/Object"))
	assert.False(t, IsClassName("java//Object"))
	assert.False(t, IsClassName("/Foo"))
	assert.False(t, IsClassName(""))
}
