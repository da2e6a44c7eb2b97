package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePIN(t *testing.T) {
	assert.Equal(t, "1111", SanitizePIN("11a1b1"))
	assert.Equal(t, "123456", SanitizePIN("12 34 56 78"))
	assert.Equal(t, "", SanitizePIN("abc"))
	assert.Equal(t, "123", SanitizePIN("１２３123")) // full-width digits are not ASCII
}

func TestValidatePIN(t *testing.T) {
	assert.NoError(t, ValidatePIN("123456"))
	assert.NoError(t, ValidatePIN(" 123456 "))
	assert.ErrorIs(t, ValidatePIN("111"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidatePIN("1234567"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidatePIN("12a456"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidatePIN(SanitizePIN("11a1b1")), ErrInvalidPIN)
}

func TestNormalizeAndFormatPIN(t *testing.T) {
	pin, err := NormalizePIN("482 913")
	require.NoError(t, err)
	assert.Equal(t, "482913", pin)
	assert.Equal(t, "482 913", FormatPIN(pin))
	assert.Equal(t, "12", FormatPIN("12"))

	_, err = NormalizePIN("48")
	assert.ErrorIs(t, err, ErrInvalidPIN)
}

func TestGenerateStudentID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := GenerateStudentID()
		require.NoError(t, err)
		assert.Len(t, id, StudentIDLength)
		assert.Empty(t, strings.Trim(id, tokenAlphabet))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRandomIndex(t *testing.T) {
	_, err := RandomIndex(0)
	assert.Error(t, err)
	for i := 0; i < 20; i++ {
		idx, err := RandomIndex(3)
		require.NoError(t, err)
		assert.True(t, idx >= 0 && idx < 3)
	}
}

func TestPickAvatarColor(t *testing.T) {
	c, err := PickAvatarColor()
	require.NoError(t, err)
	assert.Contains(t, AvatarColors, c)
}

func TestResolveColor(t *testing.T) {
	c, err := ResolveColor("Purple")
	require.NoError(t, err)
	assert.Equal(t, "#8A55E7", c)

	c, err = ResolveColor("#ff7043")
	require.NoError(t, err)
	assert.Equal(t, "#FF7043", c)

	_, err = ResolveColor("chartreuse")
	assert.Error(t, err)
}
