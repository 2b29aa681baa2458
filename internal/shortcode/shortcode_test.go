package shortcode_test

import (
	"strings"
	"testing"

	"github.com/SergeiKhy/sus/internal/shortcode"
	"github.com/stretchr/testify/assert"
)

func TestRandom_NewCode_Format(t *testing.T) {
	gen := shortcode.NewRandom(shortcode.Length)

	for i := 0; i < 1000; i++ {
		code := gen.NewCode()
		assert.Len(t, code, shortcode.Length)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, code)
	}
}

func TestRandom_NewCode_UsesWholeAlphabet(t *testing.T) {
	gen := shortcode.NewRandom(64)

	seen := make(map[rune]bool)
	for i := 0; i < 200; i++ {
		for _, r := range gen.NewCode() {
			assert.True(t, strings.ContainsRune(shortcode.Alphabet, r))
			seen[r] = true
		}
	}

	// 12800 uniform draws over 62 symbols miss one with negligible probability
	assert.Len(t, seen, len(shortcode.Alphabet))
}

func TestRandom_DefaultLength(t *testing.T) {
	assert.Len(t, shortcode.NewRandom(0).NewCode(), shortcode.Length)
}

func TestGeneratorFunc(t *testing.T) {
	gen := shortcode.GeneratorFunc(func() string { return "fixed1" })
	assert.Equal(t, "fixed1", gen.NewCode())
}
