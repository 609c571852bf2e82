package username_test

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orbitlabs/orbit-server/internal/utils/username"
)

func TestGenerate_Shape(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	pattern := regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+[0-9]{1,2}$`)

	for i := 0; i < 50; i++ {
		handle := username.Generate(r)
		assert.Regexp(t, pattern, handle)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := username.Generate(rand.New(rand.NewSource(7)))
	b := username.Generate(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}
