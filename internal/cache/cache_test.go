package cache

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_NormalizesCaseAndWhitespace(t *testing.T) {
	a := Key("SHK", " Arnsberg ")
	b := Key("shk", "arnsberg")
	assert.Equal(t, a, b)
}

func TestKey_DistinguishesPairs(t *testing.T) {
	assert.NotEqual(t, Key("shk", "Arnsberg"), Key("shk", "Soest"))
	assert.NotEqual(t, Key("shk", "Arnsberg"), Key("elektro", "Arnsberg"))
}

func TestKey_IsSHA256OfJoinedPair(t *testing.T) {
	want := fmt.Sprintf("%x", sha256.Sum256([]byte("shk|arnsberg")))
	assert.Equal(t, want, Key("shk", "Arnsberg"))
}
