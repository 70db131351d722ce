package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6f1c2a44-8d0e-4b7b-9d55-0f1d2b9b1a10")

	assert.Equal(t, "buildings:all", BuildingsKey())
	assert.Equal(t, "shortlist:user:6f1c2a44-8d0e-4b7b-9d55-0f1d2b9b1a10", ShortlistKey(id))
	assert.Equal(t, "ratelimit:maps-key:ip:10.0.0.1", RateLimitKey("maps-key", "10.0.0.1"))
}
