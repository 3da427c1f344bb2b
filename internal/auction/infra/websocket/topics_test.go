package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidTopic(t *testing.T) {
	id := uuid.NewString()

	assert.True(t, validTopic("lot-"+id))
	assert.True(t, validTopic("auction-"+id))

	assert.False(t, validTopic("lot-not-a-uuid"))
	assert.False(t, validTopic("auction-"))
	assert.False(t, validTopic("bids-"+id))
	assert.False(t, validTopic(""))
}

func TestLotIDFromTopic(t *testing.T) {
	id := uuid.New()

	parsed, ok := lotIDFromTopic("lot-" + id.String())
	assert.True(t, ok)
	assert.Equal(t, id, parsed)

	_, ok = lotIDFromTopic("auction-" + id.String())
	assert.False(t, ok)
}
