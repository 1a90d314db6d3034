package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostHashRoundTrip(t *testing.T) {
	post := Post{
		AuthorID:    "7",
		Content:     "hello @bob",
		ReplyPostID: "3",
		ReplyUserID: "2",
		Timestamp:   1700000000,
	}

	hash := make(map[string]string, len(PostFields))
	for field, value := range post.ToHash() {
		hash[field] = value.(string)
	}

	assert.Equal(t, post, PostFromHash(hash))
}

func TestPostHashCoversAllFields(t *testing.T) {
	// Сериализатор и список полей джойна обязаны совпадать
	hash := (&Post{}).ToHash()
	assert.Len(t, hash, len(PostFields))
	for _, field := range PostFields {
		_, ok := hash[field]
		assert.True(t, ok, "field %s missing from serializer", field)
	}
}

func TestPostFromTupleFollowsFieldOrder(t *testing.T) {
	post := PostFromTuple([]string{"7", "hello", "3", "2", "1700000000"})

	assert.Equal(t, "7", post.AuthorID)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "3", post.ReplyPostID)
	assert.Equal(t, "2", post.ReplyUserID)
	assert.Equal(t, int64(1700000000), post.Timestamp)
}

func TestPostFromTupleEmptyOptionalFields(t *testing.T) {
	post := PostFromTuple([]string{"7", "hello", "", "", ""})

	assert.Empty(t, post.ReplyPostID)
	assert.Empty(t, post.ReplyUserID)
	assert.Zero(t, post.Timestamp)
}

func TestRangeForPage(t *testing.T) {
	assert.Equal(t, Range{Begin: 0, End: 9}, RangeForPage(1, 0))
	assert.Equal(t, Range{Begin: 10, End: 19}, RangeForPage(2, 10))
	assert.Equal(t, Range{Begin: 0, End: 4}, RangeForPage(0, 5))
	assert.Equal(t, int64(5), RangeForPage(1, 5).Count())
}
