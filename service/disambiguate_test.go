package service

import (
	"testing"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeTokenRoundTrip(t *testing.T) {
	rerank := false
	token := ResumeToken{
		Corpus:     CorpusCode,
		CodeFileID: uuid.New(),
		Query:      "what happens on purchase",
		Rerank:     &rerank,
	}

	encoded, err := encodeResumeToken(token)
	require.NoError(t, err)

	decoded, err := decodeResumeToken(encoded)
	require.NoError(t, err)
	assert.Equal(t, token.CodeFileID, decoded.CodeFileID)
	assert.Equal(t, token.Query, decoded.Query)
	require.NotNil(t, decoded.Rerank)
	assert.False(t, *decoded.Rerank)
}

func TestDecodeResumeTokenRejectsGarbage(t *testing.T) {
	cases := []string{
		"not base64 at all!!!",
		"aGVsbG8=", // valid base64, not JSON
		"",
	}
	for _, tc := range cases {
		_, err := decodeResumeToken(tc)
		assert.ErrorIs(t, err, ErrInvalidResumeToken, "input %q", tc)
	}
}

func TestDecodeResumeTokenRequiresFileAndQuery(t *testing.T) {
	missingQuery, err := encodeResumeToken(ResumeToken{Corpus: CorpusCode, CodeFileID: uuid.New()})
	require.NoError(t, err)
	_, err = decodeResumeToken(missingQuery)
	assert.ErrorIs(t, err, ErrInvalidResumeToken)

	missingFile, err := encodeResumeToken(ResumeToken{Corpus: CorpusCode, Query: "q"})
	require.NoError(t, err)
	_, err = decodeResumeToken(missingFile)
	assert.ErrorIs(t, err, ErrInvalidResumeToken)
}

func TestQueryMentionsMember(t *testing.T) {
	members := []models.Member{
		{Name: "BuyTank", Kind: models.ChunkTypeMethod, ClassName: "HangarController"},
		{Name: "RefreshList", Kind: models.ChunkTypeMethod, ClassName: "HangarController"},
		{Name: globalsMemberName, Kind: models.ChunkTypeGlobals, ClassName: "HangarController"},
	}

	assert.True(t, queryMentionsMember("what does BuyTank do with credits", members))
	assert.False(t, queryMentionsMember("how is the list sorted", members))
	// The globals pseudo-member never counts as a mention
	assert.False(t, queryMentionsMember("are global variables used here", members))
}

func TestQueryMentionsMemberSeparatorInsensitive(t *testing.T) {
	members := []models.Member{
		{Name: "BuyTank", Kind: models.ChunkTypeMethod, ClassName: "HangarController"},
		{Name: "RefreshList", Kind: models.ChunkTypeMethod, ClassName: "HangarController"},
	}

	// Camel-cased member names match snake/kebab/space-separated mentions
	assert.True(t, queryMentionsMember("explain buy_tank", members))
	assert.True(t, queryMentionsMember("explain buy-tank", members))
	assert.True(t, queryMentionsMember("explain buy tank", members))
	assert.True(t, queryMentionsMember("does refresh_list hit the server", members))

	// Joining never crosses a word boundary mid-token
	assert.False(t, queryMentionsMember("can I rebuy tanks later", members))
	assert.False(t, queryMentionsMember("buy more tank shells", members))
}

func TestMemberSelectionScope(t *testing.T) {
	fileID := uuid.New()

	scope := memberSelectionScope(fileID, []string{"BuyTank", "RefreshList"})

	assert.Equal(t, []uuid.UUID{fileID}, scope.CodeFileIDs)
	assert.Equal(t, []string{"BuyTank", "RefreshList"}, scope.MemberNames)
	assert.False(t, scope.IncludeGlobals)
}

func TestMemberSelectionScopeGlobals(t *testing.T) {
	fileID := uuid.New()

	scope := memberSelectionScope(fileID, []string{"global variables", "BuyTank"})

	assert.True(t, scope.IncludeGlobals)
	assert.Equal(t, []string{"BuyTank"}, scope.MemberNames)
}
