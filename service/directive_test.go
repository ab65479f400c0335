package service

import (
	"testing"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Tank_Garage_(UI)", "tank garage ui"},
		{"tank garage ui", "tank garage ui"},
		{"HangarController.cs", "hangarcontroller cs"},
		{"Scripts/UI/HangarController.cs", "scripts ui hangarcontroller cs"},
		{"  Weapon--Balance  ", "weapon balance"},
		{"", ""},
		{"___", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeName(tc.in), "input %q", tc.in)
	}
}

func testIndex() (*SourceIndex, uuid.UUID, uuid.UUID, uuid.UUID) {
	gddID := uuid.New()
	econID := uuid.New()
	fileID := uuid.New()

	docs := []*models.Document{
		{ID: gddID, DisplayName: "Tank_Garage_(UI)"},
		{ID: econID, DisplayName: "Economy Balance"},
	}
	files := []*models.CodeFile{
		{ID: fileID, DisplayName: "HangarController.cs", FilePath: "Scripts/UI/HangarController.cs"},
	}
	return NewSourceIndex(docs, files), gddID, econID, fileID
}

func TestParseResolvesDocumentDirective(t *testing.T) {
	idx, gddID, _, _ := testIndex()

	parsed := idx.Parse("@tank-garage-ui how does repair pricing work", CorpusGDD)

	require.Len(t, parsed.Scope.DocumentIDs, 1)
	assert.Equal(t, gddID, parsed.Scope.DocumentIDs[0])
	assert.Equal(t, "how does repair pricing work", parsed.Semantic)
	assert.Equal(t, []string{"Tank_Garage_(UI)"}, parsed.Matched)
}

func TestParseUnmatchedDirectiveStaysLiteral(t *testing.T) {
	idx, _, _, _ := testIndex()

	parsed := idx.Parse("@nonexistent_doc what is the daily bonus", CorpusGDD)

	assert.True(t, parsed.Scope.IsEmpty())
	assert.Equal(t, "@nonexistent_doc what is the daily bonus", parsed.Semantic)
	assert.Empty(t, parsed.Matched)
}

func TestParseBareAtSignIsLiteral(t *testing.T) {
	idx, _, _, _ := testIndex()

	parsed := idx.Parse("email me @ noon", CorpusGDD)

	assert.True(t, parsed.Scope.IsEmpty())
	assert.Equal(t, "email me @ noon", parsed.Semantic)
}

func TestParseCodeFileByNameAndPath(t *testing.T) {
	idx, _, _, fileID := testIndex()

	byName := idx.Parse("@HangarController.cs what does Refresh do", CorpusCode)
	require.Len(t, byName.Scope.CodeFileIDs, 1)
	assert.Equal(t, fileID, byName.Scope.CodeFileIDs[0])

	byPath := idx.Parse("@Scripts/UI/HangarController.cs what does Refresh do", CorpusCode)
	require.Len(t, byPath.Scope.CodeFileIDs, 1)
	assert.Equal(t, fileID, byPath.Scope.CodeFileIDs[0])
}

func TestParseMultipleDirectivesAccumulate(t *testing.T) {
	otherID := uuid.New()
	files := []*models.CodeFile{
		{ID: uuid.New(), DisplayName: "HangarController.cs"},
		{ID: otherID, DisplayName: "GarageService.cs"},
	}
	idx := NewSourceIndex(nil, files)

	parsed := idx.Parse("@HangarController @GarageService how do they interact", CorpusCode)

	assert.Len(t, parsed.Scope.CodeFileIDs, 2)
	assert.Equal(t, "how do they interact", parsed.Semantic)
}

func TestParseDuplicateDirectiveNotDoubled(t *testing.T) {
	idx, _, _, _ := testIndex()

	parsed := idx.Parse("@HangarController @hangarcontroller.cs refresh logic", CorpusCode)

	assert.Len(t, parsed.Scope.CodeFileIDs, 1)
}

func TestParseSecondTokenResolvesSection(t *testing.T) {
	idx, gddID, _, _ := testIndex()
	idx.SetSectionLookup(func(id uuid.UUID) []string {
		if id == gddID {
			return []string{"4. Interface / 4.1 Vehicle List", "5. Economy / 5.2 Repair"}
		}
		return nil
	})

	parsed := idx.Parse("@tank_garage_ui @vehicle-list what columns are shown", CorpusGDD)

	require.Len(t, parsed.Scope.DocumentIDs, 1)
	assert.Equal(t, "4. Interface / 4.1 Vehicle List", parsed.Scope.SectionFilter)
	assert.Equal(t, "what columns are shown", parsed.Semantic)
}

func TestParseSectionTokenFallsBackToDocuments(t *testing.T) {
	idx, _, econID, _ := testIndex()
	idx.SetSectionLookup(func(uuid.UUID) []string { return nil })

	// The second @token matches no section of the scoped document but
	// does match another document, so both documents end up in scope
	parsed := idx.Parse("@tank_garage_ui @economy_balance repair costs", CorpusGDD)

	require.Len(t, parsed.Scope.DocumentIDs, 2)
	assert.Equal(t, econID, parsed.Scope.DocumentIDs[1])
	assert.Empty(t, parsed.Scope.SectionFilter)
}

func TestParseDirectivesIgnoredForWrongCorpus(t *testing.T) {
	idx, _, _, _ := testIndex()

	// A doc name queried against the code corpus resolves to nothing and
	// stays literal
	parsed := idx.Parse("@tank_garage_ui repair flow", CorpusCode)

	assert.True(t, parsed.Scope.IsEmpty())
	assert.Equal(t, "@tank_garage_ui repair flow", parsed.Semantic)
}
