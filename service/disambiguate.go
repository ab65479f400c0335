package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"lorebase-backend/models"

	"github.com/google/uuid"
)

// globalsMemberName is the synthetic member presented for file-level
// fields/properties that don't belong to a method
const globalsMemberName = "global variables"

// ResumeToken carries the paused query across the disambiguation
// round-trip. It is an opaque value the caller hands back with its member
// selection; nothing about the exchange is stored server-side.
type ResumeToken struct {
	Corpus     Corpus    `json:"corpus"`
	CodeFileID uuid.UUID `json:"code_file_id"`
	Query      string    `json:"query"`
	Rerank     *bool     `json:"rerank,omitempty"`
}

func encodeResumeToken(t ResumeToken) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode resume token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func decodeResumeToken(s string) (ResumeToken, error) {
	var t ResumeToken
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalidResumeToken, err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalidResumeToken, err)
	}
	if t.CodeFileID == uuid.Nil || t.Query == "" {
		return t, ErrInvalidResumeToken
	}
	return t, nil
}

// queryMentionsMember reports whether the query already names one of the
// file's members, in which case no disambiguation round-trip is needed
func queryMentionsMember(query string, members []models.Member) bool {
	for _, m := range members {
		if m.Name == "" || m.Name == globalsMemberName {
			continue
		}
		if mentionsName(query, m.Name) {
			return true
		}
	}
	return false
}

// mentionsName reports whether the query contains the name, tolerating
// separator differences in either direction: "BuyTank" normalizes with
// no word break while "buy_tank" normalizes to two words, so containment
// is checked on token windows joined without spaces. Windows stop at
// word boundaries, keeping "rebuy tanks" from matching "BuyTank".
func mentionsName(query, name string) bool {
	target := strings.ReplaceAll(normalizeName(name), " ", "")
	if target == "" {
		return false
	}

	tokens := strings.Fields(normalizeName(query))
	for i := range tokens {
		var joined strings.Builder
		for j := i; j < len(tokens); j++ {
			joined.WriteString(tokens[j])
			if joined.String() == target {
				return true
			}
			if joined.Len() >= len(target) {
				break
			}
		}
	}
	return false
}

// memberSelectionScope narrows a scope to exactly the selected members.
// Selecting the "global variables" pseudo-member targets file-level
// field/property chunks instead of method chunks.
func memberSelectionScope(codeFileID uuid.UUID, selected []string) models.RetrievalScope {
	scope := models.RetrievalScope{CodeFileIDs: []uuid.UUID{codeFileID}}
	for _, name := range selected {
		if strings.EqualFold(strings.TrimSpace(name), globalsMemberName) {
			scope.IncludeGlobals = true
			continue
		}
		scope.MemberNames = append(scope.MemberNames, name)
	}
	return scope
}
