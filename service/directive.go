package service

import (
	"strings"
	"unicode"

	"lorebase-backend/models"

	"github.com/google/uuid"
)

// Corpus selects which chunk index a query runs against
type Corpus string

const (
	CorpusGDD  Corpus = "gdd"
	CorpusCode Corpus = "code"
)

// SourceIndex is the loaded set of known sources the directive parser
// resolves @tokens against. It is rebuilt per request from the source
// repositories; parsing itself does no I/O.
type SourceIndex struct {
	docs     []indexEntry
	files    []indexEntry
	sections func(uuid.UUID) []string
}

type indexEntry struct {
	id   uuid.UUID
	name string
	norm string
}

// NewSourceIndex builds an index over the known documents and code files
func NewSourceIndex(docs []*models.Document, files []*models.CodeFile) *SourceIndex {
	idx := &SourceIndex{}
	for _, d := range docs {
		idx.docs = append(idx.docs, indexEntry{id: d.ID, name: d.DisplayName, norm: normalizeName(d.DisplayName)})
	}
	for _, f := range files {
		// Index both the display name and the path so @Foo.cs and
		// @Scripts/Foo.cs resolve to the same file
		idx.files = append(idx.files, indexEntry{id: f.ID, name: f.DisplayName, norm: normalizeName(f.DisplayName)})
		if f.FilePath != "" && normalizeName(f.FilePath) != normalizeName(f.DisplayName) {
			idx.files = append(idx.files, indexEntry{id: f.ID, name: f.DisplayName, norm: normalizeName(f.FilePath)})
		}
	}
	return idx
}

// SetSectionLookup installs the section-path lookup used to resolve a
// second @token against an already-scoped document
func (idx *SourceIndex) SetSectionLookup(fn func(uuid.UUID) []string) {
	idx.sections = fn
}

// ParsedQuery is the directive parser output: the resolved scope and the
// semantic query with matched directive tokens removed
type ParsedQuery struct {
	Scope    models.RetrievalScope
	Semantic string
	// Matched lists the display names of resolved directives, in query order
	Matched []string
}

// Parse splits a raw query into scope directives and semantic text.
// Directives are @-prefixed tokens resolved left to right against the
// index. Matching is case-insensitive and tolerant of bracket, underscore,
// hyphen and separator differences. A token that resolves to nothing is
// kept as literal query text: scope must never silently drop user intent.
func (idx *SourceIndex) Parse(raw string, corpus Corpus) ParsedQuery {
	var parsed ParsedQuery
	var semantic []string

	for _, token := range strings.Fields(raw) {
		if !strings.HasPrefix(token, "@") || len(token) < 2 {
			semantic = append(semantic, token)
			continue
		}

		body := normalizeName(token[1:])
		if body == "" {
			semantic = append(semantic, token)
			continue
		}

		switch corpus {
		case CorpusCode:
			if entry, ok := matchEntry(body, idx.files); ok {
				// Multiple @file tokens accumulate: OR semantics
				parsed.Scope.CodeFileIDs = appendUnique(parsed.Scope.CodeFileIDs, entry.id)
				parsed.Matched = append(parsed.Matched, entry.name)
				continue
			}
		case CorpusGDD:
			// Once a document is scoped, later @tokens are tried against
			// its section paths before the document list
			if len(parsed.Scope.DocumentIDs) > 0 && idx.sections != nil {
				if section, ok := matchSection(body, idx.sections(parsed.Scope.DocumentIDs[0])); ok {
					parsed.Scope.SectionFilter = section
					parsed.Matched = append(parsed.Matched, section)
					continue
				}
			}
			if entry, ok := matchEntry(body, idx.docs); ok {
				parsed.Scope.DocumentIDs = appendUnique(parsed.Scope.DocumentIDs, entry.id)
				parsed.Matched = append(parsed.Matched, entry.name)
				continue
			}
		}

		// Unresolved directive: fail open toward recall
		semantic = append(semantic, token)
	}

	parsed.Semantic = strings.Join(semantic, " ")
	return parsed
}

// matchEntry resolves a normalized token against index entries: exact
// normalized match wins, then containment in either direction
func matchEntry(norm string, entries []indexEntry) (indexEntry, bool) {
	for _, e := range entries {
		if e.norm == norm {
			return e, true
		}
	}
	for _, e := range entries {
		if e.norm == "" {
			continue
		}
		if strings.Contains(e.norm, norm) || strings.Contains(norm, e.norm) {
			return e, true
		}
	}
	return indexEntry{}, false
}

func matchSection(norm string, sections []string) (string, bool) {
	for _, s := range sections {
		sn := normalizeName(s)
		if sn == norm {
			return s, true
		}
	}
	for _, s := range sections {
		sn := normalizeName(s)
		if sn == "" {
			continue
		}
		if strings.Contains(sn, norm) || strings.Contains(norm, sn) {
			return s, true
		}
	}
	return "", false
}

// normalizeName lowercases and strips brackets, underscores, hyphens and
// other punctuation, collapsing runs of separators into single spaces.
// "Tank_Garage_(UI)" and "tank garage ui" normalize identically.
func normalizeName(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
