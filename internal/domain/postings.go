package domain

import (
	"fmt"
	"sort"
)

// Postings is a sparse document/term matrix kept in two aligned views:
// document -> term -> count and term -> document -> count. For every pair
// (d, t) both views hold the same count, and zero counts are never stored.
//
// Postings is not safe for concurrent mutation. Scorers treat it as a
// read-only snapshot; maps returned by the accessors must not be modified.
type Postings struct {
	docToTermCounts map[string]TermCounts
	termToDocCounts map[string]map[string]int
}

func NewPostings() *Postings {
	return &Postings{
		docToTermCounts: make(map[string]TermCounts),
		termToDocCounts: make(map[string]map[string]int),
	}
}

// AddDocument records the term counts of a document in both views. An
// existing document with the same ID is replaced.
func (p *Postings) AddDocument(docID string, counts TermCounts) {
	if _, exists := p.docToTermCounts[docID]; exists {
		p.RemoveDocument(docID)
	}

	stored := make(TermCounts, len(counts))
	for term, count := range counts {
		if count <= 0 {
			continue
		}
		stored[term] = count
		docs, ok := p.termToDocCounts[term]
		if !ok {
			docs = make(map[string]int)
			p.termToDocCounts[term] = docs
		}
		docs[docID] = count
	}
	p.docToTermCounts[docID] = stored
}

// RemoveDocument drops a document from both views.
func (p *Postings) RemoveDocument(docID string) {
	counts, ok := p.docToTermCounts[docID]
	if !ok {
		return
	}
	for term := range counts {
		docs := p.termToDocCounts[term]
		delete(docs, docID)
		if len(docs) == 0 {
			delete(p.termToDocCounts, term)
		}
	}
	delete(p.docToTermCounts, docID)
}

// DocCount returns N, the number of documents in the document view.
func (p *Postings) DocCount() int {
	return len(p.docToTermCounts)
}

// DocumentFrequency returns the number of documents containing term.
func (p *Postings) DocumentFrequency(term string) int {
	return len(p.termToDocCounts[term])
}

// DocTerms returns the term counts of a document, or nil.
func (p *Postings) DocTerms(docID string) TermCounts {
	return p.docToTermCounts[docID]
}

// TermDocs returns the documents containing term with their counts, or nil.
func (p *Postings) TermDocs(term string) map[string]int {
	return p.termToDocCounts[term]
}

// EachDocument calls fn for every document in the document view.
func (p *Postings) EachDocument(fn func(docID string, counts TermCounts)) {
	for docID, counts := range p.docToTermCounts {
		fn(docID, counts)
	}
}

// EachTerm calls fn for every term in the term view.
func (p *Postings) EachTerm(fn func(term string, docs map[string]int)) {
	for term, docs := range p.termToDocCounts {
		fn(term, docs)
	}
}

// Documents returns the sorted document IDs.
func (p *Postings) Documents() []string {
	ids := make([]string, 0, len(p.docToTermCounts))
	for id := range p.docToTermCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Terms returns the sorted vocabulary.
func (p *Postings) Terms() []string {
	terms := make([]string, 0, len(p.termToDocCounts))
	for t := range p.termToDocCounts {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Validate checks that both views hold the same positive counts.
func (p *Postings) Validate() error {
	pairs := 0
	for docID, counts := range p.docToTermCounts {
		for term, count := range counts {
			if count <= 0 {
				return fmt.Errorf("%w: non-positive count %d for %q in %s", ErrInconsistentPostings, count, term, docID)
			}
			if other, ok := p.termToDocCounts[term][docID]; !ok || other != count {
				return fmt.Errorf("%w: %s/%q has %d in document view, %d in term view", ErrInconsistentPostings, docID, term, count, other)
			}
			pairs++
		}
	}
	for term, docs := range p.termToDocCounts {
		for docID := range docs {
			if _, ok := p.docToTermCounts[docID]; !ok {
				return fmt.Errorf("%w: term %q references unknown document %s", ErrInconsistentPostings, term, docID)
			}
			pairs--
		}
	}
	if pairs != 0 {
		return fmt.Errorf("%w: views disagree on %d entries", ErrInconsistentPostings, pairs)
	}
	return nil
}

// PostingsFromViews builds Postings from two externally supplied views
// without repairing them. Call Validate before scoring.
func PostingsFromViews(docToTermCounts map[string]TermCounts, termToDocCounts map[string]map[string]int) *Postings {
	if docToTermCounts == nil {
		docToTermCounts = make(map[string]TermCounts)
	}
	if termToDocCounts == nil {
		termToDocCounts = make(map[string]map[string]int)
	}
	return &Postings{
		docToTermCounts: docToTermCounts,
		termToDocCounts: termToDocCounts,
	}
}
