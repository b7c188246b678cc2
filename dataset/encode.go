package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateToken = errors.New("duplicate vocabulary token")
)

// Record is a raw observation: numeric fields plus a bag of categorical tokens.
type Record struct {
	Numeric []float64
	Tokens  []string
}

// VocabularyEncoder turns records into samples by appending one presence
// indicator per vocabulary token to the numeric fields. Tokens outside the
// vocabulary are ignored, so every sample has len(Numeric)+len(vocabulary)
// features.
type VocabularyEncoder struct {
	vocabulary []string
	index      map[string]int
}

func NewVocabularyEncoder(vocabulary []string) (*VocabularyEncoder, error) {
	e := &VocabularyEncoder{
		vocabulary: append([]string(nil), vocabulary...),
		index:      make(map[string]int, len(vocabulary)),
	}
	for i, tok := range vocabulary {
		if _, ok := e.index[tok]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateToken, tok)
		}
		e.index[tok] = i
	}
	return e, nil
}

// Vocabulary returns the tokens in indicator order.
func (e *VocabularyEncoder) Vocabulary() []string { return append([]string(nil), e.vocabulary...) }

// EncodeRecord builds one feature vector.
func (e *VocabularyEncoder) EncodeRecord(r Record) []float64 {
	s := make([]float64, len(r.Numeric)+len(e.vocabulary))
	copy(s, r.Numeric)
	for _, tok := range r.Tokens {
		if at, ok := e.index[tok]; ok {
			s[len(r.Numeric)+at] = 1
		}
	}
	return s
}

// Encode builds an unlabeled dataset from records. All records must carry the
// same number of numeric fields.
func (e *VocabularyEncoder) Encode(records []Record) (*Dataset, error) {
	samples := make([][]float64, len(records))
	for i, r := range records {
		samples[i] = e.EncodeRecord(r)
	}
	return New(samples)
}
