// Package seed loads pieces and votes from YAML and applies them to an index.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tendant/cultural-index/pkg/culturalindex"
	"gopkg.in/yaml.v3"
)

// Seed is the document format of a seed file.
//
//	pieces:
//	  - name: Content1
//	    uploader: "0xAddress1"
//	    votes:
//	      - address: "0xVoter1"
//	        weight: 10
type Seed struct {
	Pieces []PieceSeed `yaml:"pieces"`
}

// PieceSeed is one piece and the votes to cast on it.
type PieceSeed struct {
	culturalindex.PieceMetadata `yaml:",inline"`
	Uploader                    string                `yaml:"uploader"`
	Votes                       []culturalindex.Voter `yaml:"votes,omitempty"`
}

// Result reports what Apply did.
type Result struct {
	PieceIDs      []int
	VotesAccepted int
	VotesRejected int
	Rejections    []error
}

// Default returns the two-piece sample data set.
func Default() *Seed {
	return &Seed{
		Pieces: []PieceSeed{
			{
				PieceMetadata: culturalindex.PieceMetadata{Name: "Content1"},
				Uploader:      "0xAddress1",
				Votes: []culturalindex.Voter{
					{Address: "0xVoter1", Weight: 10},
					{Address: "0xVoter2", Weight: 20},
				},
			},
			{
				PieceMetadata: culturalindex.PieceMetadata{Name: "Content2"},
				Uploader:      "0xAddress2",
				Votes: []culturalindex.Voter{
					{Address: "0xVoter1", Weight: 10},
				},
			},
		},
	}
}

// Load reads and parses a seed file.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(data []byte) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	for i, p := range s.Pieces {
		if p.Uploader == "" {
			return nil, fmt.Errorf("piece %d (%q): uploader is required", i, p.Name)
		}
	}
	return &s, nil
}

// Apply uploads every piece in order and casts its votes. Rejected votes are
// counted, not treated as failures.
func (s *Seed) Apply(ctx context.Context, idx culturalindex.Index) Result {
	var res Result
	for _, p := range s.Pieces {
		id := idx.UploadPiece(ctx, p.PieceMetadata, p.Uploader)
		res.PieceIDs = append(res.PieceIDs, id)
		for _, v := range p.Votes {
			if err := idx.CastVote(ctx, id, v); err != nil {
				res.VotesRejected++
				res.Rejections = append(res.Rejections, err)
				continue
			}
			res.VotesAccepted++
		}
	}
	return res
}
