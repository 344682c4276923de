package seed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/cultural-index/pkg/culturalindex"
	"github.com/tendant/cultural-index/pkg/culturalindex/seed"
)

const sampleSeed = `
pieces:
  - name: Sunrise
    description: a painting
    image: ipfs://sunrise
    animation_url: ipfs://sunrise.mp4
    uploader: "0xAlice"
    votes:
      - address: "0xVoter1"
        weight: 10
      - address: "0xVoter1"
        weight: 5
  - name: Sunset
    uploader: "0xBob"
    votes:
      - address: "0xVoter2"
        weight: 2.5
`

func TestDefault_MatchesSampleScenario(t *testing.T) {
	idx := culturalindex.New()
	res := seed.Default().Apply(context.Background(), idx)

	assert.Equal(t, []int{0, 1}, res.PieceIDs)
	assert.Equal(t, 3, res.VotesAccepted)
	assert.Equal(t, 0, res.VotesRejected)

	list := idx.ListPieces()
	require.Len(t, list, 2)
	assert.Equal(t, 30.0, list[0].Weight)
	assert.Equal(t, 10.0, list[1].Weight)
}

func TestParse_AndApply(t *testing.T) {
	s, err := seed.Parse([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, s.Pieces, 2)
	assert.Equal(t, "Sunrise", s.Pieces[0].Name)
	assert.Equal(t, "ipfs://sunrise.mp4", s.Pieces[0].AnimationURL)
	assert.Equal(t, 2.5, s.Pieces[1].Votes[0].Weight)

	idx := culturalindex.New()
	res := s.Apply(context.Background(), idx)
	assert.Equal(t, 2, res.VotesAccepted)
	assert.Equal(t, 1, res.VotesRejected)
	require.Len(t, res.Rejections, 1)
	assert.True(t, errors.Is(res.Rejections[0], culturalindex.ErrAlreadyVoted))

	assert.Equal(t, 10.0, idx.GetVotingWeight(0))
	assert.Equal(t, 2.5, idx.GetVotingWeight(1))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing uploader", "pieces:\n  - name: x\n"},
		{"unknown field", "pieces:\n  - name: x\n    uploader: y\n    colour: red\n"},
		{"not yaml", "pieces: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	s, err := seed.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Pieces)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o600))

	s, err := seed.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Pieces, 2)

	_, err = seed.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
