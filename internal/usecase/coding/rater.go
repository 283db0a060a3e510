package coding

import (
	"context"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// CodeRequest is one coding pass over a set of utterances. A nil Codebook
// requests inductive (emergent) coding; SeedCodes hint the rater toward
// labels already found in an earlier pass.
type CodeRequest struct {
	Utterances  []entities.Utterance
	Codebook    *entities.Codebook
	SeedCodes   []string
	Temperature float64
}

// Rater is an independent coding collaborator, typically backed by an LLM.
// Code returns raw label proposals; they are screened before use.
type Rater interface {
	Name() string
	Code(ctx context.Context, req CodeRequest) ([]entities.LabelProposal, error)
}

// CodeMapper maps emergent theme names onto codebook labels. Themes that
// have no reasonable match map to NoMatch and stay unmapped.
type CodeMapper interface {
	MapCodes(ctx context.Context, themes []string, codebook *entities.Codebook) (map[string]string, error)
}

// NoMatch is the mapping value for themes with no codebook equivalent.
const NoMatch = "NO_MATCH"
