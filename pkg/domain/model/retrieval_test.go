package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

func TestRetrievalParams_Normalize(t *testing.T) {
	params := model.RetrievalParams{}.Normalize()
	gt.V(t, params).Equal(model.DefaultRetrievalParams())

	custom := model.RetrievalParams{Candidates: 20, Threshold: 0.8, MaxPerSource: 3, MaxResults: 7}
	gt.V(t, custom.Normalize()).Equal(custom)

	// candidates never below the final result count
	squeezed := model.RetrievalParams{Candidates: 3, MaxResults: 8}.Normalize()
	gt.N(t, squeezed.Candidates).GreaterOrEqual(8)
}
