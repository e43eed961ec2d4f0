package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/domain/types"
)

func TestParseRole(t *testing.T) {
	got, err := types.ParseRole("user")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.RoleUser)

	got, err = types.ParseRole("assistant")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.RoleAssistant)

	_, err = types.ParseRole("system")
	gt.Error(t, err)
}
