package demand

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/gasdash/pkg/validation"
)

func TestModeTag(t *testing.T) {
	type input struct {
		Mode string `json:"mode" validate:"omitempty,mode"`
	}
	for _, m := range []string{"", "distributor", "Distribuidora", "regiao", "região", " REGION "} {
		require.Empty(t, validation.ValidateStruct(input{Mode: m}), m)
	}
	require.Equal(t, "VALIDATION: mode must be distributor or region", validation.ValidateStruct(input{Mode: "country"}))
}
