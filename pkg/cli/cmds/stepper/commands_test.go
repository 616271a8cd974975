package stepper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckArg(t *testing.T) {
	require.NoError(t, checkArg(longArg, "-42"))
	require.Error(t, checkArg(longArg, "4.2"))
	require.NoError(t, checkArg(floatArg, "4.2"))
	require.Error(t, checkArg(floatArg, "fast"))
	require.NoError(t, checkArg(noArg, "anything"))
}
