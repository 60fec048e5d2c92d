package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ema_pricer/pkg/ema"
)

func runWith(t *testing.T, args []string, input string) (string, string, error) {
	t.Helper()
	v, err := loadConfig(args)
	require.NoError(t, err)

	var out, warn bytes.Buffer
	err = run(v, strings.NewReader(input), &out, &warn)
	return out.String(), warn.String(), err
}

func TestRunSeededScenario(t *testing.T) {
	out, warn, err := runWith(t, []string{"--alpha", "0.3", "--seed", "100", "--precision", "1"}, "110\n90\n")
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.Equal(t, "1\t110.0\t103.0\n2\t90.0\t98.1\n", out)
}

func TestRunCSVColumnSkipsHeaderAndNaN(t *testing.T) {
	input := "ts,product,mid\n1,KELP,100\n2,KELP,NaN\n3,KELP,110\n"
	out, warn, err := runWith(t, []string{"--column", "2", "--precision", "2"}, input)
	require.NoError(t, err)

	assert.Equal(t, "1\t100.00\t100.00\n2\t110.00\t103.00\n", out)
	assert.Contains(t, warn, `line 1: skip "mid"`)
	assert.Contains(t, warn, "line 3:")
}

func TestRunPeriod(t *testing.T) {
	out, _, err := runWith(t, []string{"--period", "1"}, "5\n7\n")
	require.NoError(t, err)
	assert.Equal(t, "1\t5.0000\t5.0000\n2\t7.0000\t7.0000\n", out)
}

func TestRunErrors(t *testing.T) {
	_, _, err := runWith(t, []string{"--alpha", "0"}, "1\n")
	assert.True(t, errors.Is(err, ema.ErrInvalidParameter))

	_, _, err = runWith(t, []string{"--seed", "abc"}, "1\n")
	assert.True(t, errors.Is(err, ema.ErrInvalidParameter))

	_, _, err = runWith(t, nil, "# nothing\n\n")
	assert.True(t, errors.Is(err, ema.ErrNotInitialized))
}
