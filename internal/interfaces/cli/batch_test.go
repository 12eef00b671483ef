package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const batchFile = "# torsion set\n" +
	anglePattern + "\n" +
	"\n" +
	"[#6X4:1]-[\n" +
	bondPattern + "\n"

func TestBatch_JSON(t *testing.T) {
	path := writePatternFile(t, batchFile)
	out, err := executeCommand(t, "", "-o", "json", "batch", "--file", path, "--chunk-size", "2", "--workers", "2")
	require.NoError(t, err)

	var res envtypes.BatchAnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Items, 3)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	for i, item := range res.Items {
		assert.Equal(t, i, item.Index)
	}
	assert.Equal(t, bondPattern, res.Items[2].Pattern)
	require.NotNil(t, res.Items[1].Error)
	assert.Equal(t, "PAT_001", res.Items[1].Error.Code)
}

func TestBatch_TextAndFailOnError(t *testing.T) {
	path := writePatternFile(t, batchFile)
	out, err := executeCommand(t, "", "batch", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 succeeded, 1 failed")
	assert.Contains(t, out, "PAT_001")

	_, err = executeCommand(t, "", "batch", "-f", path, "--fail-on-error")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestBatch_Stdin(t *testing.T) {
	out, err := executeCommand(t, bondPattern+"\n", "-o", "json", "batch", "-f", "-")
	require.NoError(t, err)
	var res envtypes.BatchAnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Succeeded)
}

func TestBatch_InvalidInput(t *testing.T) {
	_, err := executeCommand(t, "", "batch")
	assert.Error(t, err, "--file is required")

	_, err = executeCommand(t, "", "batch", "-f", filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = executeCommand(t, "", "batch", "-f", writePatternFile(t, "# only comments\n\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = executeCommand(t, "", "batch", "-f", writePatternFile(t, bondPattern), "--workers", "0")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = executeCommand(t, "", "batch", "-f", writePatternFile(t, bondPattern), "--chunk-size", "0")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestMergeBatches(t *testing.T) {
	parts := []*envtypes.BatchAnalyzeResponse{
		{Items: []envtypes.BatchItem{{Index: 0}, {Index: 1}}, Succeeded: 2},
		{Items: []envtypes.BatchItem{{Index: 0, Error: &common.ErrorDetail{Code: "PAT_001"}}}, Failed: 1},
	}
	got := mergeBatches(parts, 2)
	require.Len(t, got.Items, 3)
	assert.Equal(t, 2, got.Items[2].Index)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
}

//Personal.AI order the ending
