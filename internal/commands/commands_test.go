package commands

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespipe/salespipe/internal/config"
	"github.com/salespipe/salespipe/internal/exporter"
	"github.com/salespipe/salespipe/internal/reference"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// initProject scaffolds a project and drops the raw testdata into its inbox.
func initProject(t *testing.T) (dir, cfgPath, input string) {
	t.Helper()
	dir = t.TempDir()
	_, err := execute(t, "init", dir, "--name", "Test Store")
	require.NoError(t, err)

	raw, err := os.ReadFile("../../testdata/sales_raw.csv")
	require.NoError(t, err)
	input = filepath.Join(dir, "data", "sales_raw.csv")
	require.NoError(t, os.WriteFile(input, raw, 0o644))
	return dir, filepath.Join(dir, config.FileName), input
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "salespipe version dev")
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized salespipe project at "+dir)

	for _, d := range []string{"data", filepath.Join("data", "processed"), "output", "logs", "reference"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}
	assert.FileExists(t, filepath.Join(dir, "data", ".gitkeep"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Equal(t, config.DiscountClamp, cfg.Cleaning.DiscountPolicy)
	assert.NoError(t, config.Validate(cfg))
}

func TestInit_NameFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--name", "Test Store")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Test Store", cfg.Project.Name)
}

func TestInit_Regions(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	svc, err := reference.Load(filepath.Join(dir, "reference", "regions.csv"))
	require.NoError(t, err)
	got, ok := svc.Canonical("bengaluru")
	require.True(t, ok)
	assert.Equal(t, "Bangalore", got)
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	_, err = execute(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--git", "--name", "Test Store")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dir, ".git"))
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init: Initialize Test Store")
}

func TestRun_File(t *testing.T) {
	dir, cfgPath, input := initProject(t)

	out, err := execute(t, "run", input, "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed sales_raw.csv")
	assert.Contains(t, out, "rows: 11 read, 6 written, 5 dropped")
	assert.Contains(t, out, "revenue 2310.00, profit -314.00")
	assert.Contains(t, out, "negative_units")
	assert.Contains(t, out, "wrote "+filepath.Join("output", exporter.CleanedFile))

	assert.FileExists(t, filepath.Join(dir, "output", exporter.CleanedFile))
	assert.FileExists(t, filepath.Join(dir, "output", "summary_by_region.csv"))
	assert.FileExists(t, input, "a single file run leaves the input in place")
}

func TestRun_Inbox(t *testing.T) {
	dir, cfgPath, _ := initProject(t)

	out, err := execute(t, "run", "-c", cfgPath, "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed sales_raw.csv")
	assert.FileExists(t, filepath.Join(dir, "data", "processed", "sales_raw.csv"))

	_, err = execute(t, "run", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestRun_FlagOverrides(t *testing.T) {
	dir, cfgPath, input := initProject(t)
	other := filepath.Join(dir, "elsewhere")

	_, err := execute(t, "run", input, "-c", cfgPath, "--output", other, "-d", "quarter", "-d", "discount_tier", "-f", "xlsx")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(other, exporter.CleanedFile))
	assert.FileExists(t, filepath.Join(other, "summary_by_quarter.csv"))
	assert.FileExists(t, filepath.Join(other, "summary_by_discount_tier.csv"))
	assert.FileExists(t, filepath.Join(other, exporter.WorkbookFile))
	assert.NoFileExists(t, filepath.Join(other, "summary_by_region.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "output", exporter.CleanedFile))
}

func TestRun_DiscountPolicyDrop(t *testing.T) {
	_, cfgPath, input := initProject(t)

	out, err := execute(t, "run", input, "-c", cfgPath, "--discount-policy", "drop")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 11 read, 5 written, 6 dropped")
	assert.Contains(t, out, "discount_out_of_range")
}

func TestRun_InvalidOverride(t *testing.T) {
	_, cfgPath, input := initProject(t)

	_, err := execute(t, "run", input, "-c", cfgPath, "--discount-policy", "ignore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = execute(t, "run", input, "-c", cfgPath, "-d", "colour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRun_MissingInput(t *testing.T) {
	dir, cfgPath, _ := initProject(t)

	_, err := execute(t, "run", filepath.Join(dir, "missing.csv"), "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading input")
}

func TestSummarize(t *testing.T) {
	dir, cfgPath, input := initProject(t)
	_, err := execute(t, "run", input, "-c", cfgPath)
	require.NoError(t, err)

	out, err := execute(t, "summarize", filepath.Join(dir, "output", exporter.CleanedFile), "--by", "region")
	require.NoError(t, err)
	assert.Contains(t, out, "Bangalore")
	assert.Contains(t, out, "Hyderabad")
	assert.Contains(t, out, "1500.00")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[6], "TOTAL")
	assert.Contains(t, lines[6], "2310.00")
}

func TestSummarize_CSV(t *testing.T) {
	dir, cfgPath, input := initProject(t)
	_, err := execute(t, "run", input, "-c", cfgPath)
	require.NoError(t, err)

	out, err := execute(t, "summarize", filepath.Join(dir, "output", exporter.CleanedFile), "--by", "category", "--csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "category,transactions,"))
	assert.True(t, strings.HasPrefix(lines[1], "Lifestyle,2,3,220.00,"), lines[1])
}

func TestSummarize_Errors(t *testing.T) {
	_, err := execute(t, "summarize", "whatever.csv", "--by", "colour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dimension")

	_, err = execute(t, "summarize", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = execute(t, "summarize", "../../testdata/sales_raw.csv")
	require.Error(t, err, "raw input is not a cleaned export")
}

func TestHistory(t *testing.T) {
	_, cfgPath, input := initProject(t)

	out, err := execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	for i := 0; i < 2; i++ {
		_, err = execute(t, "run", input, "-c", cfgPath)
		require.NoError(t, err)
	}

	out, err = execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "2310.00")

	out, err = execute(t, "history", "-c", cfgPath, "-n", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}
