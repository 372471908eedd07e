package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"psyrun/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildConfigPrecedence(t *testing.T) {
	t.Setenv("PSYRUN_WIDTH", "1024")
	t.Setenv("PSYRUN_HEIGHT", "768")
	t.Setenv("PSYRUN_TASK", "image-rating")

	var fl runFlags
	cmd := &cobra.Command{}
	bindRunFlags(cmd, &fl)
	require.NoError(t, cmd.Flags().Parse([]string{"--no-cache", "--width", "1280", "--no-vsync", "--bg-color", "0,0,0"}))

	cfg, err := buildConfig(cmd, &fl)
	require.NoError(t, err)
	require.Equal(t, 1280, cfg.ScreenWidth)
	require.Equal(t, 768, cfg.ScreenHeight)
	require.Equal(t, "image-rating", cfg.TaskRef)
	require.False(t, cfg.VSync)
	require.True(t, cfg.UseFixation)
	require.Equal(t, engine.Color{A: 255}, cfg.BGColor)
	require.Equal(t, "data", cfg.DataDir)
}

func TestConditionsCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stims.xlsx")
	out, err := execute(t, "conditions", "--words", "red, green", "--colors", "red,green", "--reps", "3", "--seed", "1", "--out", path)
	require.NoError(t, err)
	require.Contains(t, out, "Wrote 6 conditions")

	exp, err := engine.LoadConditions(path)
	require.NoError(t, err)
	require.Len(t, exp.Conditions, 6)

	_, err = execute(t, "conditions", "--words", "red", "--colors", "red,green", "--out", path)
	require.Error(t, err)
}

func TestTasksCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "tasks")
	require.NoError(t, err)
	for _, name := range engine.PresetNames() {
		require.Contains(t, out, name)
	}
}

func TestPilotRunAndSummary(t *testing.T) {
	dir := t.TempDir()
	conds := filepath.Join(dir, "stims.csv")
	require.NoError(t, os.WriteFile(conds, []byte("word,color\nred,red\nred,blue\nblue,blue\nblue,red\n"), 0o644))
	dataDir := filepath.Join(dir, "data")

	out, err := execute(t, "run", "--pilot", "--no-cache", "--task", "stroop",
		"--conditions", conds, "--data-dir", dataDir, "--participant", "sim01", "--seed", "12")
	require.NoError(t, err)
	require.Contains(t, out, "Trial: 4/4")

	matches, err := filepath.Glob(filepath.Join(dataDir, "sim01_stroop_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	out, err = execute(t, "summary", matches[0])
	require.NoError(t, err)
	require.Contains(t, out, "Participant sim01, task stroop")
	require.Contains(t, out, "Trials: 4")

	_, err = execute(t, "summary", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestRunRejectsUnknownTask(t *testing.T) {
	_, err := execute(t, "run", "--pilot", "--no-cache", "--task", "nback")
	require.Error(t, err)
	require.True(t, engine.ErrConfig.Equal(err))
}
