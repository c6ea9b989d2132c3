package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ashureev/chatengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClassifyText(t *testing.T) {
	stdout, _, err := executeCLI(t, "classify", "oi")
	require.NoError(t, err)
	assert.Contains(t, stdout, "intent:    WELCOME")
	assert.Contains(t, stdout, "profanity: none")
}

func TestClassifyJSONReportsSector(t *testing.T) {
	stdout, _, err := executeCLI(t, "classify", "--output", "json", "Preciso de um CELULAR e um notebook")
	require.NoError(t, err)

	var got struct {
		Keywords []string `json:"keywords"`
		Sector   string   `json:"sector"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []string{"smartphone", "notebook"}, got.Keywords)
	assert.Equal(t, "Tecnologia", got.Sector)
}

func TestClassifyYAMLAbusive(t *testing.T) {
	stdout, _, err := executeCLI(t, "classify", "-o", "yaml", "filho da puta")
	require.NoError(t, err)

	var got struct {
		MainIntent string `yaml:"main_intent"`
		Profanity  struct {
			ContainsProfanity bool `yaml:"contains_profanity"`
		} `yaml:"profanity"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "ABUSIVE", got.MainIntent)
	assert.True(t, got.Profanity.ContainsProfanity)
}

func TestClassifyRejectsUnknownOutput(t *testing.T) {
	_, _, err := executeCLI(t, "classify", "--output", "xml", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestClassifyRequiresMessage(t *testing.T) {
	_, _, err := executeCLI(t, "classify")
	require.Error(t, err)
}

func TestSeedCreatesDemoTenant(t *testing.T) {
	db := filepath.Join(t.TempDir(), "chat.db")

	stdout, _, err := executeCLI(t, "seed", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "company_id=1")

	s, err := store.NewSQLite(db)
	require.NoError(t, err)
	defer s.Close()

	company, err := s.CompanyInfo(t.Context(), store.DemoCompanyID)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Clínica Sorriso", company.Name)
}
