package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/bpe-tokenizer/bpet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultVocabSize, cfg.Training.VocabSize)
	assert.Equal(suite.T(), 0, cfg.Training.MaxIterations)
	assert.Equal(suite.T(), internal.DefaultLogEvery, cfg.Training.LogEvery)
	assert.Equal(suite.T(), "none", cfg.Training.Normalization)

	assert.Equal(suite.T(), []string{".txt"}, cfg.Corpus.Extensions)
	assert.Equal(suite.T(), internal.DefaultIgnoreFile, cfg.Corpus.IgnoreFile)
	assert.Equal(suite.T(), 8, cfg.Corpus.Workers)

	assert.Equal(suite.T(), 4096, cfg.Encoder.CacheSize)
	assert.Equal(suite.T(), internal.DefaultStoreDSN, cfg.Store.DSN)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
training:
  vocabSize: 300
  maxIterations: 1000
  logEvery: 25
  normalization: nfkc
corpus:
  dir: ./texts
  extensions: [".txt", ".md"]
  ignoreFile: .ignore
  workers: 2
encoder:
  cacheSize: 10
  maxSeqLen: 128
  workers: 4
  padID: 1
store:
  dsn: "file:test.db"
log:
  level: debug
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configFile)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), TrainingConfig{VocabSize: 300, MaxIterations: 1000, LogEvery: 25, Normalization: "nfkc"}, cfg.Training)
	assert.Equal(suite.T(), CorpusConfig{Dir: "./texts", Extensions: []string{".txt", ".md"}, IgnoreFile: ".ignore", Workers: 2}, cfg.Corpus)
	assert.Equal(suite.T(), EncoderConfig{CacheSize: 10, MaxSeqLen: 128, Workers: 4, PadID: 1}, cfg.Encoder)
	assert.Equal(suite.T(), "file:test.db", cfg.Store.DSN)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigFromWorkingDirectory() {
	content := "training:\n  vocabSize: 77\n"
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.tempDir, "config.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 77, cfg.Training.VocabSize)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("BPET_TRAINING_VOCABSIZE", "123")
	suite.T().Setenv("BPET_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 123, cfg.Training.VocabSize)
	assert.Equal(suite.T(), "warn", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
training:
  vocabSize: 10
  invalid_yaml: [unclosed bracket
`
	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(malformedContent), 0o644))

	cfg, err := LoadConfig(configFile)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsInvalidValues() {
	configFile := filepath.Join(suite.tempDir, "bad.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("training:\n  vocabSize: 0\n"), 0o644))

	cfg, err := LoadConfig(configFile)
	assert.ErrorContains(suite.T(), err, "vocabSize")
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestAppConfigGlobal() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), *cfg, AppConfig)
}

func TestValidate(t *testing.T) {
	cfg := Config{Training: TrainingConfig{VocabSize: 10}}
	assert.NoError(t, cfg.Validate())

	cfg.Training.MaxIterations = -1
	assert.Error(t, cfg.Validate())

	cfg = Config{Training: TrainingConfig{VocabSize: 10}, Encoder: EncoderConfig{MaxSeqLen: -5}}
	assert.Error(t, cfg.Validate())
}
