package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func resetViper() {
	viper.Reset()
}

func TestLoad_DefaultsRequireIdentity(t *testing.T) {
	resetViper()
	_, err := Load("")
	require.Error(t, err, "endpoint/zone name are required and have no default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper()
	t.Setenv("CLUSTERCORE_CLUSTER_ENDPOINT_NAME", "node-a")
	t.Setenv("CLUSTERCORE_CLUSTER_ZONE_NAME", "zone-main")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "node-a", cfg.Cluster.EndpointName)
	assert.Equal(t, "zone-main", cfg.Cluster.ZoneName)
	assert.Equal(t, 4, cfg.Cluster.Concurrency)
	assert.Equal(t, "active", cfg.ObjectConfig.StageName)
}

// yamlFixture mirrors the subset of Config's YAML shape this test cares
// about; it's marshaled independently of viper to produce the fixture file,
// so the test exercises an actual YAML encoder/decoder rather than a
// hand-typed string that happens to parse.
type yamlFixture struct {
	Cluster struct {
		EndpointName string `yaml:"endpoint_name"`
		ZoneName     string `yaml:"zone_name"`
		Concurrency  int    `yaml:"concurrency"`
	} `yaml:"cluster"`
}

func TestLoad_FromYAMLFile(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var fixture yamlFixture
	fixture.Cluster.EndpointName = "node-b"
	fixture.Cluster.ZoneName = "zone-sub"
	fixture.Cluster.Concurrency = 8

	content, err := yaml.Marshal(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	// Round-trip the fixture itself before feeding it to Load, so a
	// regression in the fixture's shape fails here rather than inside
	// viper's YAML decoding.
	var roundTripped yamlFixture
	require.NoError(t, yaml.Unmarshal(content, &roundTripped))
	assert.Equal(t, fixture, roundTripped)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-b", cfg.Cluster.EndpointName)
	assert.Equal(t, 8, cfg.Cluster.Concurrency)
}

func TestValidate_RejectsZeroConcurrency(t *testing.T) {
	cfg := &Config{
		Cluster:      ClusterConfig{EndpointName: "a", ZoneName: "z", Concurrency: 0},
		Snapshot:     SnapshotConfig{QueueCapacity: 1},
		ObjectConfig: ObjectConfigConfig{ModuleName: "_api"},
		Beacon:       BeaconConfig{Interval: 1},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}
