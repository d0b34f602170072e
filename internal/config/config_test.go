package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	t.Chdir(dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad(t *testing.T) {
	writeConfig(t, `
source:
  kind: local
  local_dir: ./exports
catalog:
  base_url: https://shop.test/
  price_brackets:
    - name: low
      below: 100
    - name: rest
redis:
  enabled: true
knowledge:
  extra_files:
    - ./knowledge/faq.md
    - ./knowledge/general.md
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Source.Kind)
	assert.Equal(t, "./exports", cfg.Source.LocalDir)
	assert.Equal(t, "/catalogo/productos.xlsx", cfg.Source.ProductsPath)
	assert.Equal(t, "https://shop.test/", cfg.Catalog.BaseURL)
	require.Len(t, cfg.Catalog.PriceBrackets, 2)
	assert.Equal(t, "low", cfg.Catalog.PriceBrackets[0].Name)
	assert.Equal(t, 100.0, cfg.Catalog.PriceBrackets[0].Below)
	assert.Equal(t, 120, cfg.Sync.Interval)
	assert.Equal(t, "productos.json", cfg.Output.ProductsJSON)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "catalogo.toon", cfg.Output.CatalogTOON)
	assert.Equal(t, []string{"./knowledge/faq.md", "./knowledge/general.md"}, cfg.Knowledge.ExtraFiles)
}

func TestLoad_EnvOverride(t *testing.T) {
	writeConfig(t, `
source:
  kind: local
  local_dir: ./exports
`)
	t.Setenv("CATALOG_BASE_URL", "https://env.test/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.test/", cfg.Catalog.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Source: SourceConfig{
				Kind:           "dropbox",
				CategoriesPath: "/c.xlsx",
				ProductsPath:   "/p.xlsx",
				Dropbox:        DropboxConfig{AppKey: "key", RefreshToken: "refresh"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid dropbox", func(c *Config) {}, false},
		{"missing refresh token", func(c *Config) { c.Source.Dropbox.RefreshToken = "" }, true},
		{"local without dir", func(c *Config) { c.Source.Kind = "local" }, true},
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }, true},
		{"missing products path", func(c *Config) { c.Source.ProductsPath = "" }, true},
		{"publish without store", func(c *Config) { c.Sync.Publish = true; c.Redis.Enabled = true }, true},
		{"scheduled publish without redis", func(c *Config) {
			c.Sync.Publish = true
			c.Sync.Interval = 120
			c.Knowledge.VectorStoreID = "vs"
		}, true},
		{"run once publish without redis", func(c *Config) { c.Sync.Publish = true; c.Knowledge.VectorStoreID = "vs" }, false},
		{"publish", func(c *Config) {
			c.Sync.Publish = true
			c.Redis.Enabled = true
			c.Knowledge.VectorStoreID = "vs"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
