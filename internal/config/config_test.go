package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Embedfield/internal/core/embeds"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "EmbedfieldBot/1.0", cfg.UserAgent)
	assert.Empty(t, cfg.RequiredEmbedType)
	assert.False(t, cfg.YouTubePrivacyEnhanced)
	assert.Equal(t, "www.youtube-nocookie.com", cfg.YouTubePrivacyHost)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMBEDFIELD_PORT", "9000")
	t.Setenv("EMBEDFIELD_FETCH_TIMEOUT", "3s")
	t.Setenv("EMBEDFIELD_REQUIRED_TYPE", "video")
	t.Setenv("EMBEDFIELD_YT_PRIVACY_ENHANCED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "video", cfg.RequiredEmbedType)
	assert.True(t, cfg.YouTubePrivacyEnhanced)
}

func TestValidate_RejectsBadEmbedType(t *testing.T) {
	t.Setenv("EMBEDFIELD_REQUIRED_TYPE", "podcast")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDFIELD_REQUIRED_TYPE")
}

func TestValidate_RejectsEmptyDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "", FetchTimeout: time.Second}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x", FetchTimeout: 0}
	assert.Error(t, cfg.Validate())
}

func TestRewriteConfig_ParsesOrderedQueryParams(t *testing.T) {
	cfg := Config{
		YouTubeQueryParams:     "rel=0, modestbranding=1,bad,=nokey,loop=",
		YouTubePrivacyEnhanced: true,
		YouTubePrivacyHost:     "www.youtube-nocookie.com",
	}

	rw := cfg.RewriteConfig()

	assert.Equal(t, []embeds.QueryParam{
		{Key: "rel", Value: "0"},
		{Key: "modestbranding", Value: "1"},
		{Key: "loop", Value: ""},
	}, rw.ExtraQueryParams)
	assert.Equal(t, "www.youtube-nocookie.com", rw.PrivacyEnhancedHost)
}

func TestRewriteConfig_PrivacyDisabled(t *testing.T) {
	cfg := Config{YouTubePrivacyHost: "www.youtube-nocookie.com"}

	rw := cfg.RewriteConfig()

	assert.Empty(t, rw.PrivacyEnhancedHost)
	assert.Empty(t, rw.ExtraQueryParams)
}
