package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, EnvDevelopment, v.GetString("ENV"))
	assert.Equal(t, 8080, v.GetInt("PORT"))
	// Routes are registered at the router root, so download links built from
	// the prefix must resolve without one by default.
	assert.Equal(t, "", v.GetString("API_PREFIX"))
	assert.Equal(t, "escola_admin", v.GetString("DB_NAME"))
}
