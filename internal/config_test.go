package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var config Config

	// When nothing is set
	err := env.Unmarshal(env.EnvSet{}, &config)

	// Then the hub still has a usable configuration
	req.NoError(err)
	req.Equal("0.0.0.0:8080", config.Address())
	req.Equal(2*time.Second, config.SinkTimeout)
	req.Equal(20, config.SearchLimit)
	req.Empty(config.JournalPath)
	req.Empty(config.Origins())
}

func TestConfig_Origins(t *testing.T) {
	req := require.New(t)
	var config Config

	err := env.Unmarshal(env.EnvSet{"ALLOWED_ORIGINS": " https://a.example, ,https://b.example"}, &config)

	req.NoError(err)
	req.Equal([]string{"https://a.example", "https://b.example"}, config.Origins())
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
}
