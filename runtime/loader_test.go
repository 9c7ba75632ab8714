package runtime

import (
	"companion-hub/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	folder := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("Idiot\r\nmoron\n\n# comment\n")},
		"censored/fr.txt":    {Data: []byte("abruti\nidiot\n")},
		"censored/README.md": {Data: []byte("ignored")},
	}

	// When dictionaries are loaded
	data, err := NewCensoredLoader(folder).LoadAll("censored")

	// Then words are deduplicated, lowercased and sorted
	req.NoError(err)
	req.Equal([]string{"en", "fr"}, data.Languages)
	req.Equal([]string{"abruti", "idiot", "moron"}, data.Words)
}

func TestCensoredLoader_Embedded(t *testing.T) {
	req := require.New(t)

	data, err := NewCensoredLoader(censoredFolder).LoadAll("censored")

	req.NoError(err)
	req.Contains(data.Languages, "en")
	req.Contains(data.Words, "idiot")
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)
	folder := fstest.MapFS{"censored/en.txt": {Data: []byte("\n  \n")}}

	_, err := NewCensoredLoader(folder).LoadAll("censored")

	req.ErrorIs(err, errors.ErrEmptyWords)
}
