package landsat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkInvalidAppends(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	assert.Nil(t, os.MkdirAll(filepath.Dir(invalidImagesFile()), 0755))

	markInvalid("valley_2020-06-01.tif")
	markInvalid("valley_2020-07-17.tif")
	markInvalid("valley_2020-06-01.tif")

	invalid, err := loadInvalidImages()
	assert.Nil(t, err)
	assert.Equal(t, []string{"valley_2020-06-01.tif", "valley_2020-07-17.tif"}, invalid)
}

func TestMarkInvalidKeepsUnreadableList(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	assert.Nil(t, os.MkdirAll(filepath.Dir(invalidImagesFile()), 0755))
	corrupt := []byte(`{"not": "a list"`)
	assert.Nil(t, os.WriteFile(invalidImagesFile(), corrupt, 0644))

	markInvalid("valley_2020-06-01.tif")

	// The unreadable list stays untouched instead of being replaced with a
	// single entry.
	data, err := os.ReadFile(invalidImagesFile())
	assert.Nil(t, err)
	assert.Equal(t, corrupt, data)
}
