package shelfscan_test

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/shelfscan"
	"github.com/aretw0/shelfscan/internal/testutils"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(shelfscan.Version))
}

func TestDecodeImage(t *testing.T) {
	t.Run("Book", func(t *testing.T) {
		res, err := shelfscan.DecodeImage(testutils.Centered(testutils.RenderEAN13(t, "9780142437230", 400, 150), 800, 400))
		require.NoError(t, err)
		assert.True(t, res.Found())
		assert.Equal(t, "9780142437230", res.ISBN)
		assert.Equal(t, domain.SymbologyEAN13, res.Format)
	})

	t.Run("Product", func(t *testing.T) {
		res, err := shelfscan.DecodeImage(testutils.Centered(testutils.RenderEAN13(t, "4006381333931", 400, 150), 800, 400))
		require.NoError(t, err)
		assert.False(t, res.Found())
		assert.Equal(t, "4006381333931", res.Raw, "raw text is kept for non-book codes")
	})

	t.Run("Blank", func(t *testing.T) {
		res, err := shelfscan.DecodeImage(testutils.Blank(320, 240))
		require.NoError(t, err)
		assert.Equal(t, shelfscan.Result{}, res)
	})

	t.Run("Unsupported symbology", func(t *testing.T) {
		_, err := shelfscan.DecodeImage(testutils.Blank(10, 10), shelfscan.WithSymbologies("QR_CODE"))
		assert.Error(t, err)
	})
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testutils.Centered(testutils.RenderEAN13(t, "9791032305690", 400, 150), 800, 400)))
	require.NoError(t, f.Close())

	res, err := shelfscan.DecodeFile(path, shelfscan.WithStrictChecksum(), shelfscan.WithTryHarder())
	require.NoError(t, err)
	assert.Equal(t, "9791032305690", res.ISBN)

	_, err = shelfscan.DecodeFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
