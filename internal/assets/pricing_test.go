package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPriceTable(t *testing.T) {
	table := DefaultPriceTable()

	rls, ok := table.Rule("rls")
	require.True(t, ok)
	assert.Equal(t, "irr", rls.BaseAsset)
	assert.False(t, rls.IsRoot)
	assert.Empty(t, rls.Symbol)

	usdt, ok := table.Rule("USDT")
	require.True(t, ok, "lookup is case-insensitive")
	assert.True(t, usdt.IsRoot)

	rial, ok := table.Rule("﷼")
	require.True(t, ok)
	assert.True(t, rial.IsInverted)
	assert.Equal(t, "USDTIRT", rial.Symbol)
	assert.Equal(t, 10.0, rial.Multiplier)

	_, ok = table.Rule("doge")
	assert.False(t, ok)
}

func TestLoadPriceTable(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		table, err := LoadPriceTable("")
		require.NoError(t, err)
		_, ok := table.Rule("rls")
		assert.True(t, ok)
	})

	t.Run("yaml file merges over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pricing.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
ETH:
  base_asset: eth
  symbol: ETHUSD
  multiplier: 1
  accuracy: 0.00000001
rls:
  base_asset: irr
  multiplier: 2
  accuracy: 0.00000001
`), 0o600))

		table, err := LoadPriceTable(path)
		require.NoError(t, err)

		eth, ok := table.Rule("eth")
		require.True(t, ok, "yaml keys are lower-cased")
		assert.Equal(t, "ETHUSD", eth.Symbol)

		rls, ok := table.Rule("rls")
		require.True(t, ok)
		assert.Equal(t, 2.0, rls.Multiplier, "file entries override defaults")

		_, ok = table.Rule("usdt")
		assert.True(t, ok, "untouched defaults survive the merge")
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadPriceTable(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})
}

func TestPriceTable_Warnings(t *testing.T) {
	table := PriceTable{
		"usdt": {BaseAsset: "usd", IsRoot: true},
		"odd":  {BaseAsset: "usd", IsRoot: true, Symbol: "USDTIRT"},
	}

	warnings := table.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "odd")
}
