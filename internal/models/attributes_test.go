package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caretflat/internal/models"
)

func TestPaintFile(t *testing.T) {
	pf := models.NewPaintFile(3, 1)
	require.Equal(t, 3, pf.NumNodes())
	require.Equal(t, 1, pf.NumColumns())

	assert.Equal(t, 0, pf.PaintIndexFromName(models.SentinelName))
	for n := 0; n < 3; n++ {
		assert.Equal(t, models.SentinelName, pf.PaintNameAt(n, 0))
	}

	pf.Columns[0].Name = models.GeographyColumn
	assert.Equal(t, 0, pf.ColumnWithName(models.GeographyColumn))
	assert.Equal(t, -1, pf.ColumnWithName(models.SulcalIdentificationColumn))

	mw := pf.AddPaintName(models.MedialWallName)
	assert.Equal(t, 1, mw)
	assert.Equal(t, mw, pf.AddPaintName(models.MedialWallName))
	pf.SetPaint(1, 0, mw)
	assert.Equal(t, models.MedialWallName, pf.PaintNameAt(1, 0))
	assert.Equal(t, []string{models.SentinelName, models.MedialWallName}, pf.PaintNames())

	pf.AddColumns(2, mw)
	assert.Equal(t, 3, pf.NumColumns())
	assert.Equal(t, mw, pf.Paint(0, 2))

	t.Run("clone is independent", func(t *testing.T) {
		c := pf.Clone()
		c.SetPaint(0, 0, mw)
		c.AddPaintName("Other")
		assert.Equal(t, models.SentinelName, pf.PaintNameAt(0, 0))
		assert.Equal(t, -1, pf.PaintIndexFromName("Other"))
	})
}

func TestPaintFileModified(t *testing.T) {
	pf := models.NewPaintFile(2, 1)
	assert.True(t, pf.Modified())

	pf.ClearModified()
	pf.SetPaint(0, 0, pf.PaintIndexFromName(models.SentinelName))
	assert.False(t, pf.Modified(), "writing the same value")

	pf.AddPaintName(models.SentinelName)
	assert.False(t, pf.Modified(), "adding a known name")

	pf.SetPaint(0, 0, pf.AddPaintName("A"))
	assert.True(t, pf.Modified())
}

func TestAreaColorFile(t *testing.T) {
	cf := &models.AreaColorFile{}
	_, ok := cf.ColorIndexByName(models.MedialWallName)
	assert.False(t, ok)
	assert.False(t, cf.Modified())

	cf.AddColor(models.MedialWallName, 0, 255, 0)
	i, ok := cf.ColorIndexByName(models.MedialWallName)
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, models.AreaColor{Name: models.MedialWallName, G: 255}, cf.Colors[0])
	assert.True(t, cf.Modified())

	cf.ClearModified()
	assert.False(t, cf.Modified())
}

func TestArealEstimationFile(t *testing.T) {
	af := models.NewArealEstimationFile(2, 1)
	require.Equal(t, 2, af.NumNodes())
	assert.Equal(t, models.SentinelEntries(), af.Entries(1, 0))

	entries := [models.ArealEntriesPerNode]models.ArealEntry{
		{Name: "V1", Probability: 0.6},
		{Name: "V2", Probability: 0.4},
		{Name: models.SentinelName},
		{Name: models.SentinelName},
	}
	af.SetEntries(0, 0, entries)
	assert.Equal(t, entries, af.Entries(0, 0))
	assert.Equal(t, []string{models.SentinelName, "V1", "V2"}, af.Names())

	af.AddColumns(1)
	af.Columns[1].Name = "Areas"
	assert.Equal(t, 1, af.ColumnWithName("Areas"))
	assert.Equal(t, models.SentinelEntries(), af.Entries(0, 1))
	assert.Equal(t, entries, af.Entries(0, 0))
}
