package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "id,name,points,length,zones,dive_sites,tags,cost\n"

const fishCSV = header + `herring,Herring,1,6,sunlight,,schooling,{C}
barracuda,Barracuda,3,18,sunlight|twilight,red|blue,predator,{2C}{X}
`

func TestReadCards(t *testing.T) {
	cards, err := readCards(strings.NewReader(fishCSV))
	require.NoError(t, err)
	require.Len(t, cards, 2)

	b := cards[1]
	assert.Equal(t, "barracuda", b.ID)
	assert.Equal(t, 18, b.Length)
	assert.Equal(t, []catalog.Zone{catalog.ZoneSunlight, catalog.ZoneTwilight}, b.Zones)
	assert.Equal(t, []catalog.DiveSite{catalog.DiveSiteRed, catalog.DiveSiteBlue}, b.DiveSites)
	assert.Equal(t, 2, b.Cost.Amount(catalog.ResourceCard))
	assert.Equal(t, 1, b.Cost.Amount(catalog.ResourceConsume))
	assert.Empty(t, cards[0].DiveSites)
}

func TestReadCardsErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"header only", header},
		{"bad points", header + "herring,Herring,one,6,sunlight,,,{C}\n"},
		{"bad cost", header + "herring,Herring,1,6,sunlight,,,{Q}\n"},
		{"short row", "id,name\nherring,Herring\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCards(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fish.csv")
	out := filepath.Join(dir, "cards.yaml")
	require.NoError(t, os.WriteFile(in, []byte(fishCSV), 0o600))

	require.NoError(t, convert(in, out))
	cat, err := catalog.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	_, ok := cat.Lookup("herring")
	assert.True(t, ok)
}

func TestConvertRejectsInvalidCards(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fish.csv")
	bad := header + "herring,Herring,1,6,abyss,,,{C}\n"
	require.NoError(t, os.WriteFile(in, []byte(bad), 0o600))
	assert.Error(t, convert(in, filepath.Join(dir, "cards.yaml")))
}

func TestPrintSummary(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	var buf bytes.Buffer
	printSummary(&buf, cat)
	assert.Contains(t, buf.String(), "cards:        24")
	assert.Contains(t, buf.String(), "achievements: 3")
}
