package nasa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanetQuery(t *testing.T) {
	q := BuildPlanetQuery("Kepler-452 b")

	assert.True(t, strings.HasPrefix(q, "select pl_name,pl_letter,hostname,discoverymethod,disc_year,pl_orbper,"))
	assert.True(t, strings.HasSuffix(q, ",pl_controv_flag,pl_pubdate,rowupdate from ps where pl_name='Kepler-452 b'"))
	assert.Len(t, PlanetColumns, 38)
}

func TestBuildQuery_EscapesQuotes(t *testing.T) {
	assert.True(t, strings.HasSuffix(BuildPlanetQuery("x' or '1'='1"), "pl_name='x'' or ''1''=''1'"))
	assert.True(t, strings.HasSuffix(BuildSystemQuery("O'Brien"), "hostname='O''Brien'"))
}

func TestParseTAPCSV(t *testing.T) {
	input := "pl_name,pl_letter,disc_year,pl_orbper,pl_masse,rowupdate\n" +
		"\"HD 209458 b\",b,1999,3.52474859,,\"2014-05-14\"\n" +
		"\n" +
		"51 Peg b,b,1995,4.230785,150.0\n"

	rows, err := ParseTAPCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		"pl_name":   "HD 209458 b",
		"pl_letter": "b",
		"disc_year": 1999.0,
		"pl_orbper": 3.52474859,
		"pl_masse":  "",
		"rowupdate": "2014-05-14",
	}, rows[0])

	assert.Equal(t, "", rows[1]["rowupdate"], "short rows pad with empty cells")
	assert.Equal(t, 150.0, rows[1]["pl_masse"])
}

func TestParseTAPCSV_Empty(t *testing.T) {
	rows, err := ParseTAPCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	rows, err = ParseTAPCSV(strings.NewReader("pl_name\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRowAccessors(t *testing.T) {
	row := Row{"a": 1.5, "b": "text", "c": "", "aerr1": 0.1}

	require.NotNil(t, row.Float("a"))
	assert.Equal(t, 1.5, *row.Float("a"))
	assert.Nil(t, row.Float("b"))
	assert.Nil(t, row.Float("missing"))
	assert.Equal(t, "text", row.String("b"))
	assert.Equal(t, "1.5", row.String("a"))
	assert.Equal(t, "", row.String("missing"))

	m := row.Measurement("a")
	require.NotNil(t, m.Err1)
	assert.Equal(t, 0.1, *m.Err1)
	assert.Nil(t, m.Err2)
}
