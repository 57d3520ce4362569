package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/dii-meter/internal/dii"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Energy (kcal),Fiber (g),Note",
		"2024-01-01,2056,23.7,big salad day",
		"2024-01-02,,abc,",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Records, 2)
	assert.Equal(t, []string{"Date", "Energy (kcal)", "Fiber (g)", "Note"}, table.Columns)

	first := table.Records[0]
	assert.Equal(t, "2024-01-01", first.Date)
	assert.Equal(t, dii.Float(2056), first.Fields["Energy (kcal)"])
	assert.Equal(t, dii.Float(23.7), first.Fields["Fiber (g)"])
	_, hasNote := first.Fields["Note"]
	assert.False(t, hasNote, "label columns stay out of the nutrient fields")

	second := table.Records[1]
	assert.False(t, second.Fields["Energy (kcal)"].Valid, "blank cell parses as invalid")
	assert.False(t, second.Fields["Fiber (g)"].Valid, "non-numeric cell parses as invalid")
}

func TestParseCSVEmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseCSVRaggedRow(t *testing.T) {
	input := strings.Join([]string{
		"Date,Energy (kcal),Fiber (g)",
		"2024-01-01,1800",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, dii.Float(1800), table.Records[0].Fields["Energy (kcal)"])
	_, present := table.Records[0].Fields["Fiber (g)"]
	assert.False(t, present, "short rows stop at their last cell")
}

func TestNormalizeDayLevelPassThrough(t *testing.T) {
	input := strings.Join([]string{
		"Date,Fiber (g)",
		"2024-01-01,20",
		"2024-01-02,15",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	days := table.Normalize()
	require.Len(t, days, 2)
	assert.Equal(t, table.Records, days)
}

func TestNormalizeGroupsMealsByDate(t *testing.T) {
	input := strings.Join([]string{
		"Date,Meal,Fiber (g),Energy (kcal)",
		"2024-01-01,Breakfast,5,400",
		"2024-01-01,Lunch,8,700",
		"2024-01-01,Dinner,,900",
		"2024-01-02,Breakfast,6,350",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.True(t, table.HasColumn("Meal"))

	days := table.Normalize()
	require.Len(t, days, 2)

	assert.Equal(t, "2024-01-01", days[0].Date)
	assert.Equal(t, dii.Float(13), days[0].Fields["Fiber (g)"])
	assert.Equal(t, dii.Float(2000), days[0].Fields["Energy (kcal)"])

	assert.Equal(t, "2024-01-02", days[1].Date)
	assert.Equal(t, dii.Float(6), days[1].Fields["Fiber (g)"])
}

func TestAverageRows(t *testing.T) {
	records := []Record{
		{Date: "2024-01-01", Fields: dii.Row{
			"Fiber (g)":     dii.Float(10),
			"Energy (kcal)": dii.Float(1800),
		}},
		{Date: "2024-01-02", Fields: dii.Row{
			"Fiber (g)":     dii.Float(20),
			"Energy (kcal)": dii.NullFloat{},
		}},
	}

	row := AverageRows(records)
	assert.Equal(t, dii.Float(15), row["Fiber (g)"])
	// The unrecorded second day does not drag the mean down.
	assert.Equal(t, dii.Float(1800), row["Energy (kcal)"])
}

func TestAverageRowsEmpty(t *testing.T) {
	assert.Empty(t, AverageRows(nil))
}

func TestSplitColumns(t *testing.T) {
	input := "Date,Fiber (g),Boron (mg),Meal\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	mapping, err := dii.DefaultSchemas().Mapping(dii.SourceCronometer)
	require.NoError(t, err)

	recognized, unrecognized := table.SplitColumns(mapping)
	assert.Equal(t, []string{"Fiber (g)"}, recognized)
	assert.Equal(t, []string{"Boron (mg)"}, unrecognized)
}
