package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covideda/internal/casos"
	"covideda/internal/casos/casostest"
	"covideda/internal/census"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const table = casos.DefaultTable

func kase(sexo, edad, prov, fallecido, class string) casostest.Case {
	return casostest.Case{Sexo: sexo, Edad: edad, Provincia: prov, Fallecido: fallecido, Clasificacion: class}
}

func confirmed(sexo, edad, prov, fallecido string) casostest.Case {
	return kase(sexo, edad, prov, fallecido, casostest.Confirmed)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func render(t *testing.T, r Result) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	return buf.String()
}

func TestVariableCatalogue(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Córdoba", "NO"),
		confirmed("M", "45", "Salta", "SI"),
		kase("M", "", "Salta", "NO", casostest.Discarded),
	)

	res, err := VariableCatalogue(context.Background(), repo, table)
	require.NoError(t, err)
	require.Len(t, res.Variables, len(casos.Columns))

	byName := map[string]VariableInfo{}
	for _, v := range res.Variables {
		byName[v.Name] = v
	}

	edad := byName[casos.ColEdad]
	assert.Equal(t, "Cuantitativa", edad.Type)
	assert.Equal(t, "Discreta", edad.Classification)
	assert.EqualValues(t, 2, edad.Distinct)
	assert.EqualValues(t, 30, edad.MinAge.Int64)
	assert.EqualValues(t, 45, edad.MaxAge.Int64)
	assert.Empty(t, edad.Examples)

	sexo := byName[casos.ColSexo]
	assert.EqualValues(t, 2, sexo.Distinct)
	assert.Equal(t, []string{"F", "M"}, sexo.Examples)
	assert.Equal(t, "Binaria", byName[casos.ColFallecido].Classification)

	out := render(t, res)
	assert.Contains(t, out, "30 to 45")
	assert.Contains(t, out, "Córdoba, Salta")
}

func TestVariableCatalogue_EmptyTable(t *testing.T) {
	repo := casostest.Load(t)

	res, err := VariableCatalogue(context.Background(), repo, table)
	require.NoError(t, err)
	for _, v := range res.Variables {
		assert.Zero(t, v.Distinct, v.Name)
	}
	assert.False(t, res.Variables[1].MinAge.Valid)
	assert.Contains(t, render(t, res), "no ages loaded")
}

func TestMissingAge_Threshold(t *testing.T) {
	cases := func(total, missing int) []casostest.Case {
		out := make([]casostest.Case, 0, total)
		for i := 0; i < total; i++ {
			edad := "40"
			if i < missing {
				edad = ""
			}
			out = append(out, confirmed("F", edad, "Salta", "NO"))
		}
		return out
	}

	tests := []struct {
		name           string
		total, missing int
		want           Recommendation
	}{
		{"exactly five percent imputes", 20, 1, RecommendImpute},
		{"below five percent drops", 21, 1, RecommendDrop},
		{"none missing drops", 4, 0, RecommendDrop},
		{"all missing imputes", 3, 3, RecommendImpute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := casostest.Load(t, cases(tc.total, tc.missing)...)
			res, err := MissingAge(context.Background(), repo, table)
			require.NoError(t, err)
			assert.EqualValues(t, tc.total, res.Total)
			assert.EqualValues(t, tc.missing, res.Missing)
			assert.Equal(t, tc.want, res.Recommendation)
		})
	}
}

func TestMissingAge_EmptyTable(t *testing.T) {
	repo := casostest.Load(t)

	res, err := MissingAge(context.Background(), repo, table)
	require.NoError(t, err)
	assert.Equal(t, RecommendNone, res.Recommendation)
	assert.Contains(t, render(t, res), "Not enough data")
}

func TestDeceasedAges(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "60", "Buenos Aires", "SI"),
		confirmed("M", "62", "Buenos Aires", "SI"),
		confirmed("F", "64", "Buenos Aires", "SI"),
		confirmed("M", "66", "Buenos Aires", "SI"),
		confirmed("F", "68", "Chaco", "SI"),
		confirmed("M", "70", "Chaco", "SI"),
		confirmed("F", "72", "Chaco", "SI"),
		confirmed("M", "10", "Chaco", "SI"),
		confirmed("M", "", "Chaco", "SI"),
		confirmed("M", "5", "Chaco", "NO"),
	)

	res, err := DeceasedAges(context.Background(), repo, table)
	require.NoError(t, err)

	require.Len(t, res.ByProvince, 2)
	assert.Equal(t, "Buenos Aires", res.ByProvince[0].Province)
	assert.InDelta(t, 63, res.ByProvince[0].Mean, 1e-9)
	assert.Equal(t, "Chaco", res.ByProvince[1].Province)
	assert.InDelta(t, 55, res.ByProvince[1].Mean, 1e-9)

	assert.Equal(t, []int{10, 60, 62, 64, 66, 68, 70, 72}, res.Ages)
	assert.InDelta(t, 59, res.Mean, 1e-9)
	require.True(t, res.Sufficient())
	assert.Equal(t, 62, res.Bounds.Q1)
	assert.Equal(t, 70, res.Bounds.Q3)
	assert.InDelta(t, 50, res.Bounds.Lower, 1e-9)
	assert.InDelta(t, 82, res.Bounds.Upper, 1e-9)
	assert.Equal(t, []int{10}, res.Outliers)

	out := render(t, res)
	assert.Contains(t, out, "Found 1 outliers")
	assert.Contains(t, out, "Examples: 10\n")
}

func TestDeceasedAges_TooFewForOutliers(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "60", "Salta", "SI"),
		confirmed("F", "70", "Salta", "SI"),
		confirmed("F", "80", "Salta", "SI"),
	)

	res, err := DeceasedAges(context.Background(), repo, table)
	require.NoError(t, err)
	assert.False(t, res.Sufficient())
	assert.Nil(t, res.Outliers)
	assert.Contains(t, render(t, res), "Not enough data to detect outliers")
}

func TestBuildSturges(t *testing.T) {
	res := BuildSturges([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.Equal(t, 10, res.N)
	assert.Equal(t, 4, res.K)
	assert.Equal(t, 3, res.Width)
	require.Len(t, res.Classes, 4)
	counts := []int{}
	for _, c := range res.Classes {
		counts = append(counts, c.Count)
	}
	assert.Equal(t, []int{3, 3, 3, 1}, counts)
	assert.Equal(t, Interval{Lo: 9, Hi: 11}, res.Classes[3].Interval)
	assert.Zero(t, res.Unbinned)
}

func TestBuildSturges_ExactMultipleSpan(t *testing.T) {
	res := BuildSturges([]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 8})
	assert.Equal(t, 4, res.K)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 1, res.Unbinned)
	assert.Contains(t, render(t, res), "warning: 1 ages fall past the last interval")
}

func TestBuildSturges_Empty(t *testing.T) {
	res := BuildSturges(nil)
	assert.Zero(t, res.N)
	assert.Empty(t, res.Classes)
	assert.Contains(t, render(t, res), "Not enough data")
}

func TestBuildSturges_SingleAge(t *testing.T) {
	res := BuildSturges([]int{40, 40, 40})
	assert.Equal(t, 3, res.K)
	assert.Equal(t, 1, res.Width, "a zero span still gets unit-wide classes")
	assert.Equal(t, []IntervalCount{
		{Interval: Interval{Lo: 40, Hi: 40}, Count: 3},
		{Interval: Interval{Lo: 41, Hi: 41}},
		{Interval: Interval{Lo: 42, Hi: 42}},
	}, res.Classes)
	assert.Zero(t, res.Unbinned)
}

func TestSturgesHistogram_FiltersConfirmedValidAges(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "25", "Salta", "NO"),
		confirmed("M", "30", "Salta", "NO"),
		confirmed("M", "130", "Salta", "NO"),
		confirmed("M", "-1", "Salta", "NO"),
		confirmed("M", "", "Salta", "NO"),
		kase("F", "40", "Salta", "NO", casostest.Discarded),
	)

	res, err := SturgesHistogram(context.Background(), repo, table)
	require.NoError(t, err)
	assert.Equal(t, 2, res.N)
	assert.Equal(t, 25, res.Min)
	assert.Equal(t, 30, res.Max)
	assert.Equal(t, 2, res.K)
	assert.Equal(t, 3, res.Width)
	require.Len(t, res.Classes, 2)
	assert.Equal(t, 1, res.Classes[0].Count)
	assert.Equal(t, 1, res.Classes[1].Count)
}

func TestSexAgeMortality(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "3", "Salta", "SI"),
		confirmed("F", "7", "Salta", "SI"),
		confirmed("F", "8", "Salta", "SI"),
		confirmed("F", "50", "Salta", "NO"),
		confirmed("M", "32", "Salta", "SI"),
		confirmed("M", "33", "Salta", "NO"),
		confirmed("M", "80", "Salta", "SI"),
		confirmed("M", "110", "Salta", "SI"),
	)

	res, err := SexAgeMortality(context.Background(), repo, table)
	require.NoError(t, err)
	require.Len(t, res.Bands, 21)

	assert.EqualValues(t, 1, res.Bands[0].DeceasedFemales)
	assert.EqualValues(t, 2, res.Bands[1].DeceasedFemales)
	assert.Zero(t, res.Bands[10].DeceasedFemales)

	b := res.Bands[6]
	assert.Equal(t, Interval{Lo: 30, Hi: 34}, b.Interval)
	assert.EqualValues(t, 2, b.TotalMales)
	assert.EqualValues(t, 1, b.DeceasedMales)
	assert.InDelta(t, 50, b.MaleFatality, 1e-9)
	assert.InDelta(t, 100, res.Bands[16].MaleFatality, 1e-9)

	assert.Equal(t, 1, res.PeakFemales)
	assert.Equal(t, 16, res.PeakMaleFatality)

	out := render(t, res)
	assert.Contains(t, out, "Interval with most deceased females: (5, 9)")
	assert.Contains(t, out, "Interval with highest male fatality: (80, 84)")
}

func TestSexAgeMortality_NoDataPeaksAtFirstBand(t *testing.T) {
	repo := casostest.Load(t)

	res, err := SexAgeMortality(context.Background(), repo, table)
	require.NoError(t, err)
	assert.Zero(t, res.PeakFemales)
	assert.Zero(t, res.PeakMaleFatality)
	for _, b := range res.Bands {
		assert.Zero(t, b.MaleFatality)
	}
}

func TestTopProvinceBySex_TieGoesToFirstName(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("F", "31", "Salta", "NO"),
		confirmed("F", "32", "Jujuy", "NO"),
		confirmed("F", "33", "Jujuy", "NO"),
		confirmed("M", "34", "Chaco", "NO"),
		kase("M", "35", "Salta", "NO", casostest.Discarded),
		kase("M", "36", "Salta", "NO", casostest.Discarded),
	)

	res, err := TopProvinceBySex(context.Background(), repo, table)
	require.NoError(t, err)
	require.NotNil(t, res.Female)
	assert.Equal(t, ProvinceCount{Province: "Jujuy", Count: 2}, *res.Female)
	require.NotNil(t, res.Male)
	assert.Equal(t, ProvinceCount{Province: "Chaco", Count: 1}, *res.Male)

	assert.Contains(t, render(t, res), "among females: Jujuy (2 cases)")
}

func TestTopProvinceBySex_NoConfirmed(t *testing.T) {
	repo := casostest.Load(t, confirmed("F", "30", "Salta", "NO"))

	res, err := TopProvinceBySex(context.Background(), repo, table)
	require.NoError(t, err)
	assert.NotNil(t, res.Female)
	assert.Nil(t, res.Male)
	assert.Contains(t, render(t, res), "No confirmed cases found for males.")
}

const provinceCensus = `provincia,poblacion
Córdoba,1000
Salta,500
Tierra del Fuego,100
`

func ratioCases() []casostest.Case {
	return []casostest.Case{
		confirmed("F", "30", "Córdoba", "SI"),
		confirmed("M", "31", "Córdoba", "NO"),
		confirmed("F", "32", "Salta", "SI"),
		confirmed("M", "33", "Salta", "si"),
		confirmed("M", "34", "Narnia", "NO"),
		kase("M", "35", "Salta", "SI", casostest.Discarded),
	}
}

func TestLowestConfirmedRatio(t *testing.T) {
	repo := casostest.Load(t, ratioCases()...)
	pop, err := census.Read(strings.NewReader(provinceCensus))
	require.NoError(t, err)

	res, err := LowestConfirmedRatio(context.Background(), repo, table, pop)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	best, ok := res.Winner()
	require.True(t, ok)
	assert.Equal(t, "Córdoba", best.Province)
	assert.InDelta(t, 0.2, best.Percent, 1e-9)
	assert.Equal(t, "Salta", res.Rows[1].Province)
	assert.InDelta(t, 0.4, res.Rows[1].Percent, 1e-9)
	assert.Equal(t, []string{"Narnia"}, res.Unmatched)

	out := render(t, res)
	assert.Equal(t, 1, strings.Count(out, "warning: province not found in census: Narnia\n"))
	assert.Equal(t, 1, strings.Count(out, "warning:"))
	assert.NotContains(t, out, "Tierra del Fuego")
	assert.Contains(t, out, "lowest confirmed ratio: Córdoba (0.20 %)")
}

func TestHighestDeceasedRatio(t *testing.T) {
	repo := casostest.Load(t, ratioCases()...)
	pop, err := census.Read(strings.NewReader(provinceCensus))
	require.NoError(t, err)

	res, err := HighestDeceasedRatio(context.Background(), repo, table, pop)
	require.NoError(t, err)
	best, ok := res.Winner()
	require.True(t, ok)
	assert.Equal(t, "Salta", best.Province)
	assert.EqualValues(t, 2, best.Count)
	assert.InDelta(t, 0.4, best.Percent, 1e-9)
	assert.Empty(t, res.Unmatched)
	assert.Contains(t, render(t, res), "highest deceased ratio: Salta (0.40 %)")
}

func TestRatio_NoMatchedProvince(t *testing.T) {
	repo := casostest.Load(t, confirmed("F", "30", "Narnia", "NO"))
	pop, err := census.Read(strings.NewReader(provinceCensus))
	require.NoError(t, err)

	res, err := LowestConfirmedRatio(context.Background(), repo, table, pop)
	require.NoError(t, err)
	_, ok := res.Winner()
	assert.False(t, ok)
	assert.Contains(t, render(t, res), "Not enough data")
}

func TestJoinPopulation_TiesByName(t *testing.T) {
	pop, err := census.Read(strings.NewReader("provincia,poblacion\nB,100\nA,100\nC,0\n"))
	require.NoError(t, err)

	res := joinPopulation("confirmed", false, []Count{{Label: "B", N: 5}, {Label: "A", N: 5}, {Label: "C", N: 1}}, pop)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "A", res.Rows[0].Province)
	assert.Equal(t, "B", res.Rows[1].Province)
	assert.Equal(t, []string{"C"}, res.Unmatched)
}

func TestLowestConfirmedRatio_MergesProvinceSpellings(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("F", "31", "Salta ", "NO"),
		confirmed("F", "32", "Cordoba", "NO"),
		confirmed("F", "33", "Córdoba", "NO"),
		confirmed("M", "34", "Córdoba", "NO"),
		confirmed("M", "35", "Narnia", "NO"),
		confirmed("M", "36", " narnia", "NO"),
	)
	pop, err := census.Read(strings.NewReader(provinceCensus))
	require.NoError(t, err)

	res, err := LowestConfirmedRatio(context.Background(), repo, table, pop)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Córdoba", res.Rows[0].Province)
	assert.EqualValues(t, 3, res.Rows[0].Count)
	assert.EqualValues(t, 1000, res.Rows[0].Population)
	assert.InDelta(t, 0.3, res.Rows[0].Percent, 1e-9)
	assert.Equal(t, "Salta", res.Rows[1].Province)
	assert.EqualValues(t, 2, res.Rows[1].Count)
	assert.InDelta(t, 0.4, res.Rows[1].Percent, 1e-9)
	assert.Len(t, res.Unmatched, 1)
}

const sexCensus = `provincia,sexo,poblacion
Salta,F,100
Salta,M,200
Córdoba,F,100
`

func TestConfirmedIndexBySex(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("F", "31", "Salta", "NO"),
		confirmed("M", "32", "Salta", "NO"),
		confirmed("M", "33", "Salta", "NO"),
		confirmed("F", "34", "Córdoba", "NO"),
		confirmed("M", "35", "Córdoba", "NO"),
		confirmed("X", "36", "Salta", "NO"),
	)
	pop, err := census.Read(strings.NewReader(sexCensus))
	require.NoError(t, err)

	res, err := ConfirmedIndexBySex(context.Background(), repo, table, pop)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Córdoba", res.Rows[0].Province)
	assert.EqualValues(t, 1, res.Rows[0].F.Confirmed)
	assert.EqualValues(t, 100, res.Rows[0].F.Population)
	assert.InDelta(t, 1.0, res.Rows[0].F.Index, 1e-9)
	assert.Zero(t, res.Rows[0].M)
	assert.Equal(t, "Salta", res.Rows[1].Province)

	assert.EqualValues(t, 3, res.TotalF.Confirmed)
	assert.EqualValues(t, 200, res.TotalF.Population)
	assert.InDelta(t, 1.5, res.TotalF.Index, 1e-9)
	assert.InDelta(t, 1.0, res.TotalM.Index, 1e-9)
	assert.Equal(t, VerdictFemales, res.Verdict)
	assert.Equal(t, []census.Key{{Province: "Córdoba", Sex: "M"}}, res.Unmatched)

	out := render(t, res)
	assert.Equal(t, 1, strings.Count(out, "warning:"))
	assert.Contains(t, out, "Higher confirmed index among: FEMALES")
}

func TestConfirmedIndexBySex_MissingSexPopulation(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("M", "32", "Salta", "NO"),
	)
	pop, err := census.Read(strings.NewReader("provincia,sexo,poblacion\nSalta,F,100\n"))
	require.NoError(t, err)

	res, err := ConfirmedIndexBySex(context.Background(), repo, table, pop)
	require.NoError(t, err)
	assert.Equal(t, VerdictInsufficient, res.Verdict)
	assert.Contains(t, render(t, res), "Not enough data")
}

func TestVerdict(t *testing.T) {
	cell := func(n, p int64) SexCell { return SexCell{Confirmed: n, Population: p, Index: Percent(n, p)} }
	assert.Equal(t, VerdictEqual, verdict(cell(1, 100), cell(2, 200)))
	assert.Equal(t, VerdictMales, verdict(cell(1, 100), cell(3, 200)))
	assert.Equal(t, VerdictFemales, verdict(cell(5, 100), cell(3, 200)))
	assert.Equal(t, VerdictInsufficient, verdict(cell(0, 0), cell(3, 200)))
}

func TestDiagnose(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("F", "30", "Salta", "NO"),
		confirmed("", "41", "Salta", "NO"),
		kase("M", "40", "Salta", "NO", casostest.Discarded),
	)

	res, err := Diagnose(context.Background(), repo, table)
	require.NoError(t, err)
	assert.Equal(t, []Count{{Label: "", N: 1}, {Label: "F", N: 2}, {Label: "M", N: 1}}, res.BySex)
	assert.Equal(t, []Count{{Label: casostest.Confirmed, N: 3}}, res.ConfirmedByClass)
	assert.Equal(t, []Count{{Label: "", N: 1}, {Label: "F", N: 2}}, res.ConfirmedBySex)
	assert.EqualValues(t, 1, res.Duplicates)

	out := render(t, res)
	assert.Contains(t, out, `- "F": 2 rows`)
	assert.Contains(t, out, "Exact duplicate rows: 1")
}

func TestClassificationValues(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("M", "31", "Salta", "NO"),
		kase("M", "40", "Salta", "NO", casostest.Discarded),
		kase("M", "40", "Salta", "NO", ""),
	)

	res, err := ClassificationValues(context.Background(), repo, table)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{casostest.Confirmed, casostest.Discarded}, res.Values)
	assert.Contains(t, render(t, res), `"Caso Descartado"`)
}

func TestRun_UnknownReport(t *testing.T) {
	repo := casostest.Load(t)

	err := Run(context.Background(), repo, "42", Options{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownReport))
}

func TestRun_PrintsTitle(t *testing.T) {
	repo := casostest.Load(t, confirmed("F", "", "Salta", "NO"))

	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), repo, " 2 ", Options{}, &buf))
	out := buf.String()
	assert.Contains(t, out, "Report 2: Missing age rate")
	assert.Contains(t, out, "Missing percentage:  100.00%")
}

func TestRun_MissingCensusIsNotAnError(t *testing.T) {
	repo := casostest.Load(t, confirmed("F", "30", "Salta", "NO"))
	missing := filepath.Join(t.TempDir(), "nope.csv")

	for _, id := range []string{"7", "8", "9"} {
		var buf bytes.Buffer
		err := Run(context.Background(), repo, id, Options{ProvinceCensusPath: missing, SexCensusPath: missing}, &buf)
		require.NoError(t, err, id)
		assert.Contains(t, buf.String(), "Census file "+missing+" not found.", id)
	}
}

func TestRun_SexReportNeedsSexColumn(t *testing.T) {
	repo := casostest.Load(t, confirmed("F", "30", "Salta", "NO"))
	path := writeFile(t, "censo.csv", provinceCensus)

	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), repo, "9", Options{SexCensusPath: path}, &buf))
	assert.Contains(t, buf.String(), `has no "sexo" column`)
}

func TestRun_AllReportsOnLoadedTable(t *testing.T) {
	repo := casostest.Load(t, ratioCases()...)
	opt := Options{
		ProvinceCensusPath: writeFile(t, "provincias.csv", provinceCensus),
		SexCensusPath:      writeFile(t, "sexo.csv", sexCensus),
	}

	for _, r := range All() {
		var buf bytes.Buffer
		require.NoError(t, Run(context.Background(), repo, r.ID, opt, &buf), r.ID)
		assert.Contains(t, buf.String(), "Report "+r.ID+": "+r.Title, r.ID)
	}
}

func TestRun_MissingTableFails(t *testing.T) {
	repo := casostest.NewStore(t)

	err := Run(context.Background(), repo, "2", Options{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report 2:")
}

func TestLookupAndIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "89", "99"}, IDs())
	r, ok := Lookup("89")
	require.True(t, ok)
	assert.Equal(t, "Sex and confirmation diagnosis", r.Title)
	_, ok = Lookup("0")
	assert.False(t, ok)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_PropagatesWriteError(t *testing.T) {
	results := []Result{
		MissingResult{Total: 1},
		BuildSturges([]int{1, 2, 3}),
		TopProvinceResult{},
		DiagnosisResult{},
		ClassificationResult{Values: []string{"x"}},
	}
	for _, r := range results {
		assert.EqualError(t, r.Render(failWriter{}), "disk full")
	}
}

func TestRun_TitleWriteError(t *testing.T) {
	repo := casostest.Load(t)

	err := Run(context.Background(), repo, "1", Options{}, failWriter{})
	assert.EqualError(t, err, "report 1: render: disk full")
}

func TestConfirmedIndexBySex_MergesProvinceSpellings(t *testing.T) {
	repo := casostest.Load(t,
		confirmed("F", "30", "Salta", "NO"),
		confirmed("F", "31", "Salta ", "NO"),
		confirmed("F", "32", "Cordoba", "NO"),
		confirmed("F", "33", "Córdoba", "NO"),
		confirmed("M", "34", "Córdoba", "NO"),
	)
	pop, err := census.Read(strings.NewReader("provincia,sexo,poblacion\nSalta,F,100\nSalta,M,100\nCórdoba,F,100\nCórdoba,M,100\n"))
	require.NoError(t, err)

	res, err := ConfirmedIndexBySex(context.Background(), repo, table, pop)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Córdoba", res.Rows[0].Province)
	assert.EqualValues(t, 2, res.Rows[0].F.Confirmed)
	assert.EqualValues(t, 1, res.Rows[0].M.Confirmed)
	assert.Equal(t, "Salta", res.Rows[1].Province)
	assert.EqualValues(t, 2, res.Rows[1].F.Confirmed)
	assert.EqualValues(t, 100, res.Rows[1].F.Population)

	assert.EqualValues(t, 4, res.TotalF.Confirmed)
	assert.EqualValues(t, 200, res.TotalF.Population)
	assert.EqualValues(t, 1, res.TotalM.Confirmed)
	assert.EqualValues(t, 100, res.TotalM.Population)
	assert.Equal(t, VerdictFemales, res.Verdict)
	assert.Empty(t, res.Unmatched)
}
