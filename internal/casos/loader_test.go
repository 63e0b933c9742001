package casos_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covideda/internal/casos"
	"covideda/internal/casos/casostest"
	"covideda/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(t *testing.T, repo storage.Repository) int {
	t.Helper()
	var n int
	require.NoError(t, repo.QueryRow(context.Background(), "SELECT COUNT(*) FROM casos").Scan(&n))
	return n
}

func sampleCases(n int) []casostest.Case {
	out := make([]casostest.Case, n)
	for i := range out {
		out[i] = casostest.Case{Sexo: "F", Edad: "40", Provincia: "Salta", Fallecido: "NO", Clasificacion: casostest.Confirmed}
	}
	return out
}

func TestLoadReader_InsertsWellFormedRows(t *testing.T) {
	repo := casostest.NewStore(t)
	data := casostest.CSV(t, sampleCases(7)...)

	sum, err := casos.LoadReader(context.Background(), repo, bytes.NewReader(data), casos.LoadOptions{BatchSize: 3})
	require.NoError(t, err)

	assert.EqualValues(t, 7, sum.Read)
	assert.EqualValues(t, 7, sum.Inserted)
	assert.EqualValues(t, 0, sum.Skipped)
	assert.EqualValues(t, 3, sum.Batches)
	assert.NotEqual(t, [16]byte{}, [16]byte(sum.RunID))
	assert.Equal(t, 7, count(t, repo))
}

func TestLoadReader_SkipsWrongArity(t *testing.T) {
	repo := casostest.NewStore(t)
	data := string(casostest.CSV(t, sampleCases(3)...))
	data += "F,40,too,short\n"
	data += strings.Repeat("x,", 12) + "x\n" // 13 fields

	sum, err := casos.LoadReader(context.Background(), repo, strings.NewReader(data), casos.LoadOptions{})
	require.NoError(t, err)

	assert.EqualValues(t, 5, sum.Read)
	assert.EqualValues(t, 3, sum.Inserted)
	assert.EqualValues(t, 2, sum.Skipped)
	assert.Equal(t, 3, count(t, repo))
	assert.Contains(t, sum.String(), "loaded 3 rows into casos (2 skipped, 5 read)")
}

func TestLoad_ReloadReplacesTable(t *testing.T) {
	repo := casostest.NewStore(t)
	path := filepath.Join(t.TempDir(), "casos.csv")
	require.NoError(t, os.WriteFile(path, casostest.CSV(t, sampleCases(4)...), 0o644))

	for i := 0; i < 2; i++ {
		_, err := casos.Load(context.Background(), repo, path, casos.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, 4, count(t, repo), "load #%d", i+1)
	}
}

func TestLoadReader_KeepsValuesVerbatim(t *testing.T) {
	repo := casostest.Load(t, casostest.Case{Sexo: "NR", Edad: "", Provincia: " Córdoba ", Fallecido: "si", Clasificacion: "Sospechoso"})

	var sexo, edad, prov, fallecido string
	require.NoError(t, repo.QueryRow(context.Background(),
		"SELECT sexo, edad, residencia_provincia_nombre, fallecido FROM casos").Scan(&sexo, &edad, &prov, &fallecido))
	assert.Equal(t, "NR", sexo)
	assert.Equal(t, "", edad)
	assert.Equal(t, " Córdoba ", prov)
	assert.Equal(t, "si", fallecido)
}

func TestLoad_MissingFile(t *testing.T) {
	repo := casostest.NewStore(t)
	_, err := casos.Load(context.Background(), repo, filepath.Join(t.TempDir(), "nope.csv"), casos.LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// failingRepo delegates to a real store but hands out transactions whose
// second batch fails.
type failingRepo struct {
	storage.Repository
	tx *failingTx
}

func (r *failingRepo) Begin(ctx context.Context) (storage.Tx, error) {
	inner, err := r.Repository.Begin(ctx)
	if err != nil {
		return nil, err
	}
	r.tx = &failingTx{Tx: inner}
	return r.tx, nil
}

type failingTx struct {
	storage.Tx
	calls      int
	rolledBack bool
}

func (t *failingTx) CopyFrom(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	t.calls++
	if t.calls == 2 {
		return 0, errors.New("disk full")
	}
	return t.Tx.CopyFrom(ctx, table, cols, rows)
}

func (t *failingTx) Rollback() error {
	t.rolledBack = true
	return t.Tx.Rollback()
}

func TestLoadReader_RollsBackOnError(t *testing.T) {
	repo := &failingRepo{Repository: casostest.NewStore(t)}
	data := casostest.CSV(t, sampleCases(5)...)

	_, err := casos.LoadReader(context.Background(), repo, bytes.NewReader(data), casos.LoadOptions{BatchSize: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, repo.tx)
	assert.True(t, repo.tx.rolledBack)
	assert.Equal(t, 0, count(t, repo))
}

func TestCreateTable_Empties(t *testing.T) {
	repo := casostest.Load(t, sampleCases(2)...)
	require.NoError(t, casos.CreateTable(context.Background(), repo, ""))
	assert.Equal(t, 0, count(t, repo))
}

func TestSchema(t *testing.T) {
	require.Equal(t, 12, casos.FieldCount)
	names := casos.ColumnNames()
	assert.Equal(t, "sexo", names[0])
	assert.Equal(t, "fecha_diagnostico", names[11])
	assert.Equal(t, storage.KindInteger, casos.ColumnDefs()[1].Kind)
}

func TestLoadReader_VerboseLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	repo := casostest.NewStore(t)
	data := casostest.CSV(t, sampleCases(6)...)

	_, err := casos.LoadReader(context.Background(), repo, bytes.NewReader(data), casos.LoadOptions{Verbose: true, ProgressEvery: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(buf.String(), "reader: "))

	buf.Reset()
	_, err = casos.LoadReader(context.Background(), repo, bytes.NewReader(data), casos.LoadOptions{ProgressEvery: 2})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "reader: ")
}
