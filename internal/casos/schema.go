// Package casos owns the case table: its schema and the bulk loader that
// replaces its contents from a CSV export.
package casos

import "covideda/internal/storage"

// DefaultTable is the table name used when none is configured.
const DefaultTable = "casos"

// Column describes one field of a case record.
type Column struct {
	Name           string
	Type           string // Cualitativa / Cuantitativa
	Classification string // Nominal, Discreta, Binaria, Ordinal
	Kind           storage.ColumnKind
}

// Column names referenced by the reports.
const (
	ColSexo          = "sexo"
	ColEdad          = "edad"
	ColProvincia     = "residencia_provincia_nombre"
	ColFallecido     = "fallecido"
	ColClasificacion = "clasificacion"
)

// Columns is the case record layout, in CSV order.
var Columns = []Column{
	{ColSexo, "Cualitativa", "Nominal", storage.KindText},
	{ColEdad, "Cuantitativa", "Discreta", storage.KindInteger},
	{"edad_años_meses", "Cualitativa", "Nominal", storage.KindText},
	{"residencia_pais_nombre", "Cualitativa", "Nominal", storage.KindText},
	{ColProvincia, "Cualitativa", "Nominal", storage.KindText},
	{"residencia_departamento_nombre", "Cualitativa", "Nominal", storage.KindText},
	{"carga_provincia_nombre", "Cualitativa", "Nominal", storage.KindText},
	{ColFallecido, "Cualitativa", "Binaria", storage.KindText},
	{"asistencia_respiratoria_mecanica", "Cualitativa", "Binaria", storage.KindText},
	{"origen_financiamiento", "Cualitativa", "Nominal", storage.KindText},
	{ColClasificacion, "Cualitativa", "Nominal", storage.KindText},
	{"fecha_diagnostico", "Cualitativa", "Ordinal", storage.KindText},
}

// FieldCount is the exact number of fields a CSV row must have to be loaded.
var FieldCount = len(Columns)

// ColumnNames returns the column names in CSV order.
func ColumnNames() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnDefs returns the DDL definition of the case table.
func ColumnDefs() []storage.ColumnDef {
	out := make([]storage.ColumnDef, len(Columns))
	for i, c := range Columns {
		out[i] = storage.ColumnDef{Name: c.Name, Kind: c.Kind}
	}
	return out
}
