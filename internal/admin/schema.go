// Package admin exposes raw, allow-listed CRUD over the store's tables for
// the back-office editor.
package admin

import (
	"slices"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// ColumnKind drives how incoming JSON values are coerced.
type ColumnKind int

const (
	// Text columns accept strings; numbers are rendered as text.
	Text ColumnKind = iota
	// Real columns accept numbers or numeric strings.
	Real
)

// Column is one editable column.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table describes an allow-listed table. Identifiers in generated SQL only
// ever come from these definitions.
type Table struct {
	Name       string
	Columns    []Column
	DateColumn string
	// TextID tables carry client-visible string ids generated on insert.
	TextID bool
}

// ColumnNames lists id followed by the editable columns.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, "id")
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column looks up an editable column by name.
func (t Table) Column(name string) (Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

var tables = []Table{
	{
		Name:       "servicios",
		DateColumn: "fecha",
		Columns: []Column{
			{"sede", Text}, {"fecha", Text}, {"estilista", Text}, {"servicio", Text},
			{"valor", Real}, {"comision", Real}, {"metodo_pago", Text},
		},
	},
	{
		Name:       "productos",
		DateColumn: "fecha",
		Columns: []Column{
			{"sede", Text}, {"fecha", Text}, {"estilista", Text}, {"producto", Text}, {"marca", Text},
			{"descripcion", Text}, {"valor", Real}, {"comision", Real}, {"metodo_pago", Text},
		},
	},
	{
		Name:       "gastos",
		DateColumn: "fecha",
		Columns: []Column{
			{"sede", Text}, {"fecha", Text}, {"descripcion", Text}, {"valor", Real},
		},
	},
	{
		Name:       "inventario",
		DateColumn: "fecha_actualizacion",
		Columns: []Column{
			{"sede", Text}, {"producto", Text}, {"marca", Text}, {"descripcion", Text},
			{"cantidad", Real}, {"unidad", Text}, {"valor", Real}, {"estado", Text}, {"fecha_actualizacion", Text},
		},
	},
	{
		Name:       "citas",
		DateColumn: "fecha",
		TextID:     true,
		Columns: []Column{
			{"sede", Text}, {"fecha", Text}, {"hora", Text}, {"cliente", Text}, {"telefono", Text},
			{"servicio", Text}, {"notas", Text}, {"estado", Text},
		},
	},
	{
		Name:       "gastos_mensuales",
		DateColumn: "fecha_registro",
		Columns: []Column{
			{"sede", Text}, {"mes", Text}, {"tipo", Text}, {"valor", Real}, {"fecha_registro", Text},
		},
	},
}

// Lookup returns the allow-listed table called name.
func Lookup(name string) (Table, error) {
	i := slices.IndexFunc(tables, func(t Table) bool { return t.Name == name })
	if i < 0 {
		return Table{}, httpx.Errorf(httpx.ErrValidation, "Tabla no permitida")
	}
	return tables[i], nil
}

// TableNames lists the allow-listed tables.
func TableNames() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
