// pkg/model/catalog.go
package model

// TableSpec describes one catalog table and how it must be validated.
// Fact tables carry referential key columns that are never imputed:
// a synthesized foreign key would silently corrupt joins, so rows with
// missing keys are dropped instead.
type TableSpec struct {
	Name            string
	Fact            bool
	ReferentialKeys []string
}

// DefaultCatalog returns the fixed list of tables processed per run, in
// processing order. Dimensions first, then the fact table that references
// them.
func DefaultCatalog() []TableSpec {
	return []TableSpec{
		{Name: "dim_pessoa"},
		{Name: "dim_juiz"},
		{Name: "dim_advogado"},
		{
			Name:            "fato_processos",
			Fact:            true,
			ReferentialKeys: []string{"id_pessoa", "id_juiz", "id_advogado"},
		},
	}
}

// CleaningStats summarizes one validation pass over a dataset. It is
// produced once per dataset and immutable once returned.
type CleaningStats struct {
	RowsInitial        int
	RowsFinal          int
	DuplicatesFound    int
	DuplicatesRemoved  int
	NullsFound         int
	NullsTreated       int
	ReferentialDropped int
}
