// pkg/cleaner/referential_test.go
package cleaner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

func TestCheckReferential(t *testing.T) {
	t.Parallel()

	spec := model.TableSpec{
		Name:            "fato_processos",
		Fact:            true,
		ReferentialKeys: []string{"id_pessoa", "id_juiz", "id_advogado"},
	}

	t.Run("drops rows with any null key", func(t *testing.T) {
		t.Parallel()
		c, rec := newTestCleaner(t)
		ds := mustDataset(t, "fato_processos", []model.Column{
			{Name: "id_pessoa", Kind: model.KindInteger, Cells: []model.Cell{
				model.IntCell(1), model.NullCell(model.KindInteger), model.IntCell(3), model.IntCell(4),
			}},
			{Name: "id_juiz", Kind: model.KindInteger, Cells: []model.Cell{
				model.IntCell(1), model.IntCell(2), model.NullCell(model.KindInteger), model.IntCell(4),
			}},
			{Name: "id_advogado", Kind: model.KindInteger, Cells: []model.Cell{
				model.IntCell(1), model.IntCell(2), model.IntCell(3), model.IntCell(4),
			}},
		})

		dropped, err := c.checkReferential(context.Background(), ds, spec)
		require.NoError(t, err)
		require.Equal(t, 2, dropped)
		require.Equal(t, 2, ds.RowCount())

		// Surviving rows keep their original order.
		require.Equal(t, int64(1), ds.Columns[0].Cells[0].Value)
		require.Equal(t, int64(4), ds.Columns[0].Cells[1].Value)

		require.Len(t, rec.entries, 1)
		require.Equal(t, audit.ActionValidation, rec.entries[0].Action)
		require.Equal(t, audit.StatusWarning, rec.entries[0].Status)
		require.Equal(t, 4, rec.entries[0].RowsProcessed)
		require.Contains(t, rec.entries[0].Details, "removidos: 2")
	})

	t.Run("intact keys yield SUCESSO", func(t *testing.T) {
		t.Parallel()
		c, rec := newTestCleaner(t)
		ds := mustDataset(t, "fato_processos", []model.Column{
			{Name: "id_pessoa", Kind: model.KindInteger, Cells: []model.Cell{model.IntCell(1)}},
			{Name: "id_juiz", Kind: model.KindInteger, Cells: []model.Cell{model.IntCell(2)}},
			{Name: "id_advogado", Kind: model.KindInteger, Cells: []model.Cell{model.IntCell(3)}},
		})

		dropped, err := c.checkReferential(context.Background(), ds, spec)
		require.NoError(t, err)
		require.Zero(t, dropped)
		require.Equal(t, audit.StatusSuccess, rec.entries[0].Status)
	})

	t.Run("missing key column is an error", func(t *testing.T) {
		t.Parallel()
		c, rec := newTestCleaner(t)
		ds := mustDataset(t, "fato_processos", []model.Column{
			{Name: "id_pessoa", Kind: model.KindInteger, Cells: []model.Cell{model.IntCell(1)}},
		})

		_, err := c.checkReferential(context.Background(), ds, spec)
		require.Error(t, err)
		require.Contains(t, err.Error(), "id_juiz")
		require.Empty(t, rec.entries)
	})

	t.Run("dimension tables are skipped", func(t *testing.T) {
		t.Parallel()
		c, rec := newTestCleaner(t)
		ds := mustDataset(t, "dim_pessoa", []model.Column{
			{Name: "id", Kind: model.KindInteger, Cells: []model.Cell{model.IntCell(1)}},
		})

		dropped, err := c.checkReferential(context.Background(), ds, model.TableSpec{Name: "dim_pessoa"})
		require.NoError(t, err)
		require.Zero(t, dropped)
		require.Empty(t, rec.entries)
	})
}
