package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/clause"
)

func TestSortSpec_By(t *testing.T) {
	col := func(table, name string, desc bool) clause.OrderByColumn {
		return clause.OrderByColumn{Column: clause.Column{Table: table, Name: name}, Desc: desc}
	}

	t.Run("known field", func(t *testing.T) {
		order := debtSort.by("creditor_name", "asc")
		assert.Equal(t, []clause.OrderByColumn{col("", "creditor_name", false)}, order.Columns)
	})

	t.Run("unknown field falls back to created_at", func(t *testing.T) {
		order := debtSort.by("amount; DROP TABLE debts", "asc")
		assert.Equal(t, []clause.OrderByColumn{col("", "created_at", false)}, order.Columns)
	})

	t.Run("direction", func(t *testing.T) {
		for dir, desc := range map[string]bool{
			"asc":   false,
			" ASC ": false,
			"desc":  true,
			"":      true,
			"up":    true,
		} {
			order := projectSort.by("name", dir)
			assert.Equal(t, desc, order.Columns[0].Desc, dir)
		}
	})

	t.Run("tiebreak follows the direction", func(t *testing.T) {
		order := operationSort.by("amount", "asc", "id")
		assert.Equal(t, []clause.OrderByColumn{
			col("", "amount", false),
			col("", "id", false),
		}, order.Columns)
	})

	t.Run("reference number sorts by sequence", func(t *testing.T) {
		order := historySort.by("reference_number", "ASC", "sequence")
		assert.Equal(t, []clause.OrderByColumn{col("cash_history", "sequence", false)}, order.Columns)
	})

	t.Run("history short names", func(t *testing.T) {
		assert.Equal(t, "effective_date", historySort.by("date", "asc").Columns[0].Column.Name)
		assert.Equal(t, "sequence", historySort.by("reference", "asc").Columns[0].Column.Name)
	})

	t.Run("history defaults to newest first", func(t *testing.T) {
		order := historySort.by("", "", "sequence")
		assert.Equal(t, []clause.OrderByColumn{
			col("cash_history", "created_at", true),
			col("cash_history", "sequence", true),
		}, order.Columns)
	})
}
