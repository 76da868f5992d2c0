package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortSpec whitelists the order_by values of a list endpoint. Requested
// fields never reach SQL: they select one of the known columns.
type sortSpec struct {
	table   string
	columns map[string]string
}

// sortable accepts fields that are also column names, plus created_at
func sortable(table string, fields ...string) sortSpec {
	s := sortSpec{table: table, columns: map[string]string{"created_at": "created_at"}}
	for _, f := range fields {
		s.columns[f] = f
	}
	return s
}

// alias accepts field and sorts it by column
func (s sortSpec) alias(field, column string) sortSpec {
	s.columns[field] = column
	return s
}

// by orders on the requested field, created_at when unknown, then on the
// tiebreak columns. Only "asc" in any case sorts ascending.
func (s sortSpec) by(field, dir string, tiebreak ...string) clause.OrderBy {
	column, ok := s.columns[strings.TrimSpace(field)]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")

	order := clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Table: s.table, Name: column}, Desc: desc}}}
	for _, c := range tiebreak {
		if c != column {
			order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Table: s.table, Name: c}, Desc: desc})
		}
	}
	return order
}

var (
	userSort      = sortable("", "updated_at", "username", "last_name", "email", "last_login_at")
	operationSort = sortable("", "effective_date", "amount", "balance_after", "type")
	historySort   = sortable("cash_history", "effective_date", "amount", "balance_after", "action").alias("reference_number", "sequence").alias("reference", "sequence").alias("date", "effective_date")
	debtSort      = sortable("", "date_created", "creditor_name", "original_amount", "remaining_amount", "status")
	projectSort   = sortable("", "number", "name", "start_date", "estimated_budget", "expenditures", "receivables", "profit")
	documentSort  = sortable("", "number")
)
