// Package repository holds the PostgreSQL data access for the helpdesk. Every repository resolves its
// querier through persistence.QuerierFromCtx so it joins a transaction started by the TxManager.
package repository

import (
	"github.com/Masterminds/squirrel"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}
