// Package export defines the outbound port for transaction exports.
package export

import (
	"context"

	"github.com/AlynxNeko/sangu/internal/core"
)

// TransactionWriter appends a transaction row to the external export target
// and returns a reference to the written row.
type TransactionWriter interface {
	Append(ctx context.Context, t *core.Transaction) (rowRef string, err error)
}
