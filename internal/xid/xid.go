package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed unique id, e.g. "sale-9f86d081-...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
