// Package drivers opens the scan history database behind one small
// interface, so the rest of the tree only ever sees a bun.DB.
package drivers

import "github.com/uptrace/bun"

type Driver interface {
	GetDB() *bun.DB
}
