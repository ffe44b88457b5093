package modules

import (
	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
)

type CounterTable interface {
	// ForEach reports every port of a table snapshot to fn. Errors passed to fn
	// concern a single port; the returned error means the table could not be read.
	ForEach(fn func(counter structs.PortCounter, err error)) error
}
