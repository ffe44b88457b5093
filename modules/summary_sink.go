package modules

import (
	"context"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
)

type SummarySink interface {
	Submit(ctx context.Context, summary structs.Summary) error
}
