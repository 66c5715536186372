package sqlstore

import "github.com/goliatone/go-dataflow/core"

var (
	_ core.TransferStore = (*TransferStore)(nil)
	_ core.TransferStore = (*CachedTransferStore)(nil)
)
