package services

import "time"

const (
	KeyAccount    = "account:%s"
	KeySlot       = "ledger:slot"
	KeyNonce      = "nonce:%s"
	ChannelEvents = "ledger:events"

	DefaultInvokeRetries = 16
	DefaultRetryBackoff  = 5 * time.Millisecond
)
