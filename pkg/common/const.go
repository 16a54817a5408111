package common

const (
	// KEY_PENDING_CONTEXT keys unmatched strategy contexts by symbol and
	// decision timestamp in unix nanoseconds.
	KEY_PENDING_CONTEXT = "pending_context:%s:%d"
)

const (
	// MONTH_KEY_FORMAT is the (year, month) bucket layout used by monthly
	// return tables.
	MONTH_KEY_FORMAT = "2006-01"
)
