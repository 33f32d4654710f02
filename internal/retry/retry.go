package retry

import (
	"time"

	"github.com/wb-go/wbf/retry"
)

// DefaultStrategy is shared by repositories and the Kafka producer.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2.0,
}

// FetchStrategy is used by the worker while waiting for new messages.
var FetchStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2.0,
}
