package sink

import (
	"github.com/you/flatcast/internal/core"
	"github.com/you/flatcast/internal/eventtrace"
)

// Writer receives normalized flat records. The trace may be nil.
type Writer interface {
	Write(core.Record, *eventtrace.Trace) error
}
