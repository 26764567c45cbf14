package telemetry

import "fmt"

// MetricsError describes a failure while registering instruments
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("telemetry: %s: %s", e.Op, e.Err)
}

// ErrMeterNil is returned by NewBridgeMetrics when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "bridge metrics", Err: "meter cannot be nil"}
