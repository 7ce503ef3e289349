/*
Package changepoint holds a number of application level constants and shared
resources for the changepoint detection service.
*/
package changepoint

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	QueueName = "changepoint.service"

	DefaultNumWorkers    = 2
	DefaultQueueCapacity = 1024
	DefaultServicePort   = 3000
	DefaultServicePrefix = "rest"
)
