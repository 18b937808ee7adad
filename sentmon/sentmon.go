// Package sentmon is the core of the sentmon supervisor, which launches
// a single worker process and keeps running until it is told to stop.
//
// Mechanism of Operation
//
// Sentinel Files
//
// The supervisor has no command channel of its own. Instead, it watches
// two well-known paths inside the configuration directory: "restart"
// and "stop". The mere existence of one of these files is the request;
// the stop file may additionally carry a decimal exit code on its first
// line. Anything able to create a file can drive the supervisor: an
// operator, a cron job, or the worker itself, which is told the two
// absolute paths through its environment.
//
// Every poll tick the supervisor checks both paths. A stop file wins
// over a restart file, since stopping supersedes restarting. The
// sentinel file is always deleted before the action it requests is
// carried out, so a supervisor crash mid-action cannot replay the
// request on the next run.
//
// Polling is the authority, but the supervisor also watches the
// configuration directory with inotify to shorten the latency: a
// sentinel file showing up nudges the loop into polling immediately
// rather than sleeping out the rest of the interval.
//
// Interrupts
//
// A terminal interrupt is shared with the worker's process group, so
// the worker performs its own orderly shutdown. The supervisor merely
// acknowledges the first Ctrl-C and keeps waiting. Further interrupts
// are swallowed while the worker is still running; once the worker is
// gone, the next interrupt force-exits the supervisor.
package sentmon
