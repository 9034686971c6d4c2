// Package shutdown
// Author: momentics <momentics@gmail.com>
//
// Process-wide graceful stop trigger. A Coordinator resolves once, on the
// first interrupt or termination request, and ignores every later signal.
// It never cancels running sessions; the serving layer decides how to drain.
package shutdown
