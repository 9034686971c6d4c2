// Package session
// Author: momentics <momentics@gmail.com>
//
// Echo session lifecycle: greeting, in-order echo loop, absolute idle
// deadline and the closing handshake. One Session per upgraded connection,
// owned exclusively by the goroutine running Handler.Serve.
//
// The deadline is fixed when the session starts and is never refreshed by
// traffic. A sliding inactivity window would be a different policy; do not
// "fix" it here.
package session
