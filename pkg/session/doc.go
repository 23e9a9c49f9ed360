/*
Package session is the host side of a launcher: it owns what the user sees.

A Session registers itself as the engine's host, keeps the visible View (input,
rows, selection) and turns user gestures into engine calls:

  - Type routes text to the installed commands, or to the running script filter.
  - Press activates a row with the held modifier keys.
  - Back leaves the current mode.
  - Preview shows a row as it looks while a modifier is held.

Every call is marshalled onto the engine's scheduler, so a Session may be used
from any goroutine (an HTTP handler, a terminal reader) while the engine itself
stays single-threaded.
*/
package session
