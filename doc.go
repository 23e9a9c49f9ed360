/*
Package arvis is the trigger/action-chain engine of a keyboard launcher.

Extensions declare commands in a manifest. A command is either a keyword (a
typed word that runs actions), a script filter (a script that turns typed text
into result rows) or a hotkey. Activating a row runs an action chain: scripts,
URL opens, clipboard writes, argument rewrites and nested triggers that open a
new interactive mode on top of the current one.

# Architecture

The engine (internal/runtime) owns the trigger stack and runs on a single
goroutine behind a scheduler. Side effects live in adapters behind ports:

  - pkg/adapters/manifest loads extensions from arvis-workflow / arvis-plugin manifests.
  - pkg/adapters/process runs scripts through a shell, with timeouts and process group kill.
  - pkg/adapters/dispatch executes immediate actions.
  - pkg/adapters/memory and pkg/adapters/redis keep input history.
  - pkg/session is the host: it owns the visible rows and routes user gestures.
  - pkg/adapters/http serves a session over HTTP.
  - pkg/adapters/mcp serves a session to MCP clients over stdio.

# Usage

	l, err := arvis.New(arvis.WithExtensionsDir("/home/me/.config/arvis/extensions"))
	if err != nil {
		log.Fatal(err)
	}
	defer l.Close()

	ctx := context.Background()
	s := l.Session()
	_ = s.Type(ctx, "gh react")  // starts the "gh" script filter
	view, _ := s.Snapshot(ctx)   // rows arrive asynchronously
	_ = s.Press(ctx, 0, nil)     // runs the chain of the first row
	_ = view
*/
package arvis
