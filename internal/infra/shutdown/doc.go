// Package shutdown coordinates graceful process termination.
//
// Components register hooks with OnShutdown; Wait blocks until SIGINT,
// SIGTERM or an explicit Trigger and then runs the hooks newest first under
// one shared deadline:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(server.Stop)
//	if err := h.Wait(); err != nil { ... }
package shutdown
