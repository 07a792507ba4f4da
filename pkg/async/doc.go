// Package async provides small future-style helpers for running and
// coordinating error-returning goroutines.
//
// Exec starts a function asynchronously and hands back an ExecFuture that can
// be awaited. ExecAny waits for whichever of several futures finishes first,
// ExecAll waits for all of them. The connection layer uses this pair to run a
// connection's inbound and outbound duties and react to whichever terminates
// first:
//
//	inbound := async.Exec(ctx, conn, a.readLoop)
//	outbound := async.Exec(ctx, conn, a.writeLoop)
//
//	_, _ = async.ExecAny(inbound, outbound) // first duty to stop
//	cancel()                                // stop the other one
//	_ = async.ExecAll(inbound, outbound)    // wait for both to unwind
package async
