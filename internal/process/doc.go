// Package process supervises the game server child process.
//
// Supervisor wraps os/exec for a single long-running child:
//   - stdin, stdout and stderr are piped; each output stream is read by its
//     own serverlog.Reader which classifies lines and hands them to a handler
//   - console commands are written to stdin with SendMessage
//   - Stop and Kill signal the child without waiting
//   - Shutdown sends the server's stop command, then escalates to SIGTERM
//     and SIGKILL when the child does not exit in time
//
// A Supervisor moves through NotStarted, Running and Exited exactly once.
// It is Exited as soon as the child is reaped. Done closes after the output
// readers drain, or after DrainTimeout when a descendant of the child still
// holds the output pipes open.
//
// Example:
//
//	sup := process.NewSupervisor(process.Options{
//	    Args:    []string{"java", "-jar", "server.jar", "nogui"},
//	    Handler: handler,
//	    Stdout:  os.Stdout,
//	    Stderr:  os.Stderr,
//	})
//	if err := sup.Start(); err != nil {
//	    return err
//	}
//	code, _ := sup.Wait(ctx)
package process
