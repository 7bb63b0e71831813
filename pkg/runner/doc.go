/*
Package runner drives a machine from a line-oriented stream.

Each input line names one or more events separated by spaces or commas.
The runner enqueues them, runs processing rounds until the machine stops
moving, and reports the resulting state. Between lines it keeps processing
events queued by timers, so a countdown advances without input.

# Key Components

  - Runner: the loop. It stops on EOF, a "quit" line, a finished machine or
    context cancellation.
  - TextHandler: interactive text with coloured output.
  - JSONHandler: JSON Lines for scripting and other processes.

# Usage

	r := runner.NewRunner(
		runner.WithHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, machine); err != nil {
		log.Fatal(err)
	}
*/
package runner
