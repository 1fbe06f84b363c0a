package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"reviewhub/internal/ingest"
)

const interruptWarning = "upload in progress; press Ctrl-C again to abort"

// guardInterrupt installs a SIGINT handler for the duration of an upload.
// The returned func removes it.
func guardInterrupt(cmd *cobra.Command, sub *ingest.Submitter, cancel context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})

	go watchInterrupts(sigs, done,
		func() bool { return sub.State() == ingest.StateUploading },
		func() { cmd.PrintErrln(warnStyle.Render(interruptWarning)) },
		cancel,
	)

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// watchInterrupts cancels on the second interrupt received while uploading,
// or on the first one otherwise.
func watchInterrupts(sigs <-chan os.Signal, done <-chan struct{}, uploading func() bool, warn func(), cancel func()) {
	warned := false
	for {
		select {
		case <-done:
			return
		case <-sigs:
			if warned || !uploading() {
				cancel()
				return
			}
			warned = true
			warn()
		}
	}
}
