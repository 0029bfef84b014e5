package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/task"
)

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		times    int
	)
	cmd := &cobra.Command{
		Use:   "watch <writeup-id>",
		Short: "Poll a writeup and print it whenever it changes",
		Long: `Poll a writeup at a fixed interval, bypassing the read cache, and print it
whenever it changes. A poll that is still running when the next one is due is
skipped. Stops on interrupt or after --times polls.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.PollInterval.Std()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var (
				mu      sync.Mutex
				last    []byte
				polls   int
				lastErr error
			)
			poller := task.NewPoller(interval, func(ctx context.Context) error {
				w, err := a.api.GetWriteup(ctx, id, true)

				mu.Lock()
				defer mu.Unlock()
				polls++
				if times > 0 && polls >= times {
					defer cancel()
				}
				lastErr = err
				if err != nil {
					return err
				}
				cur, err := json.Marshal(w)
				if err != nil {
					return err
				}
				if string(cur) != string(last) {
					last = cur
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%s, %s)\n",
						time.Now().Format("15:04:05"), w.Title, w.Platform, w.Difficulty)
				}
				return nil
			}, a.logger)

			poller.Start(ctx)
			<-ctx.Done()
			poller.Stop()

			mu.Lock()
			defer mu.Unlock()
			if last == nil && lastErr != nil {
				return lastErr
			}
			return nil
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default from config)")
	cmd.Flags().IntVar(&times, "times", 0, "Stop after this many polls (0 polls until interrupted)")
	return cmd
}
