package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/ui"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "Follow inventory events",
	GroupID: "system",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch [topic]",
	Short: "Print events from the bus as they arrive",
	Long: `Print events from the bus as they arrive.

The topic defaults to every inventory event and accepts NATS wildcards,
e.g. "inventory.item.*".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return errors.New("events need a bus (set INVTRACK_NATS_URL)")
		}
		topic := events.TopicPrefix + ">"
		if len(args) == 1 {
			topic = args[0]
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("disconnected from NATS", "err", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("reconnected to NATS", "url", nc.ConnectedUrl())
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		logger.Info("watching events", "topic", topic)
		w := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				if jsonOutput {
					fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
					continue
				}
				fmt.Fprintf(w, "%s %s %s\n",
					ui.RenderMuted(time.Now().Format("15:04:05")),
					ui.RenderAccent(strings.TrimPrefix(msg.Topic, events.TopicPrefix)),
					compact(msg.Data))
			}
		}
	},
}

var eventsLogCmd = &cobra.Command{
	Use:         "log <inventory-id>",
	Short:       "Print the recorded events of an inventory",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsStore: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := svc.History(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), history)
		}
		w := cmd.OutOrStdout()
		for _, e := range history {
			fmt.Fprintf(w, "%s %s %-8s %s\n",
				ui.RenderMuted(e.CreatedAt.Format("2006-01-02 15:04:05")),
				ui.RenderAccent(strings.TrimPrefix(e.Topic, events.TopicPrefix)),
				e.Actor,
				compact(e.Payload))
		}
		return nil
	},
}

// compact renders a JSON payload on one line.
func compact(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

func init() {
	eventsCmd.AddCommand(eventsWatchCmd, eventsLogCmd)
}
