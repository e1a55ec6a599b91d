package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:               "watch",
	Short:             "Print value and type changes as they happen",
	GroupID:           "values",
	Args:              cobra.NoArgs,
	PersistentPreRunE: localCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		objectID, _ := cmd.Flags().GetString("object")
		if natsURL == "" {
			return fmt.Errorf("no NATS URL (set --nats-url or DATED_VALUES_NATS_URL)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		msgs, cancel, err := sub.Subscribe(events.SubjectAll)
		if err != nil {
			return err
		}
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-msgs:
				if !ok {
					return nil
				}
				printEvent(os.Stdout, m, objectID)
			}
		}
	},
}

// printEvent writes one line per event. When objectID is set, value events
// for other objects are skipped.
func printEvent(w io.Writer, m events.Message, objectID string) {
	event, err := events.Decode(m)
	if err != nil {
		return
	}
	if objectID != "" {
		if id := events.ObjectID(event); id != "" && id != objectID {
			return
		}
	}
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", m.Topic, m.Data)
		return
	}

	action := ui.RenderHeader(m.Action())
	switch e := event.(type) {
	case *events.ValueCreated:
		printValueEvent(w, action, e.Value, e.Actor)
	case *events.ValueUpdated:
		printValueEvent(w, action, e.Value, e.Actor)
	case *events.ValueDeleted:
		fmt.Fprintf(w, "%s value type=%d object=%s date=%s%s\n",
			action, e.TypeID, e.ObjectID, model.DateKey(e.Date), actorSuffix(e.Actor))
	case *events.TypeCreated:
		printTypeEvent(w, action, e.Type)
	case *events.TypeUpdated:
		printTypeEvent(w, action, e.Type)
	case *events.TypeDeleted:
		fmt.Fprintf(w, "%s type %d\n", action, e.TypeID)
	}
}

func printValueEvent(w io.Writer, action string, v *model.DatedValue, actor string) {
	if v == nil {
		return
	}
	fmt.Fprintf(w, "%s value type=%d object=%s date=%s value=%s%s\n",
		action, v.TypeID, v.ObjectID, v.DateKey(), v.Value.Decimal.String(), actorSuffix(actor))
}

func printTypeEvent(w io.Writer, action string, vt *model.ValueType) {
	if vt == nil {
		return
	}
	fmt.Fprintf(w, "%s type %d %s (%s)\n", action, vt.ID, vt.Slug, vt.ObjectKind)
}

func actorSuffix(actor string) string {
	if actor == "" {
		return ""
	}
	return " by " + actor
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("DATED_VALUES_NATS_URL"), "NATS server URL")
	watchCmd.Flags().String("object", "", "only show values of this object id")
}
