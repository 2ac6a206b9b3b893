// README: Operator CLI for schema migration, ride lookup, conversation reset and Twilio log purge.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"ridesafe/internal/config"
	"ridesafe/internal/infra"
	"ridesafe/internal/logging"
	"ridesafe/internal/modules/conversation"
	"ridesafe/internal/modules/notify"
	"ridesafe/internal/modules/ride"
	"ridesafe/internal/types"
)

const usage = `usage: ridesafe-admin <command> [flags]

commands:
  migrate                                  apply the database schema
  rides --phone +15550001111 [--limit 20]  list recent rides for a phone
  reset --phone +15550001111               clear an in-progress conversation
  purge-messages --after 2025-01-08 [--dry-run]
                                           delete Twilio message logs sent after a date
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(out)
	phone := fs.String("phone", "", "phone number in E.164 form")
	limit := fs.Int("limit", 20, "maximum rides to list")
	after := fs.String("after", "", "purge messages sent after this date (YYYY-MM-DD)")
	dryRun := fs.Bool("dry-run", false, "count messages without deleting them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	switch cmd {
	case "migrate":
		db, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := infra.Migrate(ctx, db); err != nil {
			return err
		}
		fmt.Fprintln(out, "schema applied")
		return nil

	case "rides":
		if *phone == "" {
			return fmt.Errorf("%w: rides needs --phone", errUsage)
		}
		db, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		rides, err := ride.NewStore(db).ListByPhone(ctx, types.Phone(*phone), *limit)
		if err != nil {
			return err
		}
		printRides(out, rides)
		return nil

	case "reset":
		if *phone == "" {
			return fmt.Errorf("%w: reset needs --phone", errUsage)
		}
		db, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := conversation.NewPostgresStore(db).Reset(ctx, types.Phone(*phone)); err != nil {
			return err
		}
		logger.Info("conversation reset", "phone", *phone)
		fmt.Fprintln(out, "conversation cleared for", *phone)
		return nil

	case "purge-messages":
		since, err := time.Parse(time.DateOnly, *after)
		if err != nil {
			return fmt.Errorf("%w: --after must be YYYY-MM-DD", errUsage)
		}
		tw, err := notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			return err
		}
		res, err := tw.PurgeMessages(ctx, since, *dryRun)
		if *dryRun {
			fmt.Fprintf(out, "%d messages would be deleted\n", res.Matched)
		} else {
			fmt.Fprintf(out, "deleted %d of %d messages (%d failed)\n", res.Deleted, res.Matched, res.Failed)
		}
		return err

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DB.DSN == "" {
		return nil, errors.New("RIDESAFE_DB_DSN is required")
	}
	return infra.NewDB(ctx, cfg.DB.DSN)
}

func printRides(out io.Writer, rides []ride.Ride) {
	if len(rides) == 0 {
		fmt.Fprintln(out, "no rides")
		return
	}
	for _, r := range rides {
		fmt.Fprintf(out, "#%d  %s  %s -> %s  (%s)\n",
			r.ID, r.CreatedAt.Format(time.DateTime), r.Pickup, r.Destination, r.TravelTime)
	}
}
