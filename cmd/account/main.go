// Package main provides the account service binary: the HTTP API plus
// console commands for operators.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	account "github.com/appquarium/go-account"
	"github.com/appquarium/go-account/config"
	"github.com/appquarium/go-account/metrics"
	"github.com/appquarium/go-account/notify"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *bun.DB
	store    *account.BunUserStore
	accounts *account.Accounts
	metrics  *metrics.Sink
	notifier *notify.KafkaNotifier
	activity *notify.KafkaActivitySink
}

func rootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	cmd := &cobra.Command{
		Use:           "account",
		Short:         "User account service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(a),
		migrateCmd(a),
		userCmd(a),
	)

	return cmd
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	a.db = db
	a.store = account.NewUserStore(db)
	a.metrics = metrics.NewSink()

	sinks := account.MultiActivitySink{a.metrics}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.ActivityTopic != "" {
		a.activity = notify.NewKafkaActivitySink(cfg.Kafka.Brokers, cfg.Kafka.ActivityTopic)
		sinks = append(sinks, a.activity)
	}

	a.accounts = account.NewAccounts(a.store, account.NewBcryptHasher(bcrypt.DefaultCost), cfg).
		WithLogger(a.logger).
		WithActivitySink(sinks)

	if len(cfg.Kafka.Brokers) > 0 {
		a.notifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.accounts.WithNotifier(a.notifier)
	}

	return nil
}

func (a *app) close() error {
	var errs []error
	if a.notifier != nil {
		errs = append(errs, a.notifier.Close())
	}
	if a.activity != nil {
		errs = append(errs, a.activity.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.CreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}

			opts := []account.HTTPControllerOption{
				account.WithControllerAccounts(a.accounts),
				account.WithControllerLogger(a.logger),
				account.WithControllerDebug(a.cfg.Debug),
			}
			if a.cfg.HTTP.Metrics {
				opts = append(opts, account.WithMetricsHandler(a.metrics.Handler()))
			}

			server := account.NewApp(account.NewHTTPController(opts...))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
				errCh <- server.Listen(a.cfg.HTTP.Addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down http server")
				return server.ShutdownWithTimeout(10 * time.Second)
			}
		},
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.CreateSchema(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("schema up to date")
			return nil
		},
	}
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <username> <email> [password]",
			Short: "Create an active user, generating a password when none is given",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				req := account.CreateUserRequest{Username: args[0], Email: args[1]}
				if len(args) == 3 {
					req.Password = args[2]
				}

				user, password, err := a.accounts.CreateUser(cmd.Context(), req)
				if err != nil {
					return describe(err)
				}

				cmd.Printf("created user %s (%s)\n", user.Username, user.ResourcePath())
				if len(args) < 3 {
					cmd.Printf("password: %s\n", password)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "activate <username>",
			Short: "Activate a pending user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.accounts.ActivateUser(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				cmd.Printf("activated user %s\n", user.Username)
				return nil
			},
		},
		roleCmd(a),
	)

	return cmd
}

func roleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Add or remove user roles",
	}

	change := func(use, short string, apply func(ctx context.Context, user *account.User, role string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username> <role>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.accounts.GetUserByUsername(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				if err := apply(cmd.Context(), user, args[1]); err != nil {
					return describe(err)
				}
				cmd.Printf("%s roles: %v\n", user.Username, user.Roles)
				return nil
			},
		}
	}

	cmd.AddCommand(
		change("add", "Grant a role", func(ctx context.Context, user *account.User, role string) error {
			return a.accounts.AddRole(ctx, user, role)
		}),
		change("remove", "Revoke a role", func(ctx context.Context, user *account.User, role string) error {
			return a.accounts.RemoveRole(ctx, user, role)
		}),
	)

	return cmd
}

// describe turns account errors into operator friendly messages
func describe(err error) error {
	public := account.PublicError(err)
	if field := account.FieldOf(public); field != "" {
		return fmt.Errorf("%s: %s", field, public.Message)
	}
	if account.KindOf(err) == "" {
		return err
	}
	return errors.New(public.Message)
}
