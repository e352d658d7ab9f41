// Command rankboard is the operator CLI for live ranked-match sessions.
//
// Usage:
//
//	rankboard session create --title "Friday 5v5" --duration 120 --team-a Red --team-b Blue
//	rankboard roster save --a "Faker=Hide on bush#KR1" --b "Chovy#KR1"
//	rankboard session start
//	rankboard poll
//	rankboard run
//	rankboard standings
//	rankboard session end
//	rankboard migrate
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/rankboard/internal/app"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/db"
	"github.com/albapepper/rankboard/internal/maintenance"
	"github.com/albapepper/rankboard/internal/session"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "rankboard",
		Short:         "Live 5v5 ranked-match session tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(sessionCmd())
	root.AddCommand(rosterCmd())
	root.AddCommand(pollCmd())
	root.AddCommand(runCmd())
	root.AddCommand(standingsCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// session command
// --------------------------------------------------------------------------

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, start, end and inspect sessions",
	}
	cmd.AddCommand(sessionCreateCmd())
	cmd.AddCommand(sessionTransitionCmd("start", "Start the clock on a pending session", (*session.Manager).Start))
	cmd.AddCommand(sessionTransitionCmd("end", "End (or cancel) a session", (*session.Manager).End))
	cmd.AddCommand(sessionStatusCmd())
	return cmd
}

func sessionCreateCmd() *cobra.Command {
	var (
		title    string
		duration int
		teamA    string
		teamB    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				s, err := a.Sessions.Create(ctx, title, duration, teamA, teamB)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created session %s (%s vs %s, %d min)\n",
					s.ID, s.TeamAName, s.TeamBName, s.DurationMinutes)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Session title")
	cmd.Flags().IntVar(&duration, "duration", 120, "Duration in minutes")
	cmd.Flags().StringVar(&teamA, "team-a", "Team A", "Display name of team A")
	cmd.Flags().StringVar(&teamB, "team-b", "Team B", "Display name of team B")
	return cmd
}

func sessionTransitionCmd(use, short string, fn func(*session.Manager, context.Context, string) (*session.Session, error)) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				sid, err := resolveSessionID(ctx, a, id)
				if err != nil {
					return err
				}
				s, err := fn(a.Sessions, ctx, sid)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s is %s\n", s.ID, s.Status())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "session", "", "Session ID (default: active session)")
	return cmd
}

func sessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				s, err := a.Sessions.Active(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if s == nil {
					fmt.Fprintln(out, "no active session")
					return nil
				}
				fmt.Fprintf(out, "%s  %q  %s vs %s  status=%s\n", s.ID, s.Title, s.TeamAName, s.TeamBName, s.Status())
				if s.StartedAt != nil {
					fmt.Fprintf(out, "started %s, deadline %s\n",
						s.StartedAt.Local().Format(time.Kitchen), s.Deadline().Local().Format(time.Kitchen))
				}
				if s.LastPolledAt != nil {
					fmt.Fprintf(out, "last polled %s ago\n", time.Since(*s.LastPolledAt).Round(time.Second))
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// roster command
// --------------------------------------------------------------------------

func rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the session roster",
	}
	cmd.AddCommand(rosterSaveCmd())
	cmd.AddCommand(rosterListCmd())
	return cmd
}

func rosterSaveCmd() *cobra.Command {
	var (
		id           string
		teamA, teamB []string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Resolve and save roster players (NAME=HANDLE or HANDLE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := append(rosterInputs(teamA, "A"), rosterInputs(teamB, "B")...)
			if len(inputs) == 0 {
				return fmt.Errorf("at least one --a or --b player is required")
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Cfg.RequireRiot(); err != nil {
					return err
				}
				sid, err := resolveSessionID(ctx, a, id)
				if err != nil {
					return err
				}
				res, err := a.Sessions.SaveRoster(ctx, sid, inputs)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "saved %d player(s)\n", len(res.Saved))
				for _, h := range res.Unresolved {
					fmt.Fprintf(out, "could not resolve %q\n", h)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "session", "", "Session ID (default: active session)")
	cmd.Flags().StringArrayVar(&teamA, "a", nil, "Team A player, repeatable")
	cmd.Flags().StringArrayVar(&teamB, "b", nil, "Team B player, repeatable")
	return cmd
}

// rosterInputs parses "Display Name=Handle#TAG" or a bare handle.
func rosterInputs(values []string, team string) []session.RosterInput {
	inputs := make([]session.RosterInput, 0, len(values))
	for _, v := range values {
		in := session.RosterInput{Team: team}
		if name, handle, ok := strings.Cut(v, "="); ok {
			in.DisplayName = strings.TrimSpace(name)
			in.Handle = strings.TrimSpace(handle)
		} else {
			in.Handle = strings.TrimSpace(v)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func rosterListCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roster entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				sid, err := resolveSessionID(ctx, a, id)
				if err != nil {
					return err
				}
				entries, err := a.Sessions.Roster(ctx, sid)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TEAM\tNAME\tHANDLE")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Team, e.DisplayName, e.Handle)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&id, "session", "", "Session ID (default: active session)")
	return cmd
}

// --------------------------------------------------------------------------
// poll / run commands
// --------------------------------------------------------------------------

func pollCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one poll tick for the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Cfg.RequireRiot(); err != nil {
					return err
				}
				if force {
					s, err := a.Sessions.Active(ctx)
					if err != nil {
						return err
					}
					if s == nil {
						fmt.Fprintln(cmd.OutOrStdout(), "no active session")
						return nil
					}
					if err := s.CanPoll(); err != nil {
						return fmt.Errorf("force poll %s: %w", s.ID, err)
					}
					res, err := a.Poller.RunCycle(ctx, s, true)
					if res != nil {
						fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
					}
					return err
				}
				res, err := a.Poller.Tick(ctx)
				if res != nil {
					fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
					for _, e := range res.Errors {
						logger.Warn("poll error", "error", e)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the poll interval")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the active session on a ticker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Cfg.RequireRiot(); err != nil {
					return err
				}
				mcfg := maintenance.DefaultConfig()
				mcfg.TickInterval = a.Cfg.TickInterval
				maintenance.Start(ctx, a.Poller, a.Store, mcfg, logger)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// standings / migrate commands
// --------------------------------------------------------------------------

func standingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings",
		Short: "Print the scoreboard for the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				s, err := a.Sessions.Active(ctx)
				if err != nil {
					return err
				}
				board, err := a.Standings.Build(ctx, s)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if board.Session == nil {
					fmt.Fprintln(out, "waiting: no active session")
					return nil
				}
				fmt.Fprintf(out, "%s [%s]\n", board.Session.Title, board.Status)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, t := range board.Teams {
					fmt.Fprintf(tw, "%s\t%d-%d\t\n", t.Name, t.Wins, t.Losses)
					for _, p := range t.Players {
						fmt.Fprintf(tw, "  %s\t%d-%d\t%s\n", p.DisplayName, p.Wins, p.Losses, p.Handle)
					}
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if leader := board.Leader(); leader != "" {
					fmt.Fprintf(out, "leader: %s\n", leader)
				} else {
					fmt.Fprintln(out, "tied")
				}
				if board.Remaining > 0 {
					fmt.Fprintf(out, "time left: %s\n", board.Remaining.Round(time.Second))
				}
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withApp handles config loading, wiring, and context cancellation.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// resolveSessionID returns id, or the active session's id when id is empty.
func resolveSessionID(ctx context.Context, a *app.App, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	s, err := a.Sessions.Active(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", errors.New("no active session; pass --session")
	}
	return s.ID, nil
}
