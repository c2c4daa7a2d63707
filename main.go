package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api/handlers"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	app := &cli.App{
		Name:   "paxdeiclans",
		Usage:  "Pax Dei clan directory API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the scheduled Discord sync",
				Action: serve,
			},
			{
				Name:   "sync",
				Usage:  "refresh the Discord stats of every clan once",
				Action: syncOnce,
			},
			{
				Name:  "migrate-tags",
				Usage: "rename a tag on every clan (dry run unless --apply)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "tag to replace", Required: true},
					&cli.StringFlag{Name: "to", Usage: "replacement tag", Required: true},
					&cli.BoolFlag{Name: "apply", Usage: "write the changes"},
				},
				Action: migrateTags,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp loads config and connects the database and external clients
func newApp() (*handlers.App, error) {
	conf, err := config.New()
	if err != nil {
		return nil, err
	}
	a := &handlers.App{Config: *conf}

	if err := a.Initialize(); err != nil { //initialize database and router
		return nil, err
	}
	return a, nil
}

func closeApp(a *handlers.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Close(ctx)
}

func serve(c *cli.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	s := a.NewScheduler()
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("paxdeiclans is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func syncOnce(c *cli.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx, cancel := context.WithTimeout(c.Context, a.Config.SyncRunTimeout)
	defer cancel()

	summary, err := a.Sync.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Discord stats sync: %d total, %d updated, %d skipped, %d failed\n",
		summary.Total, summary.Updated, summary.Skipped, summary.Failed)
	return nil
}

func migrateTags(c *cli.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	m, err := databases.MigrateTag(c.Context, a.ClanDatabase(), c.String("from"), c.String("to"), c.Bool("apply"))
	if err != nil {
		return err
	}

	fmt.Printf("Found %d clans tagged %q\n", len(m.Affected), m.From)
	for _, clan := range m.Affected {
		fmt.Printf("  %s  %s  %v\n", clan.ID.Hex(), clan.Name, clan.Tags)
	}
	if !m.Applied {
		if len(m.Affected) > 0 {
			fmt.Println("Dry run, re-run with --apply to write the changes")
		}
		return nil
	}
	fmt.Printf("Replaced %q with %q on %d clans\n", m.From, m.To, m.Modified)
	return nil
}
