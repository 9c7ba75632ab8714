package main

import (
	"bufio"
	"companion-hub/client"
	"companion-hub/domain"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the viewer-side environment variables.
type Config struct {
	HubURL string `envconfig:"HUB_URL" default:"http://localhost:8080"`
	// USER_ID and SESSION_ID are generated when left empty
	UserID    string `envconfig:"USER_ID"`
	SessionID string `envconfig:"SESSION_ID"`
	// VIEWER_COLOURS enables colorized output
	Colours           bool          `envconfig:"VIEWER_COLOURS" default:"true"`
	MaxReconnectTries int           `envconfig:"VIEWER_MAX_RECONNECT_TRIES" default:"5"`
	ReconnectDelay    time.Duration `envconfig:"VIEWER_RECONNECT_DELAY" default:"1s"`
	MaxReconnectDelay time.Duration `envconfig:"VIEWER_MAX_RECONNECT_DELAY" default:"15s"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Viewer error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	config = withTokens(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c *client.Client
	dial := func(ctx context.Context) error {
		var err error
		c, err = client.Dial(ctx, config.HubURL, config.UserID, config.SessionID)
		return err
	}
	if err := dial(ctx); err != nil {
		return exitRuntime, err
	}

	r := newRenderer(os.Stdout, config.Colours)
	r.info(fmt.Sprintf(">>> Connected to %s as %s (/quit to leave)", config.HubURL, domain.DisplayName(config.UserID)))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		code, lost, err := serve(ctx, c, r, lines)
		_ = c.Close()
		if !lost {
			return code, err
		}
		r.failure(fmt.Sprintf("Connection lost: %v", err))
		err = redial(ctx, config, dial, func(retry int, wait time.Duration, err error) {
			r.failure(fmt.Sprintf("Reconnect %d/%d after %s failed: %v", retry, config.MaxReconnectTries, wait, err))
		})
		if err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("giving up reconnecting: %w", err)
		}
		r.info(">>> Reconnected")
	}
}

// serve syncs the snapshots then relays frames and typed lines until the user
// leaves or the connection is lost. lost reports that a reconnection is worth trying.
func serve(ctx context.Context, c *client.Client, r *renderer, lines <-chan string) (code int, lost bool, err error) {
	if err := c.GetMessages(ctx); err != nil {
		return exitRuntime, ctx.Err() == nil, err
	}
	if err := c.GetEvents(ctx); err != nil {
		return exitRuntime, ctx.Err() == nil, err
	}

	received := make(chan error, 1)
	go func() {
		for {
			frame, err := c.Receive(ctx)
			if err != nil {
				received <- err
				return
			}
			r.render(frame)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, false, nil
		case err := <-received:
			if ctx.Err() != nil {
				return exitOK, false, nil
			}
			if client.IsClosed(err) {
				r.info("Connection closed by the hub")
			}
			return exitRuntime, true, err
		case line, ok := <-lines:
			if !ok {
				return exitOK, false, nil
			}
			action, err := parseLine(line)
			if err != nil {
				r.failure(err.Error())
				continue
			}
			if action.quit {
				return exitOK, false, nil
			}
			if action.send == nil {
				continue
			}
			if err := action.send(ctx, c); err != nil {
				return exitRuntime, ctx.Err() == nil, err
			}
		}
	}
}
