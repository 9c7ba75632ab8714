package e2e

import (
	"companion-hub/client"
	"companion-hub/domain/event"
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type BaseHubSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHubSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.HubURL == "" {
		s.T().Skip("HUB_URL is not set, no hub to talk to")
	}
}

// Step prints a colorized header for a scenario step in logs
func (s *BaseHubSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial connects a user to the hub and waits for its own arrival.
func (s *BaseHubSuite) Dial(ctx context.Context, userID string) *client.Client {
	c, err := client.Dial(ctx, s.Config.HubURL, userID, "e2e-"+userID)
	s.Require().NoError(err, "Failed to connect to hub at "+s.Config.HubURL)
	s.T().Cleanup(func() { _ = c.Close() })
	_, err = c.ReceiveUntil(ctx, event.UserCountName)
	s.Require().NoError(err)
	return c
}

// Expect reads frames until one named name arrives and decodes it into v.
func (s *BaseHubSuite) Expect(ctx context.Context, c *client.Client, name event.Name, v any) {
	frame, err := c.ReceiveUntil(ctx, name)
	s.Require().NoError(err, "no %s frame received", name)
	if v != nil {
		s.Require().NoError(frame.Decode(v))
	}
}

// WithHealth provides a gRPC health client within a contextual test step
func (s *BaseHubSuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.HealthAddr == "" {
		s.T().Log("HUB_HEALTH_ADDR is not set, health probe skipped")
		return
	}
	s.Step(name)
	conn, err := grpc.NewClient(s.Config.HealthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}
