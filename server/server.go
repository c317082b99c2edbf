// Copyright 2018 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"goji.io"
	"goji.io/pat"

	"github.com/palantir/welcome-bot/metrics"
	"github.com/palantir/welcome-bot/server/apierror"
	"github.com/palantir/welcome-bot/server/middleware"
	"github.com/palantir/welcome-bot/version"
)

const (
	DefaultGitHubTimeout = 10 * time.Second
	DefaultHTTPCacheSize = 50 * datasize.MB
)

type Server struct {
	config *Config
	base   *baseapp.Server
}

// New instantiates a new Server.
// Callers must then invoke Start to run the Server.
func New(c *Config) (*Server, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := baseapp.NewLogger(baseapp.LoggingConfig{
		Level:  c.Logging.Level,
		Pretty: c.Logging.TextOutput(),
	})

	base, err := baseapp.NewServer(c.Server, baseapp.DefaultParams(logger, "welcomebot.")...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize base server")
	}
	metrics.SetRegistry(base.Registry())

	cc, err := newClientCreator(c, base)
	if err != nil {
		return nil, err
	}

	appClient, err := cc.NewAppClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Github app client")
	}

	app, _, err := appClient.Apps.Get(context.Background(), "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get configured GitHub app")
	}
	logger.Info().Msgf("Authenticated as GitHub app %s", app.GetSlug())

	Routes(base.Mux(), c.Options.WebhookPath, NewWebhookHandler(c, cc, base.Registry()))

	return &Server{
		config: c,
		base:   base,
	}, nil
}

func newClientCreator(c *Config, base *baseapp.Server) (githubapp.ClientCreator, error) {
	maxSize := int64(DefaultHTTPCacheSize)
	if c.Cache.MaxSize != 0 {
		maxSize = int64(c.Cache.MaxSize)
	}

	githubTimeout := c.Workers.GithubTimeout
	if githubTimeout == 0 {
		githubTimeout = DefaultGitHubTimeout
	}

	httpCache := lrucache.New(maxSize, 0)
	metrics.GitHubCacheApproxSize(httpCache.Size)

	userAgent := fmt.Sprintf("welcome-bot/%s", version.GetVersion())
	cc, err := githubapp.NewDefaultCachingClientCreator(
		c.Github,
		githubapp.WithClientUserAgent(userAgent),
		githubapp.WithClientTimeout(githubTimeout),
		githubapp.WithClientCaching(true, func() httpcache.Cache {
			return httpCache
		}),
		githubapp.WithClientMiddleware(
			middleware.APIVersion(middleware.DefaultAPIVersion),
			githubapp.ClientLogging(zerolog.DebugLevel),
			githubapp.ClientMetrics(base.Registry()),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize client creator")
	}
	return cc, nil
}

// Routes registers the webhook handler on path. Every other request gets a
// JSON error response.
func Routes(mux *goji.Mux, path string, webhook http.Handler) {
	mux.Handle(pat.Post(path), webhook)
	mux.Handle(pat.New(path), apierror.MethodNotAllowed(http.MethodPost))
	mux.Handle(pat.New("/*"), apierror.NotFound())
}

// WebhookURL is the local address that receives webhook deliveries.
func (s *Server) WebhookURL() string {
	scheme := "http"
	if s.config.Server.TLSConfig != nil {
		scheme = "https"
	}
	host := s.config.Server.Address + ":" + strconv.Itoa(s.config.Server.Port)
	return fmt.Sprintf("%s://%s%s", scheme, host, s.config.Options.WebhookPath)
}

// Start is blocking and long-running
func (s *Server) Start() error {
	if s.config.Datadog.Address != "" {
		if err := datadog.StartEmitter(s.base, s.config.Datadog); err != nil {
			return err
		}
	}

	logger := s.base.Logger()
	logger.Info().Msgf("Server is listening for events at: %s", s.WebhookURL())
	logger.Info().Msg("Press Ctrl + C to quit.")

	return s.base.Start()
}
