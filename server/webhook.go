// Copyright 2024 Palantir Technologies, Inc.
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
	"net/http"

	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/rs/zerolog"

	"github.com/palantir/welcome-bot/server/handler"
)

const (
	DefaultWebhookWorkers   = 10
	DefaultWebhookQueueSize = 100
)

// NewWebhookHandler returns the http.Handler for webhook deliveries. It
// validates payload signatures against the configured secret and dispatches
// valid events to the app's handlers.
func NewWebhookHandler(c *Config, cc handler.InstallationClientCreator, registry gometrics.Registry) http.Handler {
	handlers := []githubapp.EventHandler{
		&handler.Dispatcher{
			Base: handler.Base{InstallationClientCreator: cc},
			PullRequestOpened: []handler.PullRequestOpenedHandler{
				&handler.Greeter{Message: c.Options.Greeting},
			},
			Push: []handler.PushHandler{
				&handler.CommitLogger{},
			},
		},
		&handler.Installation{},
	}

	opts := []githubapp.DispatcherOption{
		githubapp.WithErrorCallback(ErrorCallback(registry)),
	}

	if !c.Workers.Synchronous {
		queueSize := c.Workers.QueueSize
		if queueSize < 1 {
			queueSize = DefaultWebhookQueueSize
		}

		workers := c.Workers.Workers
		if workers < 1 {
			workers = DefaultWebhookWorkers
		}

		opts = append(opts, githubapp.WithScheduler(
			githubapp.QueueAsyncScheduler(
				queueSize, workers,
				githubapp.WithSchedulingMetrics(registry),
				githubapp.WithAsyncErrorCallback(AsyncErrorCallback(registry)),
			),
		))
	}

	return githubapp.NewEventDispatcher(handlers, c.Github.App.WebhookSecret, opts...)
}

// ErrorCallback reports errors from synchronous dispatch. Aggregate errors
// are logged per cause before the standard handling, which never includes
// error details in the response.
func ErrorCallback(registry gometrics.Registry) githubapp.ErrorCallback {
	onError := githubapp.MetricsErrorCallback(registry)
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logAggregateError(zerolog.Ctx(r.Context()), err)
		onError(w, r, err)
	}
}

// AsyncErrorCallback reports errors from handlers run by an asynchronous
// scheduler.
func AsyncErrorCallback(registry gometrics.Registry) githubapp.AsyncErrorCallback {
	onError := githubapp.MetricsAsyncErrorCallback(registry)
	return func(ctx context.Context, d githubapp.Dispatch, err error) {
		logAggregateError(zerolog.Ctx(ctx), err)
		onError(ctx, d, err)
	}
}

func logAggregateError(logger *zerolog.Logger, err error) {
	var aggErr *handler.AggregateError
	if !errors.As(err, &aggErr) {
		return
	}

	logger.Error().Msgf("Error processing request: %s", aggErr.Event)
	for _, cause := range aggErr.Errors {
		logger.Error().Err(cause).Msgf("Handler failed for %s event", aggErr.Event)
	}
}
