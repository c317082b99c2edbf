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

package handler

import (
	"context"

	"github.com/google/go-github/v65/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type PullRequestOpenedHandler interface {
	HandlePullRequestOpened(ctx context.Context, client *github.Client, event *PullRequestOpenedEvent) error
}

type PushHandler interface {
	HandlePush(ctx context.Context, client *github.Client, event *PushEvent) error
}

// Dispatcher is the githubapp.EventHandler for every event kind the app
// reacts to. It parses deliveries into an Event and runs the handlers
// registered for that kind in order, passing each an installation client.
type Dispatcher struct {
	Base

	PullRequestOpened []PullRequestOpenedHandler
	Push              []PushHandler
}

func (d *Dispatcher) Handles() []string {
	var events []string
	if len(d.PullRequestOpened) > 0 {
		events = append(events, "pull_request")
	}
	if len(d.Push) > 0 {
		events = append(events, "push")
	}
	return events
}

func (d *Dispatcher) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	event, err := ParseEvent(eventType, payload)
	if err != nil {
		return err
	}
	if event == nil {
		zerolog.Ctx(ctx).Debug().Msgf("Ignoring %s event", eventType)
		return nil
	}

	client, err := d.NewInstallationClient(event.Installation())
	if err != nil {
		return errors.Wrapf(err, "failed to create client for installation %d", event.Installation())
	}

	var errs []error
	switch e := event.(type) {
	case *PullRequestOpenedEvent:
		ctx, _ = githubapp.PreparePRContext(ctx, e.InstallationID, e.Repo, e.Number)
		for _, h := range d.PullRequestOpened {
			if err := h.HandlePullRequestOpened(ctx, client, e); err != nil {
				errs = append(errs, err)
			}
		}

	case *PushEvent:
		ctx, _ = githubapp.PrepareRepoContext(ctx, e.InstallationID, e.Repo)
		for _, h := range d.Push {
			if err := h.HandlePush(ctx, client, e); err != nil {
				errs = append(errs, err)
			}
		}

	default:
		return errors.Errorf("unhandled event kind: %s", event.Kind())
	}

	return combineErrors(event.Kind().String(), errs)
}
