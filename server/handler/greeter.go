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
	"fmt"

	"github.com/google/go-github/v65/github"
	"github.com/rs/zerolog"

	"github.com/palantir/welcome-bot/metrics"
)

// Greeter comments on newly opened pull requests.
type Greeter struct {
	// Message is the comment body. Greeters built without a message, like
	// the ones in tests, post DefaultGreeting.
	Message string
}

func (g *Greeter) message() string {
	if g.Message == "" {
		return DefaultGreeting
	}
	return g.Message
}

func (g *Greeter) HandlePullRequestOpened(ctx context.Context, client *github.Client, event *PullRequestOpenedEvent) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msgf("Received a pull request event for #%d", event.Number)

	owner := event.Repo.GetOwner().GetLogin()
	repo := event.Repo.GetName()

	body := g.message()

	comment, _, err := client.Issues.CreateComment(ctx, owner, repo, event.Number, &github.IssueComment{
		Body: &body,
	})
	if err != nil {
		logAPIError(logger, err, fmt.Sprintf("Failed to comment on pull request %s/%s#%d", owner, repo, event.Number))
		return nil
	}

	metrics.CommentCreated()
	logger.Debug().Msgf("Created comment %d on pull request %s/%s#%d", comment.GetID(), owner, repo, event.Number)
	return nil
}
