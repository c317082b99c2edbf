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

// CommitLogger fetches and logs the details of each commit in a push.
//
// Commits are fetched one at a time in push order. A failed fetch is logged
// and does not stop the remaining commits from being processed.
type CommitLogger struct{}

func (c *CommitLogger) HandlePush(ctx context.Context, client *github.Client, event *PushEvent) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msgf("Received a push event for %s with %d commits (%s...%s)", event.Ref, len(event.Commits), shortSHA(event.Before), shortSHA(event.After))

	owner := event.Repo.GetOwner().GetLogin()
	repo := event.Repo.GetName()

	for i, sha := range event.Commits {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msgf("Stopped processing push after %d of %d commits", i, len(event.Commits))
			return nil
		}

		clogger := logger.With().Str(LogKeyGitHubSHA, sha).Logger()

		commit, _, err := client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
		if err != nil {
			logAPIError(&clogger, err, fmt.Sprintf("Failed to fetch commit %s", shortSHA(sha)))
			continue
		}

		metrics.CommitFetched()
		committer := committerIdentity(commit)
		clogger.Info().
			Str("committer", committer).
			Msgf("Commit %s by %s: %s", shortSHA(sha), committer, commit.GetCommit().GetMessage())
	}

	return nil
}

// committerIdentity formats the git committer, adding the GitHub login when
// the committer maps to a GitHub user.
func committerIdentity(c *github.RepositoryCommit) string {
	committer := c.GetCommit().GetCommitter()

	id := committer.GetName()
	if email := committer.GetEmail(); email != "" {
		id = fmt.Sprintf("%s <%s>", id, email)
	}
	if login := c.GetCommitter().GetLogin(); login != "" {
		id = fmt.Sprintf("%s (@%s)", id, login)
	}
	return id
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
