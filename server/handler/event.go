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
	"encoding/json"

	"github.com/google/go-github/v65/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
)

// Kind identifies one of the webhook events the app reacts to.
type Kind int

const (
	KindPullRequestOpened Kind = iota + 1
	KindPush
)

func (k Kind) String() string {
	switch k {
	case KindPullRequestOpened:
		return "pull_request.opened"
	case KindPush:
		return "push"
	}
	return "unknown"
}

// Event is a parsed webhook delivery. The set of implementations is closed:
// only types in this package can satisfy it.
type Event interface {
	Kind() Kind
	Installation() int64
	Repository() *github.Repository

	sealed()
}

type PullRequestOpenedEvent struct {
	InstallationID int64
	Repo           *github.Repository
	Number         int
	Author         string
	HeadSHA        string
}

func (e *PullRequestOpenedEvent) Kind() Kind                     { return KindPullRequestOpened }
func (e *PullRequestOpenedEvent) Installation() int64            { return e.InstallationID }
func (e *PullRequestOpenedEvent) Repository() *github.Repository { return e.Repo }
func (e *PullRequestOpenedEvent) sealed()                        {}

type PushEvent struct {
	InstallationID int64
	Repo           *github.Repository
	Ref            string
	Before         string
	After          string

	// Commits are the SHAs of the commits included in the push, in the
	// order GitHub delivered them. GitHub truncates this list for very large
	// pushes.
	Commits []string
}

func (e *PushEvent) Kind() Kind                     { return KindPush }
func (e *PushEvent) Installation() int64            { return e.InstallationID }
func (e *PushEvent) Repository() *github.Repository { return e.Repo }
func (e *PushEvent) sealed()                        {}

// ParseEvent converts a validated webhook payload into an Event. It returns
// a nil Event and a nil error for deliveries the app does not react to, such
// as pull request actions other than "opened".
func ParseEvent(eventType string, payload []byte) (Event, error) {
	switch eventType {
	case "pull_request":
		var event github.PullRequestEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "failed to parse pull request event payload")
		}
		if event.GetAction() != "opened" {
			return nil, nil
		}

		pr := event.GetPullRequest()
		number := event.GetNumber()
		if number == 0 {
			number = pr.GetNumber()
		}

		return &PullRequestOpenedEvent{
			InstallationID: githubapp.GetInstallationIDFromEvent(&event),
			Repo:           event.GetRepo(),
			Number:         number,
			Author:         pr.GetUser().GetLogin(),
			HeadSHA:        pr.GetHead().GetSHA(),
		}, nil

	case "push":
		var event github.PushEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "failed to parse push event payload")
		}

		commits := make([]string, 0, len(event.Commits))
		for _, c := range event.Commits {
			commits = append(commits, c.GetID())
		}

		return &PushEvent{
			InstallationID: githubapp.GetInstallationIDFromEvent(&event),
			Repo:           pushRepository(event.GetRepo()),
			Ref:            event.GetRef(),
			Before:         event.GetBefore(),
			After:          event.GetAfter(),
			Commits:        commits,
		}, nil
	}

	return nil, nil
}

// pushRepository converts the repository object included in push payloads,
// which uses a different schema than other events.
func pushRepository(r *github.PushEventRepository) *github.Repository {
	if r == nil {
		return nil
	}

	owner := r.GetOwner()
	login := owner.GetLogin()
	if login == "" {
		// older push payloads only set the owner name
		login = owner.GetName()
	}

	return &github.Repository{
		ID:       r.ID,
		Name:     r.Name,
		FullName: r.FullName,
		Owner:    &github.User{Login: &login},
	}
}
