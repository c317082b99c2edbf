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
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/welcome-bot/server/handler/handlertest"
)

func TestGreeter(t *testing.T) {
	event := parseTestEvent(t, "pull_request", "pull_request_opened.json").(*PullRequestOpenedEvent)

	t.Run("createsComment", func(t *testing.T) {
		rp := &handlertest.ResponsePlayer{}
		commentRule := rp.AddRule(
			handlertest.MethodPathMatcher{Method: http.MethodPost, Path: commentsPath},
			responseFile("comment_created.yml"),
		)

		ctx, logs := logContext()
		client := github.NewClient(&http.Client{Transport: rp})

		g := &Greeter{}
		err := g.HandlePullRequestOpened(ctx, client, event)
		require.NoError(t, err)

		assert.Equal(t, 1, commentRule.Count, "incorrect number of comment requests")

		requests := rp.Requests()
		require.Len(t, requests, 1)

		var comment struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.Unmarshal(requests[0].Body, &comment))
		assert.Equal(t, DefaultGreeting, comment.Body)

		assert.Contains(t, logs.String(), "Received a pull request event for #42")
	})

	t.Run("customMessage", func(t *testing.T) {
		rp := &handlertest.ResponsePlayer{}
		rp.AddRule(
			handlertest.MethodPathMatcher{Method: http.MethodPost, Path: commentsPath},
			responseFile("comment_created.yml"),
		)

		client := github.NewClient(&http.Client{Transport: rp})

		g := &Greeter{Message: "Welcome!"}
		require.NoError(t, g.HandlePullRequestOpened(context.Background(), client, event))

		requests := rp.Requests()
		require.Len(t, requests, 1)
		assert.JSONEq(t, `{"body": "Welcome!"}`, string(requests[0].Body))
	})

	t.Run("logsResponseErrors", func(t *testing.T) {
		rp := &handlertest.ResponsePlayer{}
		commentRule := rp.AddRule(
			handlertest.MethodPathMatcher{Method: http.MethodPost, Path: commentsPath},
			responseFile("not_found.yml"),
		)

		ctx, logs := logContext()
		client := github.NewClient(&http.Client{Transport: rp})

		g := &Greeter{}
		err := g.HandlePullRequestOpened(ctx, client, event)
		require.NoError(t, err, "API errors must not be returned")

		assert.Equal(t, 1, commentRule.Count, "failed requests must not be retried")
		assert.Contains(t, logs.String(), "Error! Status: 404. Message: Not Found")
		assert.Contains(t, logs.String(), `"status":404`)
	})

	t.Run("logsOtherErrors", func(t *testing.T) {
		rp := &handlertest.ResponsePlayer{}
		rp.AddErrorRule(
			handlertest.MethodPathMatcher{Method: http.MethodPost, Path: commentsPath},
			errors.New("connection reset by peer"),
		)

		ctx, logs := logContext()
		client := github.NewClient(&http.Client{Transport: rp})

		g := &Greeter{}
		err := g.HandlePullRequestOpened(ctx, client, event)
		require.NoError(t, err, "API errors must not be returned")

		assert.Contains(t, logs.String(), "Failed to comment on pull request testorg/testrepo#42")
		assert.Contains(t, logs.String(), "connection reset by peer")
		assert.NotContains(t, logs.String(), `"status"`)
	})
}

func TestGreeterMessage(t *testing.T) {
	assert.Equal(t, DefaultGreeting, (&Greeter{}).message())
	assert.Equal(t, "Welcome!", (&Greeter{Message: "Welcome!"}).message())
}
