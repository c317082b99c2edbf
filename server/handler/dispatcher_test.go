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
	"net/http"
	"testing"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/welcome-bot/server/handler/handlertest"
)

type recordingHandler struct {
	name  string
	err   error
	calls *[]string
}

func (h *recordingHandler) HandlePullRequestOpened(ctx context.Context, client *github.Client, event *PullRequestOpenedEvent) error {
	*h.calls = append(*h.calls, h.name)
	return h.err
}

func (h *recordingHandler) HandlePush(ctx context.Context, client *github.Client, event *PushEvent) error {
	*h.calls = append(*h.calls, h.name)
	return h.err
}

func TestDispatcherHandles(t *testing.T) {
	var calls []string
	h := &recordingHandler{calls: &calls}

	assert.Empty(t, (&Dispatcher{}).Handles())
	assert.Equal(t, []string{"pull_request"}, (&Dispatcher{PullRequestOpened: []PullRequestOpenedHandler{h}}).Handles())
	assert.Equal(t, []string{"pull_request", "push"}, (&Dispatcher{
		PullRequestOpened: []PullRequestOpenedHandler{h},
		Push:              []PushHandler{h},
	}).Handles())
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	newDispatcher := func(cc *handlertest.ClientCreator, calls *[]string, errs ...error) *Dispatcher {
		d := &Dispatcher{Base: Base{InstallationClientCreator: cc}}
		for i, err := range errs {
			h := &recordingHandler{name: string(rune('a' + i)), err: err, calls: calls}
			d.PullRequestOpened = append(d.PullRequestOpened, h)
			d.Push = append(d.Push, h)
		}
		return d
	}

	t.Run("runsHandlersInOrder", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		d := newDispatcher(cc, &calls, nil, nil)

		err := d.Handle(ctx, "pull_request", "delivery", readEvent(t, "pull_request_opened.json"))
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, calls)
		assert.Equal(t, []int64{1234}, cc.Installations())
	})

	t.Run("dispatchesPush", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		d := newDispatcher(cc, &calls, nil)

		err := d.Handle(ctx, "push", "delivery", readEvent(t, "push.json"))
		require.NoError(t, err)

		assert.Equal(t, []string{"a"}, calls)
	})

	t.Run("ignoresOtherActions", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		d := newDispatcher(cc, &calls, nil)

		err := d.Handle(ctx, "pull_request", "delivery", readEvent(t, "pull_request_edited.json"))
		require.NoError(t, err)

		assert.Empty(t, calls)
		assert.Empty(t, cc.Installations(), "client was created for an ignored event")
	})

	t.Run("singleError", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		d := newDispatcher(cc, &calls, nil, errors.New("comment failed"))

		err := d.Handle(ctx, "pull_request", "delivery", readEvent(t, "pull_request_opened.json"))
		require.EqualError(t, err, "comment failed")

		var aggErr *AggregateError
		assert.False(t, errors.As(err, &aggErr), "single errors must not be aggregated")
	})

	t.Run("aggregateError", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		first := errors.New("first failed")
		d := newDispatcher(cc, &calls, first, nil, errors.New("third failed"))

		err := d.Handle(ctx, "push", "delivery", readEvent(t, "push.json"))
		require.Error(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, calls, "a failing handler stopped later handlers")

		var aggErr *AggregateError
		require.True(t, errors.As(err, &aggErr))
		assert.Equal(t, "push", aggErr.Event)
		assert.Len(t, aggErr.Errors, 2)
		assert.True(t, errors.Is(err, first))
		assert.EqualError(t, err, "2 handlers failed for push event: first failed; third failed")
	})

	t.Run("clientError", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Err: errors.New("bad credentials")}
		d := newDispatcher(cc, &calls, nil)

		err := d.Handle(ctx, "pull_request", "delivery", readEvent(t, "pull_request_opened.json"))
		assert.EqualError(t, err, "failed to create client for installation 1234: bad credentials")
		assert.Empty(t, calls)
	})

	t.Run("invalidPayload", func(t *testing.T) {
		var calls []string
		cc := &handlertest.ClientCreator{Transport: &handlertest.ResponsePlayer{}}
		d := newDispatcher(cc, &calls, nil)

		err := d.Handle(ctx, "pull_request", "delivery", []byte("not json"))
		assert.Error(t, err)
		assert.Empty(t, calls)
	})
}

func TestDispatcherWithGreeter(t *testing.T) {
	rp := &handlertest.ResponsePlayer{}
	commentRule := rp.AddRule(
		handlertest.MethodPathMatcher{Method: http.MethodPost, Path: commentsPath},
		responseFile("comment_created.yml"),
	)

	d := &Dispatcher{
		Base:              Base{InstallationClientCreator: &handlertest.ClientCreator{Transport: rp}},
		PullRequestOpened: []PullRequestOpenedHandler{&Greeter{}},
	}

	ctx, logs := logContext()
	err := d.Handle(ctx, "pull_request", "delivery", readEvent(t, "pull_request_opened.json"))
	require.NoError(t, err)

	assert.Equal(t, 1, commentRule.Count)
	assert.Contains(t, logs.String(), `"github_pr_num":42`)
	assert.Contains(t, logs.String(), `"github_repository_owner":"testorg"`)
}
