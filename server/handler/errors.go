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
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/palantir/welcome-bot/metrics"
)

// AggregateError is returned when more than one handler fails for the same
// webhook delivery.
type AggregateError struct {
	Event  string
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d handlers failed for %s event: %s", len(e.Errors), e.Event, strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

func combineErrors(event string, errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &AggregateError{Event: event, Errors: errs}
}

// APIErrorDetails extracts the HTTP status and the server message from
// errors returned by the GitHub client. It returns false if the error does
// not carry a response.
func APIErrorDetails(err error) (status int, message string, ok bool) {
	var res *http.Response

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	switch {
	case errors.As(err, &errResp):
		res, message = errResp.Response, errResp.Message
	case errors.As(err, &rateErr):
		res, message = rateErr.Response, rateErr.Message
	case errors.As(err, &abuseErr):
		res, message = abuseErr.Response, abuseErr.Message
	}

	if res == nil {
		return 0, "", false
	}
	return res.StatusCode, message, true
}

// logAPIError logs a failed API call. The error is not returned to callers.
func logAPIError(logger *zerolog.Logger, err error, msg string) {
	metrics.APIError()

	if status, message, ok := APIErrorDetails(err); ok {
		logger.Error().Err(err).
			Int("status", status).
			Str("github_message", message).
			Msgf("%s: Error! Status: %d. Message: %s", msg, status, message)
		return
	}
	logger.Error().Err(err).Msg(msg)
}
