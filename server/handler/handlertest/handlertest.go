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

// Package handlertest provides helpers for testing handlers against replayed
// GitHub API responses.
package handlertest

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type RequestMatcher interface {
	Matches(r *http.Request, body []byte) bool
}

type ExactPathMatcher string

func (m ExactPathMatcher) Matches(r *http.Request, body []byte) bool {
	return r.URL.Path == string(m)
}

type MethodPathMatcher struct {
	Method string
	Path   string
}

func (m MethodPathMatcher) Matches(r *http.Request, body []byte) bool {
	return r.Method == m.Method && r.URL.Path == m.Path
}

type Rule struct {
	Matcher RequestMatcher
	Count   int

	responses []SavedResponse
	err       error
}

// Request is a copy of a request received by a ResponsePlayer.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// ResponsePlayer is an http.RoundTripper that answers requests with saved
// responses and records every request it receives.
type ResponsePlayer struct {
	Rules []*Rule

	mu       sync.Mutex
	requests []Request
}

func (rp *ResponsePlayer) AddRule(matcher RequestMatcher, file string) *Rule {
	rule := &Rule{Matcher: matcher}
	rp.Rules = append(rp.Rules, rule)

	d, err := os.ReadFile(file)
	if err != nil {
		rule.err = errors.Wrapf(err, "failed to read response file: %s", file)
		return rule
	}

	if err := yaml.Unmarshal(d, &rule.responses); err != nil {
		rule.err = errors.Wrapf(err, "failed to unmarshal response file: %s", file)
		return rule
	}

	return rule
}

// AddErrorRule adds a rule that fails matching requests with a transport
// error instead of a response.
func (rp *ResponsePlayer) AddErrorRule(matcher RequestMatcher, err error) *Rule {
	rule := &Rule{Matcher: matcher, err: err}
	rp.Rules = append(rp.Rules, rule)
	return rule
}

// Requests returns the requests received so far, in order.
func (rp *ResponsePlayer) Requests() []Request {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	return append([]Request(nil), rp.requests...)
}

type SavedResponse struct {
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

func (r *SavedResponse) Response(req *http.Request) *http.Response {
	header := make(http.Header)
	for k, v := range r.Headers {
		header.Add(k, v)
	}

	body := strings.NewReader(r.Body)

	return &http.Response{
		Status:     http.StatusText(r.Status),
		StatusCode: r.Status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,

		Header:        header,
		Body:          io.NopCloser(body),
		ContentLength: body.Size(),

		Request: req,
	}
}

func (rp *ResponsePlayer) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.requests = append(rp.requests, Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Body:   body,
	})

	var rule *Rule
	for _, r := range rp.Rules {
		if r.Matcher.Matches(req, body) {
			rule = r
			break
		}
	}
	if rule == nil {
		return errorResponse(req, http.StatusNotFound, fmt.Sprintf("no matching rule for \"%s %s\"", req.Method, req.URL.Path))
	}

	rule.Count++

	// report any error encountered during loading
	if rule.err != nil {
		return nil, rule.err
	}

	// fail if there are no responses
	if len(rule.responses) == 0 {
		return errorResponse(req, http.StatusNotFound, fmt.Sprintf("no responses for \"%s %s\"", req.Method, req.URL.Path))
	}

	return rule.responses[(rule.Count-1)%len(rule.responses)].Response(req), nil
}

func errorResponse(req *http.Request, code int, msg string) (*http.Response, error) {
	body := strings.NewReader(msg)

	return &http.Response{
		Status:     http.StatusText(code),
		StatusCode: code,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,

		Header:        make(http.Header),
		Body:          io.NopCloser(body),
		ContentLength: body.Size(),

		Request: req,
	}, nil
}

// ClientCreator creates clients that send all requests to Transport.
type ClientCreator struct {
	Transport http.RoundTripper
	Err       error

	mu            sync.Mutex
	installations []int64
}

func (c *ClientCreator) NewInstallationClient(installationID int64) (*github.Client, error) {
	c.mu.Lock()
	c.installations = append(c.installations, installationID)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	return github.NewClient(&http.Client{Transport: c.Transport}), nil
}

// Installations returns the IDs passed to NewInstallationClient, in order.
func (c *ClientCreator) Installations() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int64(nil), c.installations...)
}
