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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testSHA1 = "e05fcae367230ee709313dd2720da527d178ce43"
	testSHA2 = "1fc89f1cedf8e3f3ce516ab75b5952295c8ea5e9"
	testSHA3 = "a6f3f69b64eaafece5a0d854eb4af11c0d64394c"

	commentsPath = "/repos/testorg/testrepo/issues/42/comments"
)

func commitPath(sha string) string {
	return "/repos/testorg/testrepo/commits/" + sha
}

func readEvent(t *testing.T, name string) []byte {
	payload, err := os.ReadFile(filepath.Join("testdata", "events", name))
	require.NoError(t, err)
	return payload
}

func parseTestEvent(t *testing.T, eventType, name string) Event {
	event, err := ParseEvent(eventType, readEvent(t, name))
	require.NoError(t, err)
	require.NotNil(t, event)
	return event
}

func responseFile(name string) string {
	return filepath.Join("testdata", "responses", name)
}

// logContext returns a context with a logger that writes to the returned
// buffer.
func logContext() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	return logger.WithContext(context.Background()), &buf
}
