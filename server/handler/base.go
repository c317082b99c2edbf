// Copyright 2018 Palantir Technologies, Inc.
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
	"os"

	"github.com/google/go-github/v65/github"
)

const (
	DefaultGreeting    = "Thanks for opening a new PR! Please follow our contributing guidelines to make your PR easier to review."
	DefaultWebhookPath = "/api/webhook"

	LogKeyGitHubSHA = "github_sha"
)

// InstallationClientCreator creates GitHub clients that authenticate as an
// installation of the app. githubapp.ClientCreator implements it.
type InstallationClientCreator interface {
	NewInstallationClient(installationID int64) (*github.Client, error)
}

type Base struct {
	InstallationClientCreator
}

type Options struct {
	// Greeting is the body of the comment posted on new pull requests
	Greeting string `yaml:"greeting"`

	// WebhookPath is the route that receives GitHub webhook deliveries
	WebhookPath string `yaml:"webhook_path"`
}

func (o *Options) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "GREETING"); ok {
		o.Greeting = v
	}
	if v, ok := os.LookupEnv(prefix + "WEBHOOK_PATH"); ok {
		o.WebhookPath = v
	}
}

func (o *Options) FillDefaults() {
	if o.Greeting == "" {
		o.Greeting = DefaultGreeting
	}

	if o.WebhookPath == "" {
		o.WebhookPath = DefaultWebhookPath
	}
}
