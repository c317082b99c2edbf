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
	"context"
	"encoding/json"

	"github.com/google/go-github/v65/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Installation logs changes to the repositories the app can access.
type Installation struct{}

func (h *Installation) Handles() []string {
	return []string{"installation", "installation_repositories"}
}

func (h *Installation) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	var action string
	var installationID int64
	var added, removed []*github.Repository

	switch eventType {
	case "installation":
		var event github.InstallationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return errors.Wrap(err, "failed to parse installation event payload")
		}

		action = event.GetAction()
		installationID = githubapp.GetInstallationIDFromEvent(&event)
		switch action {
		case "created":
			added = event.Repositories
		case "deleted":
			removed = event.Repositories
		}

	case "installation_repositories":
		var event github.InstallationRepositoriesEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return errors.Wrap(err, "failed to parse installation repositories event payload")
		}

		action = event.GetAction()
		installationID = githubapp.GetInstallationIDFromEvent(&event)
		added = event.RepositoriesAdded
		removed = event.RepositoriesRemoved
	}

	logger := zerolog.Ctx(ctx).With().Int64(githubapp.LogKeyInstallationID, installationID).Logger()
	logger.Info().Msgf("Installation %s: %d repositories added, %d removed", action, len(added), len(removed))

	for _, r := range added {
		logger.Debug().Msgf("Listening for events from %s", r.GetFullName())
	}
	for _, r := range removed {
		logger.Debug().Msgf("No longer listening for events from %s", r.GetFullName())
	}

	return nil
}
