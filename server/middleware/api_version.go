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

package middleware

import (
	"net/http"

	"github.com/palantir/go-githubapp/githubapp"
)

const (
	DefaultAPIVersion = "2022-11-28"

	headerAPIVersion = "X-GitHub-Api-Version"

	mediaTypeV3     = "application/vnd.github.v3+json"
	mediaTypeGitHub = "application/vnd.github+json"
)

// APIVersion returns client middleware that pins requests to a REST API
// version. Requests using the default v3 media type are switched to the
// versioned "application/vnd.github+json" type; other media types, like
// previews or raw content, are left alone.
func APIVersion(version string) githubapp.ClientMiddleware {
	if version == "" {
		version = DefaultAPIVersion
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set(headerAPIVersion, version)

			switch r.Header.Get("Accept") {
			case "", mediaTypeV3:
				r.Header.Set("Accept", mediaTypeGitHub)
			}

			return next.RoundTrip(r)
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}
