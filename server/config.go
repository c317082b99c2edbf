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

package server

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/palantir/welcome-bot/server/handler"
)

const (
	DefaultEnvPrefix = "WELCOMEBOT_"

	DefaultAddress = "localhost"
	DefaultPort    = 3000

	DefaultGitHubWebURL   = "https://github.com/"
	DefaultGitHubV3APIURL = "https://api.github.com/"
	DefaultGitHubV4APIURL = "https://api.github.com/graphql"
)

type Config struct {
	Server  baseapp.HTTPConfig `yaml:"server"`
	Logging LoggingConfig      `yaml:"logging"`
	Cache   CachingConfig      `yaml:"cache"`
	Github  githubapp.Config   `yaml:"github"`
	Options handler.Options    `yaml:"options"`
	Datadog datadog.Config     `yaml:"datadog"`
	Workers WorkerConfig       `yaml:"workers"`

	// PrivateKeyPath is a PEM file containing the app private key. It is
	// only read when github.app.private_key is empty.
	PrivateKeyPath string `yaml:"private_key_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Text  *bool  `yaml:"text" json:"text"`
}

// TextOutput reports whether logs are written as human-readable text. It
// is true unless text output was explicitly disabled.
func (c *LoggingConfig) TextOutput() bool {
	return c.Text == nil || *c.Text
}

func (c *LoggingConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "LOG_LEVEL"); ok {
		c.Level = v
	}
	if v, ok := os.LookupEnv(prefix + "LOG_TEXT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Text = &b
		}
	}
}

type CachingConfig struct {
	MaxSize datasize.ByteSize `yaml:"max_size"`
}

type WorkerConfig struct {
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	GithubTimeout time.Duration `yaml:"github_timeout"`

	// Synchronous handles each delivery before responding to GitHub
	Synchronous bool `yaml:"synchronous"`
}

func ParseConfig(bytes []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(bytes, &c); err != nil {
		return nil, errors.Wrapf(err, "failed unmarshalling yaml")
	}

	envPrefix := DefaultEnvPrefix
	if v, ok := os.LookupEnv("WELCOMEBOT_ENV_PREFIX"); ok {
		envPrefix = v
	}

	c.Options.SetValuesFromEnv(envPrefix + "OPTIONS_")
	c.Server.SetValuesFromEnv(envPrefix)
	c.Logging.SetValuesFromEnv(envPrefix)
	c.Github.SetValuesFromEnv("")
	c.SetCredentialsFromEnv()

	if err := c.LoadPrivateKey(); err != nil {
		return nil, err
	}

	c.FillDefaults()
	return &c, nil
}

// SetCredentialsFromEnv reads the app credentials from the APP_ID,
// WEBHOOK_SECRET and PRIVATE_KEY_PATH variables, if they exist.
func (c *Config) SetCredentialsFromEnv() {
	if v, ok := os.LookupEnv("APP_ID"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Github.App.IntegrationID = id
		}
	}
	if v, ok := os.LookupEnv("WEBHOOK_SECRET"); ok {
		c.Github.App.WebhookSecret = v
	}
	if v, ok := os.LookupEnv("PRIVATE_KEY_PATH"); ok {
		c.PrivateKeyPath = v
	}
}

// LoadPrivateKey reads the private key file if the key is not already set.
func (c *Config) LoadPrivateKey() error {
	if c.Github.App.PrivateKey != "" || c.PrivateKeyPath == "" {
		return nil
	}

	key, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return errors.Wrapf(err, "failed reading private key file: %s", c.PrivateKeyPath)
	}

	c.Github.App.PrivateKey = string(key)
	return nil
}

func (c *Config) FillDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Github.WebURL == "" {
		c.Github.WebURL = DefaultGitHubWebURL
	}
	if c.Github.V3APIURL == "" {
		c.Github.V3APIURL = DefaultGitHubV3APIURL
	}
	if c.Github.V4APIURL == "" {
		c.Github.V4APIURL = DefaultGitHubV4APIURL
	}

	if c.Logging.Text == nil {
		text := true
		c.Logging.Text = &text
	}

	c.Options.FillDefaults()
}

// Validate checks that the configuration contains app credentials.
func (c *Config) Validate() error {
	var missing []string
	if c.Github.App.IntegrationID == 0 {
		missing = append(missing, "app ID")
	}
	if c.Github.App.WebhookSecret == "" {
		missing = append(missing, "webhook secret")
	}
	if c.Github.App.PrivateKey == "" {
		missing = append(missing, "private key")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(c.Options.WebhookPath, "/") {
		return errors.Errorf("webhook path must start with '/': %s", c.Options.WebhookPath)
	}
	return nil
}
