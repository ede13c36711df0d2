/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cli

import (
	"flag"
	"os"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/search/pkg/search"
	"github.com/unikorn-cloud/search/pkg/transport"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

const (
	// ApplicationIDEnv names the environment variable holding the
	// application identifier.
	ApplicationIDEnv = "SEARCH_APPLICATION_ID"

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv = "SEARCH_API_KEY"
)

// Options are the command line options.
type Options struct {
	// Search configures the client.
	Search search.Options

	// NoWait returns as soon as a mutation is accepted.
	NoWait bool

	zapOptions zap.Options
}

// AddFlags registers client, wait and logging flags with a flag set.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	o.Search.AddFlags(f)

	f.BoolVar(&o.NoWait, "no-wait", false, "Do not wait for mutations to be published.")

	// Logging flags are only defined for the standard library.
	logging := flag.NewFlagSet("logging", flag.ContinueOnError)

	o.zapOptions.BindFlags(logging)

	f.AddGoFlagSet(logging)
}

// SetupLogging installs the global logger.
func (o *Options) SetupLogging() {
	log.SetLogger(zap.New(zap.UseFlagOptions(&o.zapOptions)))
}

// CredentialsFromEnvironment reads credentials so they never appear on the
// command line.
func CredentialsFromEnvironment() transport.Credentials {
	return transport.Credentials{
		ApplicationID: os.Getenv(ApplicationIDEnv),
		APIKey:        os.Getenv(APIKeyEnv),
	}
}
