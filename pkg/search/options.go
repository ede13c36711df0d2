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

package search

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/search/pkg/transport"
)

const (
	defaultPollInterval    = 100 * time.Millisecond
	defaultPollMaxInterval = 2 * time.Second
	defaultPollTimeout     = 5 * time.Minute

	// minPollInterval stops a misconfigured poller from spinning.
	minPollInterval = time.Millisecond
)

// Options configure a client.  The zero value is usable, unset durations
// take their defaults.
type Options struct {
	// Transport configures the HTTP layer.
	Transport transport.Options

	// PollInterval is the first delay between task status requests.
	PollInterval time.Duration

	// PollMaxInterval caps the exponential growth of the delay.
	PollMaxInterval time.Duration

	// PollTimeout bounds the time spent waiting for a single task.
	PollTimeout time.Duration
}

// AddFlags registers client options with a flag set.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	o.Transport.AddFlags(f)

	f.DurationVar(&o.PollInterval, "poll-interval", defaultPollInterval, "Initial delay between task status polls.")
	f.DurationVar(&o.PollMaxInterval, "poll-max-interval", defaultPollMaxInterval, "Maximum delay between task status polls.")
	f.DurationVar(&o.PollTimeout, "poll-timeout", defaultPollTimeout, "Time to wait for a task to be published.")
}

func (o *Options) pollInterval() time.Duration {
	if o == nil || o.PollInterval <= 0 {
		return defaultPollInterval
	}

	return max(o.PollInterval, minPollInterval)
}

func (o *Options) pollMaxInterval() time.Duration {
	interval := defaultPollMaxInterval

	if o != nil && o.PollMaxInterval > 0 {
		interval = o.PollMaxInterval
	}

	return max(interval, o.pollInterval())
}

func (o *Options) pollTimeout() time.Duration {
	if o == nil || o.PollTimeout <= 0 {
		return defaultPollTimeout
	}

	return o.PollTimeout
}
