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

package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/search/pkg/cli"
	"github.com/unikorn-cloud/search/pkg/constants"
	"github.com/unikorn-cloud/search/pkg/search"

	cr "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

func main() {
	var options cli.Options

	options.AddFlags(pflag.CommandLine)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <command> [arguments]\n\n%s\n\nflags:\n", constants.Application, cli.Usage)
		pflag.PrintDefaults()
	}

	pflag.Parse()

	options.SetupLogging()

	logger := log.Log.WithName("init")
	logger.V(1).Info("client starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	ctx := logr.NewContext(cr.SetupSignalHandler(), log.Log.WithName("search"))

	client, err := search.New(cli.CredentialsFromEnvironment(), &options.Search)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := cli.New(client, os.Stdout, !options.NoWait).Run(ctx, pflag.Args()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
