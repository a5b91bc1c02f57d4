/*
 * Copyright (c) 2022 Cisco Systems, Inc. and its affiliates
 * All rights reserved.
 *
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"

	"github.com/cisco-open/go-p4-linkmon/config"
	"github.com/cisco-open/go-p4-linkmon/controller"
	"github.com/cisco-open/go-p4-linkmon/diag"
	"github.com/cisco-open/go-p4-linkmon/p4info"
	"github.com/cisco-open/go-p4-linkmon/signal"
	"github.com/golang/glog"
)

func main() {
	flag.Parse()
	code := run(*p4infoFile, *bmv2File, *configFile, os.Stdout)
	glog.Flush()
	os.Exit(code)
}

func run(p4infoFile, bmv2File, configFile string, out io.Writer) int {
	if !validateArgs(flag.CommandLine, out, p4infoFile, bmv2File) {
		return 1
	}
	glog.Infof("Called as: %s", os.Args)

	if err := config.LoadEnv(); err != nil {
		glog.Errorf("%s", err)
		return 1
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		glog.Errorf("%s", err)
		return 1
	}

	helper, err := p4info.Load(p4infoFile)
	if err != nil {
		glog.Errorf("%s", err)
		return 1
	}

	var sink diag.Sink = diag.NewWriterSink(out, nil)
	if cfg.Quiet {
		sink = diag.Discard
	}

	ctx, cancel := signal.NotifyContext(context.Background())
	defer cancel()

	err = controller.New(cfg.Controller, helper, bmv2File, sink).Run(ctx)
	// A failed RPC was reported already and is not a crash
	var rpcErr *controller.RPCError
	if err != nil && !errors.As(err, &rpcErr) {
		return 1
	}
	return 0
}
