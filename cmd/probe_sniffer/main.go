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
	"flag"
	"io"
	"os"

	"github.com/cisco-open/go-p4-linkmon/capture"
	"github.com/cisco-open/go-p4-linkmon/config"
	"github.com/cisco-open/go-p4-linkmon/diag"
	"github.com/cisco-open/go-p4-linkmon/monitor"
	"github.com/cisco-open/go-p4-linkmon/signal"
	"github.com/golang/glog"
)

var configFile = flag.String("config", "", "Config file, p4-linkmon.yaml is searched for if empty")

func main() {
	flag.Parse()
	code := run(*configFile, os.Stdout)
	glog.Flush()
	os.Exit(code)
}

func run(configFile string, out io.Writer) int {
	if err := config.LoadEnv(); err != nil {
		glog.Errorf("%s", err)
		return 1
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		glog.Errorf("%s", err)
		return 1
	}

	var sink diag.Sink = diag.NewWriterSink(out, nil)
	if cfg.Quiet {
		sink = diag.Discard
	}

	src, err := capture.Open(cfg.Sniffer)
	if err != nil {
		glog.Errorf("Opening capture: %s", err)
		return 1
	}
	defer src.Close()

	ctx, cancel := signal.NotifyContext(context.Background())
	defer cancel()
	stop := capture.CloseOnDone(ctx, src)
	defer stop()

	sink.Emit(diag.Sniffing{Iface: src.Name()})

	m := monitor.New(sink, monitor.Thresholds{
		Utilization: cfg.Sniffer.UtilizationThreshold,
		QDepth:      cfg.Sniffer.QDepthThreshold,
	})
	err = m.Run(ctx, src)

	stats := m.Stats()
	glog.Infof("Frames(%d) Probes(%d) Malformed(%d) Reroutes(%d)",
		stats.Frames, stats.Probes, stats.Malformed, stats.Reroutes)
	if err != nil {
		glog.Errorf("Capture on %s: %s", src.Name(), err)
		return 1
	}
	return 0
}
