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
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

var capturedSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}

// NotifyContext returns a context cancelled on the first SIGINT or SIGTERM.
// A second signal exits the process at once.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	watch(ctx, cancel, make(chan os.Signal, 2), func() { os.Exit(1) })
	return ctx, cancel
}

func watch(ctx context.Context, cancel context.CancelFunc, notifyCh chan os.Signal, exit func()) {
	signal.Notify(notifyCh, capturedSignals...)

	go func() {
		select {
		case sig := <-notifyCh:
			glog.Infof("Received %s, stopping", sig)
			cancel()
		case <-ctx.Done():
			signal.Stop(notifyCh)
			return
		}
		<-notifyCh
		glog.Warningf("Second signal, exiting")
		glog.Flush()
		exit()
	}()
}
