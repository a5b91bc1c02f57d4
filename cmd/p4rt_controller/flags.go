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
	"flag"
	"fmt"
	"io"
	"os"
)

// Command line args
var (
	p4infoFile = flag.String("p4info", "./build/advanced_tunnel.p4.p4info.txt", "p4info proto in text format from p4c")
	bmv2File   = flag.String("bmv2-json", "./build/advanced_tunnel.json", "BMv2 JSON file from p4c")
	configFile = flag.String("config", "", "Config file, p4-linkmon.yaml is searched for if empty")
)

func usage(fs *flag.FlagSet, out io.Writer) {
	fmt.Fprintf(out, "Usage of %s:\n", fs.Name())
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// validateArgs checks that both compiler outputs exist. It prints the usage
// and the missing file to out otherwise.
func validateArgs(fs *flag.FlagSet, out io.Writer, p4info, bmv2JSON string) bool {
	if _, err := os.Stat(p4info); err != nil {
		usage(fs, out)
		fmt.Fprintf(out, "\np4info file not found: %s\nHave you run 'make'?\n", p4info)
		return false
	}
	if _, err := os.Stat(bmv2JSON); err != nil {
		usage(fs, out)
		fmt.Fprintf(out, "\nBMv2 JSON file not found: %s\nHave you run 'make'?\n", bmv2JSON)
		return false
	}
	return true
}
