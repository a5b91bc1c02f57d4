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
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "p4-linkmon"
	envPrefix  = "LINKMON"
)

// Route is one IPv4 forwarding rule installed by the controller.
type Route struct {
	DstAddr   string `mapstructure:"dst_addr"`
	PrefixLen int32  `mapstructure:"prefix_len"`
	Port      uint64 `mapstructure:"port"`
}

type Controller struct {
	SwitchName      string  `mapstructure:"switch_name"`
	Address         string  `mapstructure:"address"`
	DeviceID        uint64  `mapstructure:"device_id"`
	ElectionIDHigh  uint64  `mapstructure:"election_id_high"`
	ElectionIDLow   uint64  `mapstructure:"election_id_low"`
	ProtoDumpFile   string  `mapstructure:"proto_dump_file"`
	PacketQueueSize int     `mapstructure:"packet_queue_size"`
	Table           string  `mapstructure:"table"`
	MatchField      string  `mapstructure:"match_field"`
	Action          string  `mapstructure:"action"`
	ActionParam     string  `mapstructure:"action_param"`
	Routes          []Route `mapstructure:"-"`
}

type Sniffer struct {
	Iface                string  `mapstructure:"iface"`
	PcapFile             string  `mapstructure:"pcap_file"`
	RecordFile           string  `mapstructure:"record_file"`
	KernelFilter         bool    `mapstructure:"kernel_filter"`
	UtilizationThreshold float64 `mapstructure:"utilization_threshold"`
	QDepthThreshold      uint32  `mapstructure:"qdepth_threshold"`
}

type Root struct {
	Controller Controller `mapstructure:"controller"`
	Sniffer    Sniffer    `mapstructure:"sniffer"`
	Quiet      bool       `mapstructure:"quiet"`
}

// DefaultRoutes are the two host routes of the tunnel exercise, in the order
// they are installed.
func DefaultRoutes() []Route {
	return []Route{
		{DstAddr: "10.0.2.2", PrefixLen: 32, Port: 255},
		{DstAddr: "10.0.1.1", PrefixLen: 32, Port: 255},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("controller.switch_name", "s1")
	v.SetDefault("controller.address", "0.0.0.0:50051")
	v.SetDefault("controller.device_id", 0)
	v.SetDefault("controller.election_id_high", 0)
	v.SetDefault("controller.election_id_low", 1)
	v.SetDefault("controller.proto_dump_file", "logs/s1-p4runtime-requests.txt")
	v.SetDefault("controller.packet_queue_size", 100)
	v.SetDefault("controller.table", "MyIngress.ipv4_lpm")
	v.SetDefault("controller.match_field", "hdr.ipv4.dstAddr")
	v.SetDefault("controller.action", "MyIngress.ipv4_forward")
	v.SetDefault("controller.action_param", "port")

	v.SetDefault("sniffer.iface", "eth0")
	v.SetDefault("sniffer.pcap_file", "")
	v.SetDefault("sniffer.record_file", "")
	v.SetDefault("sniffer.kernel_filter", false)
	v.SetDefault("sniffer.utilization_threshold", 5.0)
	v.SetDefault("sniffer.qdepth_threshold", 5)

	v.SetDefault("quiet", false)
}

// LoadEnv reads optional dotenv files into the process environment. Missing
// files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
		if glog.V(1) {
			glog.Infof("Loaded environment from %s", f)
		}
	}
	return nil
}

// Load builds the configuration from defaults, an optional config file and
// LINKMON_* environment variables. With an empty configFile the usual search
// paths are tried and a missing file is fine.
func Load(configFile string, configPaths ...string) (*Root, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc/p4-linkmon/")
		v.AddConfigPath("$HOME/.p4-linkmon")
		v.AddConfigPath(".")
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		glog.Infof("Using config file %s", v.ConfigFileUsed())
	}

	cfg := &Root{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Controller.Routes = DefaultRoutes()
	if v.IsSet("controller.routes") {
		var routes []Route
		if err := v.UnmarshalKey("controller.routes", &routes); err != nil {
			return nil, fmt.Errorf("decoding controller.routes: %w", err)
		}
		cfg.Controller.Routes = routes
	}

	return cfg, nil
}
