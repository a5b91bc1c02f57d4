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
package p4info

import (
	"fmt"
	"math/big"
	"net"
	"strconv"
)

func byteWidth(bitwidth int32) int {
	return int((bitwidth + 7) / 8)
}

// Encode converts a match or param value into a big-endian byte string
// padded to the field bitwidth. Accepted values are IPv4/IPv6 and MAC
// address strings, decimal strings, unsigned and signed integers, and raw
// byte slices.
func Encode(value interface{}, bitwidth int32) ([]byte, error) {
	if bitwidth <= 0 {
		return nil, fmt.Errorf("invalid bitwidth %d", bitwidth)
	}

	switch v := value.(type) {
	case []byte:
		return fitBytes(v, bitwidth)
	case net.IP:
		return encodeIP(v, bitwidth)
	case net.HardwareAddr:
		return fitBytes(v, bitwidth)
	case string:
		return encodeString(v, bitwidth)
	case uint:
		return encodeUint(new(big.Int).SetUint64(uint64(v)), bitwidth)
	case uint8:
		return encodeUint(new(big.Int).SetUint64(uint64(v)), bitwidth)
	case uint16:
		return encodeUint(new(big.Int).SetUint64(uint64(v)), bitwidth)
	case uint32:
		return encodeUint(new(big.Int).SetUint64(uint64(v)), bitwidth)
	case uint64:
		return encodeUint(new(big.Int).SetUint64(v), bitwidth)
	case int:
		return encodeInt(int64(v), bitwidth)
	case int8:
		return encodeInt(int64(v), bitwidth)
	case int16:
		return encodeInt(int64(v), bitwidth)
	case int32:
		return encodeInt(int64(v), bitwidth)
	case int64:
		return encodeInt(v, bitwidth)
	default:
		return nil, fmt.Errorf("cannot encode value of type %T", value)
	}
}

func encodeInt(v int64, bitwidth int32) ([]byte, error) {
	if v < 0 {
		return nil, fmt.Errorf("negative value %d", v)
	}
	return encodeUint(big.NewInt(v), bitwidth)
}

func encodeUint(v *big.Int, bitwidth int32) ([]byte, error) {
	if v.BitLen() > int(bitwidth) {
		return nil, fmt.Errorf("value %s does not fit in %d bits", v, bitwidth)
	}
	return v.FillBytes(make([]byte, byteWidth(bitwidth))), nil
}

func encodeIP(ip net.IP, bitwidth int32) ([]byte, error) {
	if v4 := ip.To4(); v4 != nil && bitwidth == 32 {
		return []byte(v4), nil
	}
	if v6 := ip.To16(); v6 != nil && bitwidth == 128 {
		return []byte(v6), nil
	}
	return nil, fmt.Errorf("address %s does not match bitwidth %d", ip, bitwidth)
}

func encodeString(s string, bitwidth int32) ([]byte, error) {
	if ip := net.ParseIP(s); ip != nil {
		return encodeIP(ip, bitwidth)
	}
	if mac, err := net.ParseMAC(s); err == nil && bitwidth == 48 {
		return []byte(mac), nil
	}
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		return encodeUint(new(big.Int).SetUint64(n), bitwidth)
	}
	return nil, fmt.Errorf("cannot encode %q in %d bits", s, bitwidth)
}

func fitBytes(b []byte, bitwidth int32) ([]byte, error) {
	return encodeUint(new(big.Int).SetBytes(b), bitwidth)
}
