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
	"encoding/hex"
	"fmt"

	p4_v1_config "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
)

// MatchValue is the value side of one match field. The kind must agree with
// the match type the p4info declares for the field.
type MatchValue interface {
	matchKind() p4_v1_config.MatchField_MatchType
}

type Exact struct {
	Value interface{}
}

type LPM struct {
	Value     interface{}
	PrefixLen int32
}

type Ternary struct {
	Value interface{}
	Mask  interface{}
}

type Range struct {
	Low  interface{}
	High interface{}
}

func (Exact) matchKind() p4_v1_config.MatchField_MatchType   { return p4_v1_config.MatchField_EXACT }
func (LPM) matchKind() p4_v1_config.MatchField_MatchType     { return p4_v1_config.MatchField_LPM }
func (Ternary) matchKind() p4_v1_config.MatchField_MatchType { return p4_v1_config.MatchField_TERNARY }
func (Range) matchKind() p4_v1_config.MatchField_MatchType   { return p4_v1_config.MatchField_RANGE }

func buildFieldMatch(mf *p4_v1_config.MatchField, value MatchValue) (*p4_v1.FieldMatch, error) {
	if value == nil {
		return nil, fmt.Errorf("nil match value")
	}
	if want := mf.GetMatchType(); want != value.matchKind() {
		return nil, fmt.Errorf("match type %s expected, got %s", want, value.matchKind())
	}

	bitwidth := mf.GetBitwidth()
	fm := &p4_v1.FieldMatch{FieldId: mf.GetId()}

	switch v := value.(type) {
	case Exact:
		b, err := Encode(v.Value, bitwidth)
		if err != nil {
			return nil, err
		}
		fm.FieldMatchType = &p4_v1.FieldMatch_Exact_{
			Exact: &p4_v1.FieldMatch_Exact{Value: b},
		}
	case LPM:
		if v.PrefixLen < 0 || v.PrefixLen > bitwidth {
			return nil, fmt.Errorf("prefix length %d out of range for %d bits", v.PrefixLen, bitwidth)
		}
		b, err := Encode(v.Value, bitwidth)
		if err != nil {
			return nil, err
		}
		fm.FieldMatchType = &p4_v1.FieldMatch_Lpm{
			Lpm: &p4_v1.FieldMatch_LPM{Value: b, PrefixLen: v.PrefixLen},
		}
	case Ternary:
		b, err := Encode(v.Value, bitwidth)
		if err != nil {
			return nil, err
		}
		m, err := Encode(v.Mask, bitwidth)
		if err != nil {
			return nil, err
		}
		fm.FieldMatchType = &p4_v1.FieldMatch_Ternary_{
			Ternary: &p4_v1.FieldMatch_Ternary{Value: b, Mask: m},
		}
	case Range:
		low, err := Encode(v.Low, bitwidth)
		if err != nil {
			return nil, err
		}
		high, err := Encode(v.High, bitwidth)
		if err != nil {
			return nil, err
		}
		fm.FieldMatchType = &p4_v1.FieldMatch_Range_{
			Range: &p4_v1.FieldMatch_Range{Low: low, High: high},
		}
	default:
		return nil, fmt.Errorf("unsupported match value %T", value)
	}

	return fm, nil
}

// FormatBytes renders a wire value as 0x-prefixed hex.
func FormatBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// FormatFieldMatch renders the value part of a field match for the table
// dump: "(value, prefix)" for LPM, "(value, mask)" for ternary,
// "(low, high)" for range and "(value)" otherwise.
func FormatFieldMatch(m *p4_v1.FieldMatch) string {
	switch {
	case m.GetExact() != nil:
		return fmt.Sprintf("(%s)", FormatBytes(m.GetExact().GetValue()))
	case m.GetLpm() != nil:
		return fmt.Sprintf("(%s, %d)", FormatBytes(m.GetLpm().GetValue()), m.GetLpm().GetPrefixLen())
	case m.GetTernary() != nil:
		return fmt.Sprintf("(%s, %s)", FormatBytes(m.GetTernary().GetValue()), FormatBytes(m.GetTernary().GetMask()))
	case m.GetRange() != nil:
		return fmt.Sprintf("(%s, %s)", FormatBytes(m.GetRange().GetLow()), FormatBytes(m.GetRange().GetHigh()))
	case m.GetOptional() != nil:
		return fmt.Sprintf("(%s)", FormatBytes(m.GetOptional().GetValue()))
	default:
		return "()"
	}
}
