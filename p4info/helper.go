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

// Package p4info translates between the symbolic names of a compiled P4
// program and the numeric ids used on the P4Runtime wire.
package p4info

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/golang/glog"
	p4_v1_config "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/protobuf/encoding/prototext"
)

var ErrNotFound = errors.New("not found in p4info")

type Helper struct {
	P4Info *p4_v1_config.P4Info
}

// Load reads a p4info file in protobuf text format, as written by p4c.
func Load(fileName string) (*Helper, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		glog.Errorf("Could not open file %s", fileName)
		return nil, err
	}

	p4Info := &p4_v1_config.P4Info{}
	opts := prototext.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, p4Info); err != nil {
		return nil, fmt.Errorf("parsing p4info %s: %w", fileName, err)
	}
	if glog.V(1) {
		glog.Infof("Loaded p4info %s: %d tables, %d actions",
			fileName, len(p4Info.GetTables()), len(p4Info.GetActions()))
	}

	return New(p4Info), nil
}

func New(p4Info *p4_v1_config.P4Info) *Helper {
	return &Helper{P4Info: p4Info}
}

func (h *Helper) findTable(name string) *p4_v1_config.Table {
	for _, table := range h.P4Info.GetTables() {
		if table.GetPreamble().GetName() == name || table.GetPreamble().GetAlias() == name {
			return table
		}
	}
	return nil
}

func (h *Helper) findTableByID(id uint32) *p4_v1_config.Table {
	for _, table := range h.P4Info.GetTables() {
		if table.GetPreamble().GetId() == id {
			return table
		}
	}
	return nil
}

func (h *Helper) findAction(name string) *p4_v1_config.Action {
	for _, action := range h.P4Info.GetActions() {
		if action.GetPreamble().GetName() == name || action.GetPreamble().GetAlias() == name {
			return action
		}
	}
	return nil
}

func (h *Helper) findActionByID(id uint32) *p4_v1_config.Action {
	for _, action := range h.P4Info.GetActions() {
		if action.GetPreamble().GetId() == id {
			return action
		}
	}
	return nil
}

func (h *Helper) TableID(name string) (uint32, error) {
	table := h.findTable(name)
	if table == nil {
		return 0, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	return table.GetPreamble().GetId(), nil
}

func (h *Helper) TableName(id uint32) (string, error) {
	table := h.findTableByID(id)
	if table == nil {
		return "", fmt.Errorf("table id %d: %w", id, ErrNotFound)
	}
	return table.GetPreamble().GetName(), nil
}

func (h *Helper) ActionID(name string) (uint32, error) {
	action := h.findAction(name)
	if action == nil {
		return 0, fmt.Errorf("action %q: %w", name, ErrNotFound)
	}
	return action.GetPreamble().GetId(), nil
}

func (h *Helper) ActionName(id uint32) (string, error) {
	action := h.findActionByID(id)
	if action == nil {
		return "", fmt.Errorf("action id %d: %w", id, ErrNotFound)
	}
	return action.GetPreamble().GetName(), nil
}

func (h *Helper) MatchField(tableName, fieldName string) (*p4_v1_config.MatchField, error) {
	table := h.findTable(tableName)
	if table == nil {
		return nil, fmt.Errorf("table %q: %w", tableName, ErrNotFound)
	}
	for _, mf := range table.GetMatchFields() {
		if mf.GetName() == fieldName {
			return mf, nil
		}
	}
	return nil, fmt.Errorf("match field %q of table %q: %w", fieldName, tableName, ErrNotFound)
}

func (h *Helper) MatchFieldName(tableName string, id uint32) (string, error) {
	table := h.findTable(tableName)
	if table == nil {
		return "", fmt.Errorf("table %q: %w", tableName, ErrNotFound)
	}
	for _, mf := range table.GetMatchFields() {
		if mf.GetId() == id {
			return mf.GetName(), nil
		}
	}
	return "", fmt.Errorf("match field id %d of table %q: %w", id, tableName, ErrNotFound)
}

func (h *Helper) ActionParam(actionName, paramName string) (*p4_v1_config.Action_Param, error) {
	action := h.findAction(actionName)
	if action == nil {
		return nil, fmt.Errorf("action %q: %w", actionName, ErrNotFound)
	}
	for _, p := range action.GetParams() {
		if p.GetName() == paramName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("param %q of action %q: %w", paramName, actionName, ErrNotFound)
}

func (h *Helper) ActionParamName(actionName string, id uint32) (string, error) {
	action := h.findAction(actionName)
	if action == nil {
		return "", fmt.Errorf("action %q: %w", actionName, ErrNotFound)
	}
	for _, p := range action.GetParams() {
		if p.GetId() == id {
			return p.GetName(), nil
		}
	}
	return "", fmt.Errorf("param id %d of action %q: %w", id, actionName, ErrNotFound)
}

// TableEntry is a symbolic table entry. Values in Match and Params are
// encoded with the bitwidths declared in the p4info.
type TableEntry struct {
	Table        string
	Match        map[string]MatchValue
	Action       string
	ActionParams map[string]interface{}
	Priority     int32
}

// BuildTableEntry translates a symbolic entry into its wire form. Match
// fields and params are ordered by id so identical entries encode
// identically.
func (h *Helper) BuildTableEntry(entry *TableEntry) (*p4_v1.TableEntry, error) {
	tableID, err := h.TableID(entry.Table)
	if err != nil {
		return nil, err
	}

	te := &p4_v1.TableEntry{
		TableId:  tableID,
		Priority: entry.Priority,
	}

	for fieldName, value := range entry.Match {
		mf, err := h.MatchField(entry.Table, fieldName)
		if err != nil {
			return nil, err
		}
		fm, err := buildFieldMatch(mf, value)
		if err != nil {
			return nil, fmt.Errorf("table %q field %q: %w", entry.Table, fieldName, err)
		}
		te.Match = append(te.Match, fm)
	}
	sort.Slice(te.Match, func(i, j int) bool {
		return te.Match[i].GetFieldId() < te.Match[j].GetFieldId()
	})

	if entry.Action != "" {
		actionID, err := h.ActionID(entry.Action)
		if err != nil {
			return nil, err
		}
		action := &p4_v1.Action{ActionId: actionID}
		for paramName, value := range entry.ActionParams {
			p, err := h.ActionParam(entry.Action, paramName)
			if err != nil {
				return nil, err
			}
			encoded, err := Encode(value, p.GetBitwidth())
			if err != nil {
				return nil, fmt.Errorf("action %q param %q: %w", entry.Action, paramName, err)
			}
			action.Params = append(action.Params, &p4_v1.Action_Param{
				ParamId: p.GetId(),
				Value:   encoded,
			})
		}
		sort.Slice(action.Params, func(i, j int) bool {
			return action.Params[i].GetParamId() < action.Params[j].GetParamId()
		})
		te.Action = &p4_v1.TableAction{
			Type: &p4_v1.TableAction_Action{Action: action},
		}
	}

	return te, nil
}
