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
package monitor

// LinkID names a monitored path segment. It is carried once per probe.
type LinkID uint8

const (
	LinkURLLCPrimary LinkID = 0 // S1-S3-S5-S6
	LinkMMTCPrimary  LinkID = 1 // S1-S2-S5-S4-S6
	LinkURLLCBackup  LinkID = 2 // S1-S3-S4-S6
	LinkMMTCBackup   LinkID = 3 // S1-S2-S4-S5-S6
)

// Each path is rerouted onto its partner and back: 0 and 2 swap the URLLC
// paths, 1 and 3 swap the mMTC paths.
var suggestions = map[LinkID]string{
	LinkURLLCPrimary: "URLLC: should change S1-S3-S5-S6 to S1-S3-S4-S6",
	LinkMMTCPrimary:  "mMTC: should change S1-S2-S5-S4-S6 to S1-S2-S4-S5-S6",
	LinkURLLCBackup:  "URLLC: should change S1-S3-S4-S6 to S1-S3-S5-S6",
	LinkMMTCBackup:   "mMTC: should change S1-S2-S4-S5-S6 to S1-S2-S5-S4-S6",
}

// Suggestion returns the rerouting hint for l. Unknown links have none.
func (l LinkID) Suggestion() (string, bool) {
	s, ok := suggestions[l]
	return s, ok
}

// Partner returns the path l is rerouted onto.
func (l LinkID) Partner() (LinkID, bool) {
	if _, ok := suggestions[l]; !ok {
		return l, false
	}
	return l ^ 2, true
}
