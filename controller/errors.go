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
package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/cisco-open/go-p4-linkmon/diag"
	codes "google.golang.org/grpc/codes"
	status1 "google.golang.org/grpc/status"
)

// RPCError is a failed P4Runtime call, decoded from its gRPC status. File
// and Line locate the controller call that failed.
type RPCError struct {
	Code    codes.Code
	Message string
	File    string
	Line    int
	Err     error
}

// codeNames are the canonical upper case names of the status codes.
var codeNames = map[codes.Code]string{
	codes.OK:                 "OK",
	codes.Canceled:           "CANCELLED",
	codes.Unknown:            "UNKNOWN",
	codes.InvalidArgument:    "INVALID_ARGUMENT",
	codes.DeadlineExceeded:   "DEADLINE_EXCEEDED",
	codes.NotFound:           "NOT_FOUND",
	codes.AlreadyExists:      "ALREADY_EXISTS",
	codes.PermissionDenied:   "PERMISSION_DENIED",
	codes.ResourceExhausted:  "RESOURCE_EXHAUSTED",
	codes.FailedPrecondition: "FAILED_PRECONDITION",
	codes.Aborted:            "ABORTED",
	codes.OutOfRange:         "OUT_OF_RANGE",
	codes.Unimplemented:      "UNIMPLEMENTED",
	codes.Internal:           "INTERNAL",
	codes.Unavailable:        "UNAVAILABLE",
	codes.DataLoss:           "DATA_LOSS",
	codes.Unauthenticated:    "UNAUTHENTICATED",
}

// CodeName returns the canonical name of c, e.g. UNAVAILABLE.
func CodeName(c codes.Code) string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", uint32(c))
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s(%s)[%s:%d]", e.Message, CodeName(e.Code), e.File, e.Line)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

func (e *RPCError) Event() diag.RPCError {
	return diag.RPCError{
		Code:    CodeName(e.Code),
		Message: e.Message,
		File:    e.File,
		Line:    e.Line,
	}
}

type grpcStatus interface {
	GRPCStatus() *status1.Status
}

// rpcError wraps err in an RPCError located at the caller when err carries
// a gRPC status. Other errors, and nil, are returned unchanged.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var existing *RPCError
	if errors.As(err, &existing) {
		return err
	}
	var se grpcStatus
	if !errors.As(err, &se) {
		return err
	}
	st := se.GRPCStatus()
	if st.Code() == codes.OK {
		return err
	}

	rpcErr := &RPCError{
		Code:    st.Code(),
		Message: st.Message(),
		Err:     err,
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		rpcErr.File = filepath.Base(file)
		rpcErr.Line = line
	}
	return rpcErr
}
