/*
 * ------------------------------------------------------------------
 * May, 2022, Reda Haddad
 *
 * Copyright (c) 2022 by cisco Systems, Inc.
 * All rights reserved.
 * ------------------------------------------------------------------
 */
package utils

import (
	"os"
	"path/filepath"
)

// OpenLogFile creates (or truncates) a log file, creating its directory
// first.
func OpenLogFile(fileName string) (*os.File, error) {
	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0744); err != nil {
			return nil, err
		}
	}

	return os.Create(fileName)
}
