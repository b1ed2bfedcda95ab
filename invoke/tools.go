// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package invoke

import (
	"os"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"
)

// environ returns the process environment as a map.
func environ() map[string]string {
	return envvar.SliceToMap(os.Environ())
}

// CheckTools verifies that every program can be executed, so that a
// pipeline does not fail halfway through on a missing tool. Programs
// containing a slash are checked as paths; others are looked up in PATH. All
// missing programs are reported in one error.
func CheckTools(programs ...string) error {
	vars := environ()
	seen := map[string]bool{}
	var missing []string
	for _, prog := range programs {
		if prog == "" || seen[prog] {
			continue
		}
		seen[prog] = true
		if strings.Contains(prog, "/") {
			if info, err := os.Stat(prog); err != nil || info.IsDir() || info.Mode()&0111 == 0 {
				missing = append(missing, prog)
			}
			continue
		}
		if _, err := lookpath.Look(vars, prog); err != nil {
			missing = append(missing, prog)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.E(errors.NotExist, "programs not found: "+strings.Join(missing, ", "))
	}
	return nil
}
