// Package compileinfo describes the build a binary came from, so that output
// files can be traced back to the code that produced them.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string
	Module     string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	commit := c.Commit
	if commit == "" {
		commit = "an unknown commit"
	} else if len(commit) > 12 {
		commit = commit[:12]
	}

	when := ""
	if c.CommitTime != "" {
		when = " (" + c.CommitTime + ")"
	}

	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("%s from %s, built with %s at %s%s.%s", c.Binary, c.Module, c.GoVersion, commit, when, mod)
}

// Get reads the build information embedded by the Go toolchain.
func Get() CompileInfo {
	out := CompileInfo{
		Binary: filepath.Base(os.Args[0]),
	}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Module = z.Main.Path
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s\n", Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
