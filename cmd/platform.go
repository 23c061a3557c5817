package cmd

import (
	"os/exec"
	"runtime"
)

func isWindows() bool {
	return runtime.GOOS == "windows"
}

func execLookPath(name string) (string, error) {
	return exec.LookPath(name)
}
