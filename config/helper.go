package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

// mustGetConfigHomeDir returns ~/.imfpipe, caching the result. Failure to
// resolve the home directory is fatal since no config can be read without it.
func mustGetConfigHomeDir() string {
	if imfPipeHomeDir == "" {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		imfPipeHomeDir = path.Join(home, MainDir)
	}
	return imfPipeHomeDir
}

// makeDir creates dir if it does not already exist.
func makeDir(dir string) error {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err = os.Mkdir(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %v", dir)
		}
		return nil
	}
	return err
}
