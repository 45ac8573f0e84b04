package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/revet-dev/revet/pkg/repo"
)

// toolConfig is the optional .revet.toml file next to the repository,
// supplying defaults for the flags every invocation would otherwise repeat.
type toolConfig struct {
	// Census is the path to a census XML file.
	Census string `toml:"census"`
	// Conf is the path to a configuration file overriding the in-repo
	// .jcheck/conf for every commit.
	Conf string `toml:"conf"`
	// VCS selects the repository reader: git, hg or gogit.
	VCS string `toml:"vcs"`
}

const toolConfigName = ".revet.toml"

// loadToolConfig reads dir's .revet.toml. A missing file is not an error.
func loadToolConfig(dir string) (toolConfig, error) {
	var conf toolConfig
	path := filepath.Join(dir, toolConfigName)
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return conf, nil
		}
		return conf, fmt.Errorf("load %s: %w", path, err)
	}
	return conf, nil
}

// openRepo selects a repository reader for dir. The default exec-backed git
// reader needs a git binary on PATH; gogit reads the repository in process.
func openRepo(dir, vcs string) (repo.ReadOnly, error) {
	switch vcs {
	case "", "git":
		return repo.NewGit(dir), nil
	case "hg":
		return repo.NewHg(dir), nil
	case "gogit":
		return repo.OpenGoGit(dir)
	}
	return nil, fmt.Errorf("unknown vcs %q (want git, hg or gogit)", vcs)
}

// detectVCS picks hg when the directory carries .hg metadata but no .git.
func detectVCS(dir string) string {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return "git"
	}
	if _, err := os.Stat(filepath.Join(dir, ".hg")); err == nil {
		return "hg"
	}
	return "git"
}
