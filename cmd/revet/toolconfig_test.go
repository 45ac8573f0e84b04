package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadToolConfig(t *testing.T) {
	dir := t.TempDir()
	content := "census = \"/etc/census.xml\"\nvcs = \"hg\"\n"
	if err := os.WriteFile(filepath.Join(dir, toolConfigName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	conf, err := loadToolConfig(dir)
	if err != nil {
		t.Fatalf("loadToolConfig: %v", err)
	}
	if conf.Census != "/etc/census.xml" || conf.VCS != "hg" {
		t.Errorf("conf = %+v", conf)
	}
}

func TestLoadToolConfigMissingFile(t *testing.T) {
	conf, err := loadToolConfig(t.TempDir())
	if err != nil {
		t.Fatalf("a missing config file must not be an error: %v", err)
	}
	if conf != (toolConfig{}) {
		t.Errorf("conf = %+v", conf)
	}
}

func TestOpenRepoRejectsUnknownVCS(t *testing.T) {
	if _, err := openRepo(".", "svn"); err == nil {
		t.Fatal("expected an error for an unknown vcs")
	}
}

func TestChecksCommandListsChecks(t *testing.T) {
	cmd := newChecksCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("checks: %v", err)
	}
	for _, name := range []string{"author", "reviewers", "whitespace", "jcheckconf"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("output is missing %q:\n%s", name, out.String())
		}
	}
}
