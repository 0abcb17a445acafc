package version

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHelperProcess isn't a real test. It stands in for git.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 3 || args[0] != "git" || args[1] != "describe" {
		os.Exit(0)
	}

	switch args[2] {
	case "--always":
		if os.Getenv("MOCK_GIT_COMMIT_FAIL") == "1" {
			os.Exit(1)
		}
		_, _ = os.Stdout.WriteString("mock-commit-hash")
	case "--tags":
		if os.Getenv("MOCK_GIT_VERSION_FAIL") == "1" {
			os.Exit(1)
		}
		if os.Getenv("MOCK_GIT_VERSION_EMPTY") != "1" {
			_, _ = os.Stdout.WriteString("v1.0.0\n")
		}
	}
}

func mockExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", command}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	for _, name := range []string{"MOCK_GIT_COMMIT_FAIL", "MOCK_GIT_VERSION_FAIL", "MOCK_GIT_VERSION_EMPTY"} {
		if val := os.Getenv(name); val != "" {
			cmd.Env = append(cmd.Env, name+"="+val)
		}
	}
	return cmd
}

func TestInfo(t *testing.T) {
	origExecCommand := execCommand
	t.Cleanup(func() {
		execCommand = origExecCommand
		Reset()
	})
	execCommand = mockExecCommand

	tests := []struct {
		name           string
		env            string
		expectedVer    string
		expectedCommit string
	}{
		{name: "Success", expectedVer: "1.0.0", expectedCommit: "mock-commit-hash"},
		{name: "CommitFail", env: "MOCK_GIT_COMMIT_FAIL", expectedVer: "1.0.0", expectedCommit: "unknown"},
		{name: "VersionFail", env: "MOCK_GIT_VERSION_FAIL", expectedVer: "dev", expectedCommit: "mock-commit-hash"},
		{name: "VersionEmpty", env: "MOCK_GIT_VERSION_EMPTY", expectedVer: "dev", expectedCommit: "mock-commit-hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			if tt.env != "" {
				t.Setenv(tt.env, "1")
			}

			assert.Equal(t, tt.expectedVer, GetVersion())
			assert.Equal(t, tt.expectedCommit, GetCommit())

			info := Info()
			assert.True(t, strings.HasPrefix(info, Name+" "+tt.expectedVer))
			assert.Contains(t, info, tt.expectedCommit)
		})
	}
}

func TestLdflagsWin(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	Version, Commit, Date = "2.3.4", "abc123", "2024-01-02"

	assert.Equal(t, "2.3.4", GetVersion())
	assert.Equal(t, "abc123", GetCommit())
	assert.Equal(t, "2024-01-02", GetDate())
}

func TestGetDate(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	assert.NotEmpty(t, GetDate())
}
