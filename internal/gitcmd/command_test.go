package gitcmd

import "testing"

func TestParseCloneCommand(t *testing.T) {
	cmd, err := Build("clone", []string{"https://github.com/user/repo.git"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Subcommand() != "clone" {
		t.Fatalf("wrong subcommand: %s", cmd.Subcommand())
	}
	if cmd.RemoteRef() != "https://github.com/user/repo.git" {
		t.Fatalf("wrong remote ref: %s", cmd.RemoteRef())
	}
	if !cmd.RequiresNetwork() {
		t.Fatal("clone should require network")
	}
}

func TestParsePushCommand(t *testing.T) {
	cmd, err := Build("push", []string{"origin", "main"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.RemoteRef() != "origin" {
		t.Fatalf("wrong remote ref: %s", cmd.RemoteRef())
	}
}

func TestRejectEmptyCommand(t *testing.T) {
	_, err := Build("", nil, "")
	assertKind(t, err, EmptyCommand)
}

func TestRejectDisallowedCommand(t *testing.T) {
	_, err := Build("config", nil, "")
	assertKind(t, err, CommandNotAllowed)
}

func TestRejectDangerousFlag(t *testing.T) {
	_, err := Build("clone", []string{"--exec=malicious"}, "")
	assertKind(t, err, DeniedFlag)
}

func TestRejectNoVerifyFlag(t *testing.T) {
	_, err := Build("push", []string{"--no-verify"}, "")
	assertKind(t, err, DeniedFlag)
}

func TestRejectCFlag(t *testing.T) {
	_, err := Build("clone", []string{"-c", "http.proxy=evil"}, "")
	assertKind(t, err, DeniedFlag)
}

func TestRejectUploadPackWithEqualsForm(t *testing.T) {
	_, err := Build("clone", []string{"--upload-pack=/bin/sh", "https://x/y.git"}, "")
	ce, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected gitcmd.Error, got %T", err)
	}
	if ce.Kind != DeniedFlag {
		t.Fatalf("expected DeniedFlag, got %v", ce.Kind)
	}
	want := "Invalid command: dangerous flag '--upload-pack=/bin/sh' is not allowed"
	got := "Invalid command: " + ce.Error()
	if got != want {
		t.Fatalf("wrong message:\n got: %s\nwant: %s", got, want)
	}
}

func TestRejectRelativeWorkingDir(t *testing.T) {
	_, err := Build("fetch", nil, "./relative/path")
	assertKind(t, err, InvalidCwd)
}

func TestAcceptAbsoluteWorkingDir(t *testing.T) {
	cmd, err := Build("fetch", nil, "/home/user/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Cwd() != "/home/user/repo" {
		t.Fatalf("wrong cwd: %s", cmd.Cwd())
	}
}

func TestBuildArgsIncludesCommandAndArgs(t *testing.T) {
	cmd, err := Build("fetch", []string{"origin"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := cmd.BuildArgs()
	if len(args) != 2 || args[0] != "fetch" || args[1] != "origin" {
		t.Fatalf("wrong build args: %v", args)
	}
}

func TestAllAllowedCommandsAreValid(t *testing.T) {
	for _, c := range Allowed {
		if _, err := Build(c, nil, ""); err != nil {
			t.Fatalf("command %q should be allowed: %v", c, err)
		}
	}
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	ce, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected gitcmd.Error, got %T (%v)", err, err)
	}
	if ce.Kind != want {
		t.Fatalf("wrong error kind: got %v want %v", ce.Kind, want)
	}
}
