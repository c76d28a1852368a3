package version

import "testing"

func TestUserAgent(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "1.2.0", "unknown"
	if got := UserAgent(); got != "mcsupervisor/1.2.0" {
		t.Errorf("UserAgent() = %q", got)
	}

	GitCommit = "abc1234"
	if got := UserAgent(); got != "mcsupervisor/1.2.0 (abc1234)" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GoVersion == "" || info.Platform == "" {
		t.Errorf("Get() = %+v", info)
	}
}
