package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/ept/ept"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Root, test.ShouldEqual, "")
	test.That(t, cfg.Workers, test.ShouldEqual, runtime.GOMAXPROCS(0))
	test.That(t, cfg.Queue, test.ShouldEqual, 64)
	test.That(t, cfg.Channels, test.ShouldBeEmpty)
	test.That(t, cfg.Misaligned, test.ShouldEqual, ept.MisalignedReject)
	test.That(t, cfg.Retries, test.ShouldEqual, uint64(3))
	test.That(t, cfg.Timeout, test.ShouldEqual, 30*time.Second)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(fs, "/etc/ept.yaml", []byte(`
root: /data/autzen
workers: 2
queue: 8
channels: [GpsTime, ScanAngleRank]
misaligned: truncate
retries: 5
timeout: 1500ms
`), 0o644), test.ShouldBeNil)

	cfg, err := Load(fs, "/etc/ept.yaml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Root, test.ShouldEqual, "/data/autzen")
	test.That(t, cfg.Workers, test.ShouldEqual, 2)
	test.That(t, cfg.Queue, test.ShouldEqual, 8)
	test.That(t, cfg.Channels, test.ShouldResemble, []string{"GpsTime", "ScanAngleRank"})
	test.That(t, cfg.Misaligned, test.ShouldEqual, ept.MisalignedTruncate)
	test.That(t, cfg.Retries, test.ShouldEqual, uint64(5))
	test.That(t, cfg.Timeout, test.ShouldEqual, 1500*time.Millisecond)
	test.That(t, cfg.Validate("config"), test.ShouldBeNil)
	test.That(t, cfg.IsRemote(), test.ShouldBeFalse)
}

func TestLoadEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(fs, "ept.json", []byte(`{"root": "/from/file", "workers": 2}`), 0o644), test.ShouldBeNil)

	t.Setenv("EPT_ROOT", "https://example.com/ept")
	t.Setenv("EPT_CHANNELS", "GpsTime,Origin")

	cfg, err := Load(fs, "ept.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Root, test.ShouldEqual, "https://example.com/ept")
	test.That(t, cfg.Workers, test.ShouldEqual, 2)
	test.That(t, cfg.Channels, test.ShouldResemble, []string{"GpsTime", "Origin"})
	test.That(t, cfg.IsRemote(), test.ShouldBeTrue)
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "missing.yaml")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing.yaml")

	test.That(t, afero.WriteFile(fs, "bad.yaml", []byte("misaligned: sometimes\n"), 0o644), test.ShouldBeNil)
	_, err = Load(fs, "bad.yaml")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sometimes")
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Workers:  0,
		Queue:    -1,
		Channels: []string{"GpsTime", "GpsTime", ""},
		Timeout:  -time.Second,
	}
	err := cfg.Validate("config")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 6)
	test.That(t, err.Error(), test.ShouldContainSubstring, "root")
	test.That(t, err.Error(), test.ShouldContainSubstring, "workers must be at least 1")
	test.That(t, err.Error(), test.ShouldContainSubstring, `channel "GpsTime" requested more than once`)

	cfg = Config{Root: "/data", Workers: 1}
	test.That(t, cfg.Validate("config"), test.ShouldBeNil)
}
