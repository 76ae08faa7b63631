// Package main decodes one node of an EPT dataset, logs a summary of it and optionally
// writes it out as a point cloud file.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/ept/config"
	"go.viam.com/ept/dataset"
	"go.viam.com/ept/ept"
	"go.viam.com/ept/loader"
	"go.viam.com/ept/pointcloud"
	"go.viam.com/ept/pool"
)

var (
	logger = golog.NewDevelopmentLogger("eptdecode")

	stdout io.Writer = os.Stdout
)

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=config file (yaml, json or toml)"`
	Root       string `flag:"root,usage=dataset directory or http(s) url"`
	Key        string `flag:"key,usage=node key as D-X-Y-Z (default 0-0-0-0)"`
	Channels   string `flag:"channels,usage=comma separated extra dimensions to decode"`
	Out        string `flag:"out,usage=write the node to a .pcd or .las file"`
	Misaligned string `flag:"misaligned,usage=reject or truncate partial trailing records"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg, err := config.Load(afero.NewOsFs(), argsParsed.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyArguments(cfg, argsParsed); err != nil {
		return err
	}
	if err := cfg.Validate("config"); err != nil {
		return err
	}

	key := dataset.RootKey
	if argsParsed.Key != "" {
		if key, err = dataset.ParseKey(argsParsed.Key); err != nil {
			return err
		}
	}
	return decodeNode(ctx, cfg, key, argsParsed.Out, logger)
}

// applyArguments lets flags override the loaded config.
func applyArguments(cfg *config.Config, args Arguments) error {
	if args.Root != "" {
		cfg.Root = args.Root
	}
	if args.Channels != "" {
		cfg.Channels = splitChannels(args.Channels)
	}
	if args.Misaligned != "" {
		policy, err := ept.ParseMisalignedPolicy(args.Misaligned)
		if err != nil {
			return err
		}
		cfg.Misaligned = policy
	}
	return nil
}

func splitChannels(s string) []string {
	return lo.FilterMap(strings.Split(s, ","), func(name string, _ int) (string, bool) {
		name = strings.TrimSpace(name)
		return name, name != ""
	})
}

func newSource(cfg *config.Config) loader.Source {
	if cfg.IsRemote() {
		return loader.NewHTTPSource(&http.Client{}, cfg.Root, cfg.Retries)
	}
	return loader.NewFileSource(afero.NewOsFs(), cfg.Root)
}

func decodeNode(ctx context.Context, cfg *config.Config, key dataset.Key, out string, logger golog.Logger) error {
	if cfg.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	decoder := ept.NewDecoder(ept.Options{Misaligned: cfg.Misaligned}, logger)
	workers, err := pool.New(cfg.Workers, cfg.Queue, decoder, logger)
	if err != nil {
		return err
	}
	defer workers.Close()

	l, err := loader.Open(ctx, newSource(cfg), workers, cfg.Channels, logger)
	if err != nil {
		return err
	}
	node, err := l.Load(ctx, key)
	if err != nil {
		return err
	}

	summary, err := ept.Summarize(node.Result)
	if err != nil {
		return err
	}
	logger.Infow("decoded node",
		"key", key.String(),
		"points", node.NumPoints,
		"min", node.TightBoundingBox.Min,
		"max", node.TightBoundingBox.Max,
		"mean", node.Mean,
		"two_byte_color", node.TwoByteColor,
	)
	for _, as := range summary.Attributes {
		logger.Infow("attribute", "name", as.Name, "min", as.Min, "max", as.Max, "mean", as.Mean, "median", as.Median)
	}
	if len(summary.ClassCounts) > 0 {
		logger.Infow("classes", "counts", summary.ClassCounts)
	}
	fmt.Fprintln(stdout, summary)

	if out == "" {
		return nil
	}
	if err := writeNode(node, out); err != nil {
		return err
	}
	logger.Infow("wrote node", "file", out)
	return nil
}

// writeNode writes node in dataset coordinates to a file whose format follows its extension.
func writeNode(node *loader.Node, fn string) error {
	cloud, err := pointcloud.FromNode(node.Result, node.Bounds.Min)
	if err != nil {
		return err
	}
	switch filepath.Ext(fn) {
	case ".las":
		return pointcloud.WriteToLASFile(cloud, fn)
	case ".pcd":
		return writePCD(cloud, fn)
	default:
		return errors.Errorf("do not know how to write %q, want .pcd or .las", fn)
	}
}

func writePCD(cloud pointcloud.PointCloud, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.ToPCD(cloud, f, pointcloud.PCDBinary)
}
