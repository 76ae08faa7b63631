// Package loader fetches EPT nodes from a dataset and decodes them on a worker pool.
package loader

import (
	"context"
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/ept/dataset"
	"go.viam.com/ept/ept"
)

// UpstreamFailureError is returned when a node could not be fetched.
type UpstreamFailureError struct {
	Key dataset.Key
	Err error
}

func (e *UpstreamFailureError) Error() string {
	return fmt.Sprintf("failed to fetch node %s: %v", e.Key, e.Err)
}

// Unwrap returns the transport error.
func (e *UpstreamFailureError) Unwrap() error {
	return e.Err
}

// NodeDecoder decodes requests, usually by handing them to a pool.
type NodeDecoder interface {
	Decode(ctx context.Context, req ept.Request) (*ept.Result, error)
}

// Node is a decoded octree node.
type Node struct {
	Key    dataset.Key
	Bounds dataset.Bounds
	*ept.Result
}

// Loader loads and decodes nodes of one dataset.
type Loader struct {
	info     *dataset.Info
	source   Source
	decoder  NodeDecoder
	channels []string
	logger   golog.Logger
}

// Open reads the dataset description from source and returns a Loader requesting the
// given channels with every node.
func Open(
	ctx context.Context,
	source Source,
	decoder NodeDecoder,
	channels []string,
	logger golog.Logger,
) (*Loader, error) {
	data, err := source.Read(ctx, dataset.InfoFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading dataset description")
	}
	info, err := dataset.ParseInfo(data)
	if err != nil {
		return nil, err
	}
	return New(info, source, decoder, channels, logger)
}

// New returns a Loader for an already parsed dataset.
func New(
	info *dataset.Info,
	source Source,
	decoder NodeDecoder,
	channels []string,
	logger golog.Logger,
) (*Loader, error) {
	if _, err := info.ChannelDefs(channels); err != nil {
		return nil, err
	}
	return &Loader{
		info:     info,
		source:   source,
		decoder:  decoder,
		channels: channels,
		logger:   logger,
	}, nil
}

// Info returns the dataset description.
func (l *Loader) Info() *dataset.Info {
	return l.info
}

// Hierarchy reads the hierarchy file rooted at k.
func (l *Loader) Hierarchy(ctx context.Context, k dataset.Key) (*dataset.Hierarchy, error) {
	data, err := l.source.Read(ctx, dataset.HierarchyPath("", k))
	if err != nil {
		return nil, &UpstreamFailureError{Key: k, Err: err}
	}
	return dataset.ParseHierarchy(data)
}

// Request builds the decode request for node k around its raw bytes.
func (l *Loader) Request(k dataset.Key, data []byte) ept.Request {
	q := l.info.Quantization()
	return ept.Request{
		Buffer:   ept.NewOwnedBuffer(data),
		Schema:   l.info.PointSchema(),
		Scale:    q.Scale,
		Offset:   q.Offset,
		Mins:     k.Bounds(l.info.Cube()).Min,
		Channels: l.channels,
	}
}

// Load fetches and decodes node k. If ctx ends before the decode finishes its result is
// discarded.
func (l *Loader) Load(ctx context.Context, k dataset.Key) (*Node, error) {
	data, err := l.source.Read(ctx, dataset.NodePath("", k))
	if err != nil {
		l.logger.Warnw("failed to fetch node", "key", k.String(), "error", err)
		return nil, &UpstreamFailureError{Key: k, Err: err}
	}

	res, err := l.decoder.Decode(ctx, l.Request(k, data))
	if err != nil {
		if ctx.Err() != nil {
			l.logger.Debugw("node no longer needed, discarding", "key", k.String())
			return nil, ctx.Err()
		}
		l.logger.Warnw("failed to decode node", "key", k.String(), "error", err)
		return nil, errors.Wrapf(err, "error decoding node %s", k)
	}
	return &Node{Key: k, Bounds: k.Bounds(l.info.Cube()), Result: res}, nil
}

// LoadAll loads every key concurrently. It fails if any node fails.
func (l *Loader) LoadAll(ctx context.Context, keys []dataset.Key) ([]*Node, error) {
	nodes := make([]*Node, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			n, err := l.Load(gctx, k)
			if err != nil {
				return err
			}
			nodes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

type inlineDecoder struct {
	decoder *ept.Decoder
}

// Inline returns a NodeDecoder that decodes on the calling goroutine.
func Inline(decoder *ept.Decoder) NodeDecoder {
	return inlineDecoder{decoder: decoder}
}

func (d inlineDecoder) Decode(ctx context.Context, req ept.Request) (*ept.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.decoder.Decode(req)
}
