package model

import (
	"context"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/mchmarny/cherry/pkg/net"
	"github.com/pkg/errors"
)

// ReadURL downloads an artifact, the format is derived from the URL path.
// A 404 is reported as bayes.ErrModelUnavailable.
func ReadURL(ctx context.Context, rawURL string) (*Artifact, error) {
	format, err := FormatOf(net.PathOf(rawURL))
	if err != nil {
		return nil, err
	}
	b, err := net.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, net.ErrorURLNotFound) {
			return nil, errors.Wrapf(bayes.ErrModelUnavailable, "artifact not found: %s", rawURL)
		}
		return nil, errors.Wrapf(err, "error fetching artifact: %s", rawURL)
	}
	return Decode(format, b)
}

// Read loads an artifact from a local path or an http(s) URL.
func Read(ctx context.Context, src string) (*Artifact, error) {
	if net.IsURL(src) {
		return ReadURL(ctx, src)
	}
	return ReadFile(src)
}
