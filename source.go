package video_downloader

import (
	"context"
)

// SourceInfo describes a video once a Source has been resolved.
type SourceInfo struct {
	ID    string
	Title string
	// Ext is the file extension of the selected stream, without the leading ".".
	Ext string
	// Size is the expected download size in bytes, or 0 if unknown.
	Size int64
}

// ReconOptions carries the per-download preferences used when resolving a Source.
type ReconOptions struct {
	// Resolution is the preferred video resolution, e.g. "360p". Providers that have no notion of resolution ignore it.
	Resolution string
}

type Source interface {
	// URL should return the canonical URL for this source. It is assumed that the Provider.Match that created the
	// Source would successfully match this canonical URL.
	URL() string
	// Recon should fetch the information needed to pick a stream and name the target file.
	Recon(ctx context.Context, opts ReconOptions) (ResolvedSource, error)
}

type ResolvedSource interface {
	Info() SourceInfo
	// Download should fetch the actual video into the named file of the Download.
	Download(d Download, filename string) error
}
