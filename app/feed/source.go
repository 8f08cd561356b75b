package feed

import (
	"context"
	"fmt"
	"log/slog"
)

// Source is one configured feed. Fetch returns the normalized items of a
// single poll: a non-nil error means the poll failed and nothing can be
// said about the feed, while an empty slice is a legitimately empty feed.
type Source struct {
	Config    *Config
	fetcher   *Fetcher
	parser    *Parser
	extractor *ContentExtractor
}

func NewSource(config *Config, fetcher *Fetcher, parser *Parser, extractor *ContentExtractor) *Source {
	return &Source{
		Config:    config,
		fetcher:   fetcher,
		parser:    parser,
		extractor: extractor,
	}
}

func (s *Source) Name() string {
	return s.Config.Name
}

func (s *Source) Fetch(ctx context.Context) ([]Item, error) {
	data, err := s.fetcher.Run(ctx, s.Config.URL, s.Config.Settings.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	items, err := s.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if max := s.Config.Settings.MaxItems; max > 0 && len(items) > max {
		items = items[:max]
	}

	if s.Config.Settings.ExtractContent && s.extractor != nil {
		s.extractContent(ctx, items)
	}

	return items, nil
}

// extractContent swaps the feed-provided body for the readable article
// body. Extraction failures keep the feed-provided body; fingerprints are
// recomputed so they always cover the body that gets pushed.
func (s *Source) extractContent(ctx context.Context, items []Item) {
	for i := range items {
		if items[i].Link == "" {
			continue
		}

		data, err := s.fetcher.Run(ctx, items[i].Link, s.Config.Settings.Timeout)
		if err != nil {
			slog.Debug("Content extraction fetch failed", "feed", s.Config.Name, "link", items[i].Link, "error", err)
			continue
		}

		content, err := s.extractor.Run(items[i].Link, data)
		if err != nil {
			slog.Debug("Content extraction failed", "feed", s.Config.Name, "link", items[i].Link, "error", err)
			continue
		}

		items[i].Body = content
		items[i].Fingerprint = s.parser.generateFingerprint(items[i])
	}
}
