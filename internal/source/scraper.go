package source

import (
	"context"

	"ragsync/internal/domain"
	"ragsync/internal/logger"
)

// Scraper fetches the help center, refreshes the Markdown files in Dir and
// returns the documents found there.
type Scraper struct {
	Client *HelpCenter
	Dir    string
}

var _ domain.DocumentSource = (*Scraper)(nil)

// Scrape downloads the articles and writes them to s.Dir.
func (s *Scraper) Scrape(ctx context.Context) (int, error) {
	articles, err := s.Client.FetchArticles(ctx)
	if err != nil {
		return 0, err
	}
	n, err := WriteArticles(s.Dir, articles)
	if err != nil {
		return n, err
	}
	logger.Info("saved %d articles to %s", n, s.Dir)
	return n, nil
}

// Documents implements domain.DocumentSource.
func (s *Scraper) Documents(ctx context.Context) ([]domain.Document, error) {
	if _, err := s.Scrape(ctx); err != nil {
		return nil, err
	}
	return Dir{Path: s.Dir}.Documents(ctx)
}
