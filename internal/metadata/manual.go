package metadata

import (
	"context"
	"fmt"

	"github.com/vmunix/trackarr/internal/library"
)

// Manual serves items the user entered by hand. There is no catalog behind
// them, so lengths are unknown and TV shows have no season list.
type Manual struct {
	Image string
}

// Metadata implements Provider.
func (m Manual) Metadata(_ context.Context, q Query) (*Media, error) {
	if q.Source != library.SourceManual {
		return nil, fmt.Errorf("manual provider asked for %s: %w", q.Source, ErrUnsupportedSource)
	}
	media := &Media{Image: m.Image}
	if q.Type == library.MediaMovie {
		one := 1
		media.MaxProgress = &one
	}
	return media, nil
}
