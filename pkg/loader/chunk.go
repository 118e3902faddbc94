package loader

import (
	"context"
	"time"

	"github.com/yourorg/mapsearch/pkg/listing"
)

// Chunk is one fixed-size slice of a larger batch.
type Chunk struct {
	Items []listing.Listing
	Index int
	Last  bool
}

// Chunks streams items in chunks of size over an unbuffered channel, so each
// chunk is handed off only once the previous one has been taken. pause, if
// positive, spaces the hand-offs. The channel closes after the last chunk or
// when ctx is done.
func Chunks(ctx context.Context, items []listing.Listing, size int, pause time.Duration) <-chan Chunk {
	if size <= 0 {
		size = len(items)
	}
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for i, idx := 0, 0; i < len(items); i, idx = i+size, idx+1 {
			end := min(i+size, len(items))
			if idx > 0 && pause > 0 {
				t := time.NewTimer(pause)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case ch <- Chunk{Items: items[i:end], Index: idx, Last: end == len(items)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
