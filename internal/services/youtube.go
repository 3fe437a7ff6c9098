package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"studynotes-dashboard/internal/models"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type videoLookup interface {
	GetVideoContext(ctx context.Context, id string) (*yt.Video, error)
}

// VideoResolver turns a pasted YouTube link into the video fields a note
// creation request carries.
type VideoResolver struct {
	lookup        videoLookup
	lookupTimeout time.Duration
}

func NewVideoResolver() *VideoResolver {
	return &VideoResolver{
		lookup:        &yt.Client{},
		lookupTimeout: 10 * time.Second,
	}
}

// ExtractVideoID accepts watch, short, embed and youtu.be links as well as
// a bare id.
func ExtractVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("video URL is required")
	}
	if strings.Contains(rawURL, "/shorts/") {
		rawURL = strings.Replace(rawURL, "/shorts/", "/embed/", 1)
	}

	id, err := yt.ExtractVideoID(rawURL)
	if err != nil {
		return "", fmt.Errorf("not a YouTube video link: %w", err)
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("not a YouTube video link")
	}
	return id, nil
}

// Resolve extracts the id and fills in what metadata YouTube will give us.
// Metadata is best effort; a failed lookup still yields a usable video with
// the conventional thumbnail and the caller's title.
func (r *VideoResolver) Resolve(ctx context.Context, rawURL, title string) (models.Video, error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return models.Video{}, &ValidationError{Fields: map[string]string{"url": "Enter a valid YouTube video URL"}}
	}

	video := models.Video{
		ID:           id,
		Title:        strings.TrimSpace(title),
		ThumbnailURL: fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id),
	}

	if r.lookup != nil {
		lookupCtx := ctx
		if r.lookupTimeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
			defer cancel()
		}

		meta, err := r.lookup.GetVideoContext(lookupCtx, id)
		if err != nil {
			log.Printf("video metadata lookup failed for %s: %v", id, err)
		} else if meta != nil {
			if video.Title == "" {
				video.Title = meta.Title
			}
			video.Creator = meta.Author
			video.DurationSeconds = int(meta.Duration.Seconds())
			if best := bestThumbnail(meta.Thumbnails); best != "" {
				video.ThumbnailURL = best
			}
		}
	}

	if video.Title == "" {
		video.Title = "YouTube video " + id
	}
	return video, nil
}

func bestThumbnail(thumbs yt.Thumbnails) string {
	var best yt.Thumbnail
	for _, t := range thumbs {
		if t.Width*t.Height > best.Width*best.Height {
			best = t
		}
	}
	return best.URL
}
