package services

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"studynotes-dashboard/internal/models"
)

type CommunityBackend interface {
	ListPublicNotes(ctx context.Context, sort string, limit int) ([]models.CommunityNote, error)
	LikeNote(ctx context.Context, noteID string) (*models.LikeResult, error)
	UnlikeNote(ctx context.Context, noteID string) (*models.LikeResult, error)
	GetCommunityStats(ctx context.Context) (*models.CommunityStats, error)
	GetAchievements(ctx context.Context) ([]models.Achievement, error)
}

type CommunityService struct {
	backend CommunityBackend
	now     func() time.Time
}

func NewCommunityService(backend CommunityBackend) *CommunityService {
	return &CommunityService{backend: backend, now: time.Now}
}

type Overview struct {
	Stats        models.CommunityStats `json:"stats"`
	Achievements []models.Achievement  `json:"achievements"`
}

// Overview loads stats and achievements side by side. A failing half is
// logged and left empty so it never blocks the other.
func (s *CommunityService) Overview(ctx context.Context) *Overview {
	out := &Overview{Achievements: []models.Achievement{}}

	var g errgroup.Group
	g.Go(func() error {
		stats, err := s.backend.GetCommunityStats(ctx)
		if err != nil {
			log.Printf("community stats unavailable: %v", err)
			return nil
		}
		out.Stats = *stats
		return nil
	})
	g.Go(func() error {
		achievements, err := s.backend.GetAchievements(ctx)
		if err != nil {
			log.Printf("achievements unavailable: %v", err)
			return nil
		}
		if achievements != nil {
			out.Achievements = achievements
		}
		return nil
	})
	_ = g.Wait()

	return out
}

// TrendingScore weighs likes double against views and decays with age.
func TrendingScore(n models.CommunityNote, now time.Time) float64 {
	ageHours := 0.0
	if !n.CreatedAt.IsZero() {
		ageHours = math.Max(0, now.Sub(n.CreatedAt.Time).Hours())
	}
	return float64(n.LikeCount*2+n.ViewCount) / math.Pow(ageHours+2, 1.5)
}

// Trending lists public notes ranked by TrendingScore, highest first.
func (s *CommunityService) Trending(ctx context.Context, limit int) ([]models.CommunityNote, error) {
	notes, err := s.backend.ListPublicNotes(ctx, "recent", limit)
	if err != nil {
		return nil, translate(err)
	}

	now := s.now()
	for i := range notes {
		notes[i].TrendingScore = TrendingScore(notes[i], now)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].TrendingScore > notes[j].TrendingScore
	})
	if notes == nil {
		notes = []models.CommunityNote{}
	}
	return notes, nil
}

func (s *CommunityService) List(ctx context.Context, sortBy string, limit int) ([]models.CommunityNote, error) {
	if sortBy == "trending" {
		return s.Trending(ctx, limit)
	}
	notes, err := s.backend.ListPublicNotes(ctx, sortBy, limit)
	if notes == nil {
		notes = []models.CommunityNote{}
	}
	return notes, translate(err)
}

// ToggleLike flips the like on the card right away and undoes it if the
// backend call fails. A like count reported by the backend replaces the
// local guess.
func (s *CommunityService) ToggleLike(ctx context.Context, note *models.CommunityNote) error {
	wasLiked, prevCount := note.IsLiked, note.LikeCount

	return Optimistic(ctx,
		func() {
			note.IsLiked = !wasLiked
			if wasLiked {
				note.LikeCount = max(0, prevCount-1)
			} else {
				note.LikeCount = prevCount + 1
			}
		},
		func() {
			note.IsLiked, note.LikeCount = wasLiked, prevCount
		},
		func(ctx context.Context) error {
			var (
				res *models.LikeResult
				err error
			)
			if wasLiked {
				res, err = s.backend.UnlikeNote(ctx, note.ID)
			} else {
				res, err = s.backend.LikeNote(ctx, note.ID)
			}
			if err != nil {
				return translate(err)
			}
			if res != nil && res.LikeCount != nil {
				note.LikeCount = *res.LikeCount
			}
			return nil
		},
	)
}
