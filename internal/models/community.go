package models

type CommunityNote struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"video_id"`
	VideoTitle     string    `json:"video_title"`
	VideoThumbnail string    `json:"video_thumbnail,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	AuthorName     string    `json:"author_name,omitempty"`
	LikeCount      int       `json:"like_count"`
	ViewCount      int       `json:"view_count"`
	IsLiked        bool      `json:"is_liked"`
	IsCertified    bool      `json:"is_certified"`
	CreatedAt      Timestamp `json:"created_at"`
	TrendingScore  float64   `json:"trending_score,omitempty"`
}

type CommunityNoteList struct {
	Notes []CommunityNote `json:"notes"`
}

type CommunityStats struct {
	TotalNotes        int `json:"total_notes"`
	TotalUsers        int `json:"total_users"`
	TotalLikes        int `json:"total_likes"`
	NotesThisWeek     int `json:"notes_this_week"`
	CurrentStreak     int `json:"current_streak"`
	LongestStreak     int `json:"longest_streak"`
	NotesCreated      int `json:"notes_created"`
	FlashcardsStudied int `json:"flashcards_studied"`
}

type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	UnlockedAt  *Timestamp `json:"unlocked_at,omitempty"`
}

type AchievementList struct {
	Achievements []Achievement `json:"achievements"`
}

// LikeResult carries the server's like count when it reports one.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount *int `json:"like_count,omitempty"`
}
