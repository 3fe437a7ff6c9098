package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"studynotes-dashboard/internal/models"
)

func (c *Client) ListPublicNotes(ctx context.Context, sort string, limit int) ([]models.CommunityNote, error) {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", sort)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/community/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	raw, _, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var notes []models.CommunityNote
	if err := unmarshalList(raw, "notes", &notes); err != nil {
		return nil, fmt.Errorf("list public notes: %w", err)
	}
	return notes, nil
}

func (c *Client) LikeNote(ctx context.Context, noteID string) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodPost, noteID)
}

func (c *Client) UnlikeNote(ctx context.Context, noteID string) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodDelete, noteID)
}

func (c *Client) like(ctx context.Context, method, noteID string) (*models.LikeResult, error) {
	res := models.LikeResult{Liked: method == http.MethodPost}
	if err := c.do(ctx, method, "/community/notes/"+escape(noteID)+"/like", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetCommunityStats(ctx context.Context) (*models.CommunityStats, error) {
	var stats models.CommunityStats
	if err := c.do(ctx, http.MethodGet, "/community/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetAchievements(ctx context.Context) ([]models.Achievement, error) {
	raw, _, err := c.send(ctx, http.MethodGet, "/community/achievements", nil)
	if err != nil {
		return nil, err
	}
	var achievements []models.Achievement
	if err := unmarshalList(raw, "achievements", &achievements); err != nil {
		return nil, fmt.Errorf("get achievements: %w", err)
	}
	return achievements, nil
}
