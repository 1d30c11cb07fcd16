package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
)

// GetProfile fetches the signed-in user's profile
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result User
	if err := c.get(ctx, "/users/profile", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProfile saves the editable profile fields
func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Bio) > constant.MaxBioLength {
		return nil, errcode.ErrBioTooLong
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.put(ctx, "/users/profile", req, &raw); err != nil {
		return nil, err
	}
	// {success, user} or the bare user
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &user, nil
}

// UploadProfilePicture replaces the profile picture and returns its new URL
func (c *Client) UploadProfilePicture(ctx context.Context, file *FileUpload) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	if err := ValidateImage(file); err != nil {
		return "", err
	}
	part := &FileUpload{Field: "profilePicture", FileName: file.FileName, Data: file.Data}
	var result struct {
		ProfilePicture string `json:"profilePicture"`
	}
	if err := c.multipart(ctx, "/users/profile/picture", nil, []*FileUpload{part}, &result); err != nil {
		return "", err
	}
	return result.ProfilePicture, nil
}

// VerifyFace submits a face image for identity verification and returns the server's message
func (c *Client) VerifyFace(ctx context.Context, file *FileUpload) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	if err := ValidateImage(file); err != nil {
		return "", err
	}
	part := &FileUpload{Field: "faceImage", FileName: file.FileName, Data: file.Data}
	var result struct {
		Message string `json:"message"`
	}
	if err := c.multipart(ctx, "/users/verify-face", nil, []*FileUpload{part}, &result); err != nil {
		return "", err
	}
	if result.Message == "" {
		result.Message = "Face verification successful!"
	}
	return result.Message, nil
}

// GetProfileStats computes the profile counters from the user's posts and exchange history.
// A failing history fetch counts as no exchanges.
func (c *Client) GetProfileStats(ctx context.Context, userId string) (*ProfileStats, error) {
	posts, err := c.GetUserPosts(ctx, userId)
	if err != nil {
		return nil, err
	}
	exchanges, err := c.GetExchangeHistory(ctx)
	if err != nil {
		exchanges = nil
	}
	return ComputeProfileStats(posts, exchanges), nil
}

// ComputeProfileStats derives the profile counters
func ComputeProfileStats(posts []*Post, exchanges []*ExchangeRequest) *ProfileStats {
	stats := &ProfileStats{PostsCount: len(posts)}
	for _, p := range posts {
		if p == nil {
			continue
		}
		stats.TotalViews += p.Views
		stats.TotalInterests += p.InterestCount
	}
	for _, e := range exchanges {
		if e != nil && e.Status == constant.ExchangeStatusCompleted {
			stats.ExchangesCompleted++
		}
	}
	return stats
}
