package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
)

// GetLatestPosts lists the marketplace feed
func (c *Client) GetLatestPosts(ctx context.Context) ([]*Post, error) {
	var result []*Post
	if err := c.get(ctx, "/posts/latest", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRecommendedPosts lists posts recommended for the current user
func (c *Client) GetRecommendedPosts(ctx context.Context) ([]*Post, error) {
	var result []*Post
	if err := c.get(ctx, "/posts/recommended", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserPosts lists the posts of one user
func (c *Client) GetUserPosts(ctx context.Context, userId string) ([]*Post, error) {
	var result []*Post
	if err := c.get(ctx, "/posts/user/"+userId, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreatePost uploads a new post with one to four images
func (c *Client) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if len(req.Images) == 0 {
		return nil, errcode.ErrNoImages
	}
	if len(req.Images) > constant.MaxPostImages {
		return nil, errcode.ErrTooManyImages
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	for _, img := range req.Images {
		if err := ValidateImage(img); err != nil {
			return nil, err
		}
	}

	location := req.Location
	if location == nil || location.Address == "" {
		location = &Location{Coordinates: []float64{90.3563, 23.6850}, Address: "Dhaka, Bangladesh"}
	}
	locationJSON, err := json.Marshal(location)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}

	fields := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"price":       strconv.Itoa(req.Price),
		"category":    req.Category,
		"condition":   req.Condition,
		"location":    string(locationJSON),
	}
	if req.PostType != "" {
		fields["postType"] = req.PostType
	}
	if req.ExchangeFor != "" {
		fields["exchangeFor"] = req.ExchangeFor
	}

	files := make([]*FileUpload, 0, len(req.Images))
	for _, img := range req.Images {
		files = append(files, &FileUpload{Field: "images", FileName: img.FileName, Data: img.Data})
	}

	var result Post
	if err := c.multipart(ctx, "/posts", fields, files, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeletePost removes one of the current user's posts
func (c *Client) DeletePost(ctx context.Context, postId string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.delete(ctx, "/posts/"+postId, nil)
}

// ExpressInterest toggles interest in a post and returns the updated count
func (c *Client) ExpressInterest(ctx context.Context, postId string) (*InterestResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result InterestResponse
	if err := c.post(ctx, "/posts/"+postId+"/interest", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
