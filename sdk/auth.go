package sdk

import "context"

// Login authenticates with email and password.
// The token is stored in the client for subsequent requests.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var result AuthResponse
	if err := c.post(ctx, "/auth/login", req, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// Signup creates an account and signs in with it
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var result AuthResponse
	if err := c.post(ctx, "/auth/signup", req, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// OAuthURL returns the address a browser must visit to sign in with Google
func (c *Client) OAuthURL() string {
	return c.baseURL + "/auth/google"
}
