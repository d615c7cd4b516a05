package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"hostel-portal/internal/model"
)

// ErrEmptyReply is returned when the chat endpoint answers 2xx without a
// reply; the widget treats it like any other failure.
var ErrEmptyReply = errors.New("chat endpoint returned an empty reply")

// Chat posts one message to the assistant endpoint.
func (c *Client) Chat(ctx context.Context, token, message string) (string, error) {
	var out model.ChatReply
	if err := c.do(ctx, token, http.MethodPost, "/ai/chat", model.ChatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	if out.Reply == "" {
		return "", ErrEmptyReply
	}
	return out.Reply, nil
}

func (c *Client) ListTickets(ctx context.Context, token string) ([]model.Ticket, error) {
	var out []model.Ticket
	if err := c.do(ctx, token, http.MethodGet, "/query/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateTicketStatus(ctx context.Context, token, id string, status model.TaskStatus) error {
	path := "/query/status/" + url.PathEscape(id)
	return c.do(ctx, token, http.MethodPut, path, model.StatusUpdateBody{Status: status}, nil)
}

// Me fetches the current user's profile. The backend wraps it as
// {"user": {...}} on some deployments, so both shapes are accepted.
func (c *Client) Me(ctx context.Context, token string) (model.Profile, error) {
	var out struct {
		model.Profile
		User *model.Profile `json:"user"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return model.Profile{}, err
	}
	if out.User != nil {
		return *out.User, nil
	}
	return out.Profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update model.ProfileUpdate) (model.Profile, error) {
	var out struct {
		model.Profile
		User *model.Profile `json:"user"`
	}
	if err := c.do(ctx, token, http.MethodPut, "/auth/update-profile", update, &out); err != nil {
		return model.Profile{}, err
	}
	if out.User != nil {
		return *out.User, nil
	}
	return out.Profile, nil
}

// UploadProfilePicture streams the image as multipart field "profilePicture".
func (c *Client) UploadProfilePicture(ctx context.Context, token, filename, contentType string, r io.Reader) (model.PictureResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="profilePicture"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return model.PictureResponse{}, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return model.PictureResponse{}, fmt.Errorf("failed to copy picture: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.PictureResponse{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/upload-profile-picture", &buf)
	if err != nil {
		return model.PictureResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out model.PictureResponse
	if err := c.send(req, token, &out); err != nil {
		return model.PictureResponse{}, err
	}
	return out, nil
}

func (c *Client) DeleteProfilePicture(ctx context.Context, token string) error {
	return c.do(ctx, token, http.MethodDelete, "/users/delete-profile-picture", nil, nil)
}
