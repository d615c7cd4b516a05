package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"hostel-portal/internal/model"
	"hostel-portal/internal/session"
	"hostel-portal/pkg/logger"
)

var (
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrUploadInProgress = errors.New("a picture upload is already in progress")
	ErrUnsupportedImage = errors.New("profile picture must be a JPEG, PNG, GIF or WebP image")
	ErrPictureTooLarge  = errors.New("profile picture is too large")
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}[0-9]$`)
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type ProfileBackend interface {
	Me(ctx context.Context, token string) (model.Profile, error)
	UpdateProfile(ctx context.Context, token string, update model.ProfileUpdate) (model.Profile, error)
	UploadProfilePicture(ctx context.Context, token, filename, contentType string, r io.Reader) (model.PictureResponse, error)
	DeleteProfilePicture(ctx context.Context, token string) error
}

type ProfileService struct {
	backend  ProfileBackend
	maxBytes int64

	mu        sync.Mutex
	uploading map[string]bool
}

func NewProfileService(backend ProfileBackend, maxPictureBytes int64) *ProfileService {
	return &ProfileService{
		backend:   backend,
		maxBytes:  maxPictureBytes,
		uploading: make(map[string]bool),
	}
}

func (s *ProfileService) Me(ctx context.Context, user session.User) (model.Profile, error) {
	p, err := s.backend.Me(ctx, user.Token)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, user session.User, update model.ProfileUpdate) (model.Profile, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)
	update.Phone = strings.TrimSpace(update.Phone)
	update.Designation = strings.TrimSpace(update.Designation)

	if err := ValidateProfile(update); err != nil {
		return model.Profile{}, err
	}

	p, err := s.backend.UpdateProfile(ctx, user.Token, update)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

func ValidateProfile(u model.ProfileUpdate) error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if len(u.Name) > 100 {
		return fmt.Errorf("%w: name is too long", ErrInvalidProfile)
	}
	if u.Email != "" && !emailPattern.MatchString(u.Email) {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, u.Email)
	}
	if u.Phone != "" && !phonePattern.MatchString(u.Phone) {
		return fmt.Errorf("%w: phone %q is not valid", ErrInvalidProfile, u.Phone)
	}
	return nil
}

// UploadPicture forwards one image. size is the declared length; -1 means
// unknown, in which case the reader is capped and checked while streaming.
func (s *ProfileService) UploadPicture(ctx context.Context, user session.User, filename, contentType string, size int64, r io.Reader) (model.PictureResponse, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !imageTypes[ct] {
		return model.PictureResponse{}, ErrUnsupportedImage
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return model.PictureResponse{}, ErrPictureTooLarge
	}

	if !s.beginUpload(user.Key()) {
		return model.PictureResponse{}, ErrUploadInProgress
	}
	defer s.endUpload(user.Key())

	body := r
	var capped *cappedReader
	if s.maxBytes > 0 {
		capped = &cappedReader{r: r, remaining: s.maxBytes}
		body = capped
	}

	resp, err := s.backend.UploadProfilePicture(ctx, user.Token, filename, ct, body)
	if capped != nil && capped.exceeded {
		return model.PictureResponse{}, ErrPictureTooLarge
	}
	if err != nil {
		logger.WithFields(logger.Fields{"viewer": user.Key()}).WithError(err).Warn("profile picture upload failed")
		return model.PictureResponse{}, fmt.Errorf("failed to upload picture: %w", err)
	}
	return resp, nil
}

func (s *ProfileService) DeletePicture(ctx context.Context, user session.User) error {
	if err := s.backend.DeleteProfilePicture(ctx, user.Token); err != nil {
		return fmt.Errorf("failed to delete picture: %w", err)
	}
	return nil
}

// Uploading reports whether the viewer has an upload in flight.
func (s *ProfileService) Uploading(user session.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading[user.Key()]
}

func (s *ProfileService) beginUpload(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploading[key] {
		return false
	}
	s.uploading[key] = true
	return true
}

func (s *ProfileService) endUpload(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploading, key)
}

// cappedReader fails once more than remaining bytes have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		c.exceeded = true
		return 0, ErrPictureTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		c.exceeded = true
		return n, ErrPictureTooLarge
	}
	return n, err
}
