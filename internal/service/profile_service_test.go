package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"hostel-portal/internal/model"
)

type fakeProfileBackend struct {
	profile   model.Profile
	updated   *model.ProfileUpdate
	uploadErr error
	uploaded  []byte
	uploadCT  string
	deleted   bool
	onUpload  func()
}

func (f *fakeProfileBackend) Me(context.Context, string) (model.Profile, error) {
	return f.profile, nil
}

func (f *fakeProfileBackend) UpdateProfile(_ context.Context, _ string, u model.ProfileUpdate) (model.Profile, error) {
	f.updated = &u
	p := f.profile
	p.Name, p.Email, p.Phone, p.Designation = u.Name, u.Email, u.Phone, u.Designation
	return p, nil
}

func (f *fakeProfileBackend) UploadProfilePicture(_ context.Context, _, _, contentType string, r io.Reader) (model.PictureResponse, error) {
	if f.onUpload != nil {
		f.onUpload()
	}
	f.uploadCT = contentType
	data, err := io.ReadAll(r)
	if err != nil {
		return model.PictureResponse{}, err
	}
	if f.uploadErr != nil {
		return model.PictureResponse{}, f.uploadErr
	}
	f.uploaded = data
	return model.PictureResponse{ProfilePicture: "/uploads/p.png"}, nil
}

func (f *fakeProfileBackend) DeleteProfilePicture(context.Context, string) error {
	f.deleted = true
	return nil
}

func TestProfileServiceUpdateTrimsAndValidates(t *testing.T) {
	backend := &fakeProfileBackend{profile: model.Profile{Username: "bob"}}
	svc := NewProfileService(backend, 1024)

	p, err := svc.Update(context.Background(), bob, model.ProfileUpdate{
		Name:  "  Bob Builder ",
		Email: "bob@example.com",
		Phone: "+91 98765 43210",
	})
	if err != nil {
		t.Fatalf("Update() err = %v", err)
	}
	if p.Name != "Bob Builder" || backend.updated.Name != "Bob Builder" {
		t.Fatalf("name not trimmed: %q", p.Name)
	}
}

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name string
		in   model.ProfileUpdate
		ok   bool
	}{
		{"minimal", model.ProfileUpdate{Name: "A"}, true},
		{"missing name", model.ProfileUpdate{Email: "a@b.co"}, false},
		{"bad email", model.ProfileUpdate{Name: "A", Email: "not-an-email"}, false},
		{"bad phone", model.ProfileUpdate{Name: "A", Phone: "12ab"}, false},
		{"long name", model.ProfileUpdate{Name: strings.Repeat("x", 101)}, false},
		{"full", model.ProfileUpdate{Name: "A", Email: "a@b.co", Phone: "0123-456-789"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("unexpected err %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("err = %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestProfileServiceUpload(t *testing.T) {
	backend := &fakeProfileBackend{}
	svc := NewProfileService(backend, 16)

	resp, err := svc.UploadPicture(context.Background(), bob, "p.png", "image/PNG; charset=binary", 4, bytes.NewReader([]byte("abcd")))
	if err != nil {
		t.Fatalf("UploadPicture() err = %v", err)
	}
	if resp.ProfilePicture == "" || string(backend.uploaded) != "abcd" || backend.uploadCT != "image/png" {
		t.Fatalf("resp = %+v uploaded = %q ct = %q", resp, backend.uploaded, backend.uploadCT)
	}
	if svc.Uploading(bob) {
		t.Fatal("uploading flag left set")
	}
}

func TestProfileServiceUploadRejections(t *testing.T) {
	svc := NewProfileService(&fakeProfileBackend{}, 4)

	if _, err := svc.UploadPicture(context.Background(), bob, "a.pdf", "application/pdf", 1, strings.NewReader("x")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("pdf err = %v", err)
	}
	if _, err := svc.UploadPicture(context.Background(), bob, "a.png", "image/png", 5, strings.NewReader("12345")); !errors.Is(err, ErrPictureTooLarge) {
		t.Fatalf("declared size err = %v", err)
	}
	if _, err := svc.UploadPicture(context.Background(), bob, "a.png", "image/png", -1, strings.NewReader("123456789")); !errors.Is(err, ErrPictureTooLarge) {
		t.Fatalf("streamed size err = %v", err)
	}
	if svc.Uploading(bob) {
		t.Fatal("uploading flag left set after rejection")
	}
}

func TestProfileServiceUploadFlagClearedAfterFailure(t *testing.T) {
	boom := errors.New("backend 500")
	backend := &fakeProfileBackend{uploadErr: boom}
	svc := NewProfileService(backend, 0)

	backend.onUpload = func() {
		if !svc.Uploading(bob) {
			t.Error("flag not set during upload")
		}
		if _, err := svc.UploadPicture(context.Background(), bob, "b.png", "image/png", 1, strings.NewReader("y")); !errors.Is(err, ErrUploadInProgress) {
			t.Errorf("concurrent upload err = %v, want ErrUploadInProgress", err)
		}
	}

	if _, err := svc.UploadPicture(context.Background(), bob, "a.png", "image/png", 1, strings.NewReader("x")); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
	if svc.Uploading(bob) {
		t.Fatal("uploading flag left set after failure")
	}
}

func TestProfileServiceDeletePicture(t *testing.T) {
	backend := &fakeProfileBackend{}
	svc := NewProfileService(backend, 0)

	if err := svc.DeletePicture(context.Background(), bob); err != nil {
		t.Fatal(err)
	}
	if !backend.deleted {
		t.Fatal("backend delete not called")
	}
}
