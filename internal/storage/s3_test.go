package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/filmorate/backend/internal/config"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(input.Body)
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, string(body))
	return &manager.UploadOutput{}, nil
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.Archive{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestNewS3StorageWithCustomEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	s, err := NewS3Storage(context.Background(), config.Archive{
		Bucket:        "filmorate-exports",
		Endpoint:      "http://localhost:9000",
		Region:        "us-east-1",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.baseURL != "https://cdn.example.com" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", s.baseURL)
	}
	if _, err := s.Save(context.Background(), "/", strings.NewReader("{}")); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSaveReturnsLocation(t *testing.T) {
	up := &fakeUploader{}

	s := newS3Storage(up, config.Archive{Bucket: "filmorate-exports"})
	loc, err := s.Save(context.Background(), "/exports/films.json", strings.NewReader(`{"films":[]}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if loc != "s3://filmorate-exports/exports/films.json" {
		t.Fatalf("unexpected location %q", loc)
	}
	if got := aws.ToString(up.inputs[0].Key); got != "exports/films.json" {
		t.Fatalf("expected leading slash to be trimmed, got %q", got)
	}
	if got := aws.ToString(up.inputs[0].ContentType); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if up.bodies[0] != `{"films":[]}` {
		t.Fatalf("unexpected body %q", up.bodies[0])
	}

	public := newS3Storage(up, config.Archive{Bucket: "filmorate-exports", PublicBaseURL: "https://cdn.example.com/"})
	loc, err = public.Save(context.Background(), "films.json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if loc != "https://cdn.example.com/films.json" {
		t.Fatalf("unexpected public location %q", loc)
	}
}

func TestSaveWrapsUploadErrors(t *testing.T) {
	boom := errors.New("bucket unreachable")
	s := newS3Storage(&fakeUploader{err: boom}, config.Archive{Bucket: "filmorate-exports"})

	if _, err := s.Save(context.Background(), "films.json", strings.NewReader("{}")); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}
