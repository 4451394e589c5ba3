package sync

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3DestinationWrite(t *testing.T) {
	fake := &fakeS3{}
	dest := newS3Destination(fake, "backups", "exports/current.jsonl")

	if err := dest.Write(context.Background(), []byte("{}\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.Bucket) != "backups" || aws.ToString(in.Key) != "exports/current.jsonl" {
		t.Errorf("put %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "application/x-ndjson" {
		t.Errorf("content type = %q", aws.ToString(in.ContentType))
	}
	if fake.bodies[0] != "{}\n" {
		t.Errorf("body = %q", fake.bodies[0])
	}
}

func TestS3DestinationKeyPrefix(t *testing.T) {
	fake := &fakeS3{}
	dest := newS3Destination(fake, "backups", "exports/")
	dest.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	if err := dest.Write(context.Background(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := aws.ToString(fake.inputs[0].Key), "exports/invtrack-20260304T050607Z.jsonl"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestS3DestinationDefaultKeyAndError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	dest := newS3Destination(fake, "backups", "")
	if dest.key != "invtrack.jsonl" {
		t.Errorf("default key = %q", dest.key)
	}
	if err := dest.Write(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if dest.Name() != "s3" {
		t.Errorf("Name() = %q", dest.Name())
	}
}
