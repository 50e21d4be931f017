package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/DrSkyle/assetline/pkg/awsconfig"
	"github.com/DrSkyle/assetline/pkg/lineage"
)

// S3Journal keeps the ledger as a single JSONL object. S3 has no append,
// so Append is read-modify-write; the ledger is low-rate telemetry and a
// serialized writer is acceptable.
type S3Journal struct {
	bucket string
	key    string
	client *s3.Client
	mu     sync.Mutex
	logger *slog.Logger
}

// NewS3 builds a journal from an s3://bucket/prefix URL using the
// default AWS credential chain. A bare bucket or trailing slash gets
// "events.jsonl" appended.
func NewS3(ctx context.Context, s3URL string, logger *slog.Logger) (*S3Journal, error) {
	u, err := url.Parse(s3URL)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return nil, fmt.Errorf("invalid s3 journal url %q", s3URL)
	}

	cfg, err := awsconfig.Load(ctx, "", "")
	if err != nil {
		return nil, err
	}

	key := strings.TrimPrefix(u.Path, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints mean LocalStack or MinIO; both need path-style.
		o.UsePathStyle = os.Getenv("AWS_ENDPOINT_URL") != ""
	})
	return NewS3WithClient(client, u.Host, key, logger), nil
}

// NewS3WithClient wires an explicit client, used by tests and embedders
// that already hold AWS configuration.
func NewS3WithClient(client *s3.Client, bucket, key string, logger *slog.Logger) *S3Journal {
	if key == "" || strings.HasSuffix(key, "/") {
		key += "events.jsonl"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Journal{bucket: bucket, key: key, client: client, logger: logger}
}

func (j *S3Journal) Append(ctx context.Context, ev *lineage.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	existing, err := j.readRaw(ctx)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		existing = nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if n := len(existing); n > 0 && existing[n-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(data)
	buf.WriteByte('\n')

	_, err = j.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(j.key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	return err
}

func (j *S3Journal) ReadAll(ctx context.Context) ([]*lineage.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	raw, err := j.readRaw(ctx)
	if err != nil {
		if isNotFound(err) {
			return []*lineage.Event{}, nil
		}
		return nil, err
	}

	var events []*lineage.Event
	line := 0
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev lineage.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			j.logger.Warn("skipping journal record", "bucket", j.bucket, "key", j.key, "line", line, "error", ErrCorruptRecord)
			continue
		}
		events = append(events, &ev)
	}
	return events, scanner.Err()
}

func (j *S3Journal) readRaw(ctx context.Context) ([]byte, error) {
	resp, err := j.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(j.key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	// GetObject on a key that never existed surfaces NoSuchKey; some
	// S3-compatible stores answer 404 NotFound instead.
	var nf *types.NotFound
	return errors.As(err, &nf)
}
