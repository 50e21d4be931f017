//go:build e2e

package e2e

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// sampleManifest is a one-pipeline ETL: a report built from a raw file,
// with a row count recorded against the report.
const sampleManifest = `
pipeline "daily_etl" {
  work_unit "build_report" {
    materializes {
      key  = "s3://reports/daily.csv"
      name = "Daily Report"
    }
    depends_on {
      key = "s3://lake/raw.csv"
    }
  }

  run "build_report" {
    metadata "s3://reports/daily.csv" {
      fields = {
        row_count = 1042
      }
    }
  }
}
`

// runCLI executes the built binary with an isolated HOME so a developer's
// ~/.assetline.yaml never leaks into assertions.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = dir

	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "ASSETLINE_") || strings.HasPrefix(e, "HOME=") {
			continue
		}
		env = append(env, e)
	}
	env = append(env, "HOME="+t.TempDir())
	cmd.Env = env

	out, err := cmd.CombinedOutput()
	return string(out), err
}

// writeManifest drops src into dir and returns its path.
func writeManifest(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "pipeline.hcl")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

// makeBucket provisions a bucket in LocalStack.
func makeBucket(t *testing.T, name string) *s3.Client {
	t.Helper()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	_, err := client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		t.Fatalf("Failed to create bucket %s: %v", name, err)
	}
	return client
}

// listKeys returns every object key under prefix.
func listKeys(t *testing.T, client *s3.Client, bucket, prefix string) []string {
	t.Helper()
	out, err := client.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		t.Fatalf("Failed to list s3://%s/%s: %v", bucket, prefix, err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, *obj.Key)
	}
	return keys
}
