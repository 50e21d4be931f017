// Package awsconfig centralizes AWS SDK configuration for the S3
// journal and artifact store.
package awsconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/DrSkyle/assetline/pkg/version"
)

// Load resolves AWS configuration through the standard credential
// chain. Region and profile are optional overrides; an AWS_ENDPOINT_URL
// environment variable redirects every call, which is how tests point
// the SDK at LocalStack.
func Load(ctx context.Context, region, profile string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}

	// Tag every request so journal and artifact traffic is attributable
	// in server-side access logs.
	cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("AssetlineUserAgent", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
			middleware.BuildOutput, middleware.Metadata, error,
		) {
			if req, ok := input.Request.(*smithyhttp.Request); ok {
				ua := req.Header.Get("User-Agent")
				tag := fmt.Sprintf("%s/%s", version.AppName, version.Current)
				if ua == "" {
					ua = tag
				} else {
					ua = fmt.Sprintf("%s %s", ua, tag)
				}
				req.Header.Set("User-Agent", ua)
			}
			return next.HandleBuild(ctx, input)
		}), middleware.After)
	})

	return cfg, nil
}
