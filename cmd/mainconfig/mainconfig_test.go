package mainconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/autoatende/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:          "eu-west-1",
		AWSAccessKeyID:     "AKIATEST",
		AWSSecretAccessKey: "secret",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "eu-west-1" {
		t.Fatalf("region = %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIATEST" {
		t.Fatalf("access key = %q", creds.AccessKeyID)
	}
}

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}

	awsCfg, err := Loader(cfg)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.EndpointResolverWithOptions == nil {
		t.Fatal("expected endpoint resolver")
	}
	endpoint, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(bedrockruntime.ServiceID, "us-east-1")
	if err != nil {
		t.Fatalf("resolve bedrock endpoint: %v", err)
	}
	if endpoint.URL != "http://localhost:4566" {
		t.Fatalf("endpoint = %q", endpoint.URL)
	}

	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint("S3", "us-east-1")
	var notFound *aws.EndpointNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected EndpointNotFoundError for other services, got %v", err)
	}
}
