package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
)

// loadAWSConfig resolves credentials through the default chain for region.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// messageAttributes converts the event attributes into the service's
// attribute type. SQS and SNS share the shape but not the Go type.
func messageAttributes[V any](evt Event, build func(dataType, value *string) V) map[string]V {
	attrs := evt.Attributes()
	out := make(map[string]V, len(attrs))
	for name, value := range attrs {
		if value == "" {
			continue
		}
		dataType := "String"
		if name == "entry_index" {
			dataType = "Number"
		}
		out[name] = build(aws.String(dataType), aws.String(value))
	}
	return out
}
