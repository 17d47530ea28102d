package publishers

import (
	"errors"
	"fmt"
	"strings"
)

// Supported publisher types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Exactly the block
// matching Type is used.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// SQSPublisherConfig targets an SQS queue.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

// SNSPublisherConfig targets an SNS topic.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

// PubSubPublisherConfig targets a Google Cloud Pub/Sub topic. Application
// default credentials are used when CredentialsFile is empty.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig targets a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkBlock is implemented by every per-type block.
type sinkBlock interface {
	validate() error
}

func (c *SQSPublisherConfig) normalized() *SQSPublisherConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.QueueURL = strings.TrimSpace(out.QueueURL)
	out.Region = strings.TrimSpace(out.Region)
	return &out
}

func (c *SQSPublisherConfig) validate() error {
	return requireFields(TypeSQS, field{"uri", c.QueueURL}, field{"region", c.Region})
}

func (c *SNSPublisherConfig) normalized() *SNSPublisherConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.TopicARN = strings.TrimSpace(out.TopicARN)
	out.Region = strings.TrimSpace(out.Region)
	return &out
}

func (c *SNSPublisherConfig) validate() error {
	return requireFields(TypeSNS, field{"topic_arn", c.TopicARN}, field{"region", c.Region})
}

func (c *PubSubPublisherConfig) normalized() *PubSubPublisherConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.ProjectID = strings.TrimSpace(out.ProjectID)
	out.Topic = strings.TrimSpace(out.Topic)
	out.CredentialsFile = strings.TrimSpace(out.CredentialsFile)
	return &out
}

func (c *PubSubPublisherConfig) validate() error {
	return requireFields(TypePubSub, field{"project_id", c.ProjectID}, field{"topic", c.Topic})
}

func (c *HTTPPublisherConfig) normalized() *HTTPPublisherConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.URL = strings.TrimSpace(out.URL)
	out.Method = strings.ToUpper(strings.TrimSpace(out.Method))
	if out.Method == "" {
		out.Method = httpDefaultMethod
	}
	if out.TimeoutSeconds <= 0 {
		out.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(out.Headers))
	for k, v := range out.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	out.Headers = nil
	if len(headers) > 0 {
		out.Headers = headers
	}
	return &out
}

func (c *HTTPPublisherConfig) validate() error {
	return requireFields(TypeHTTP, field{"url", c.URL})
}

type field struct {
	name, value string
}

func requireFields(typ string, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, typ+"."+f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// normalized trims identifiers, lowercases the type, defaults Enabled to true
// and normalizes every block. Blocks are copied, never mutated in place.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	cfg.SQS = cfg.SQS.normalized()
	cfg.SNS = cfg.SNS.normalized()
	cfg.PubSub = cfg.PubSub.normalized()
	cfg.HTTP = cfg.HTTP.normalized()
	return cfg
}

// block returns the settings block selected by Type.
func (cfg PublisherConfig) block() (sinkBlock, error) {
	var (
		b       sinkBlock
		present bool
	)
	switch cfg.Type {
	case TypeSQS:
		b, present = cfg.SQS, cfg.SQS != nil
	case TypeSNS:
		b, present = cfg.SNS, cfg.SNS != nil
	case TypePubSub:
		b, present = cfg.PubSub, cfg.PubSub != nil
	case TypeHTTP:
		b, present = cfg.HTTP, cfg.HTTP != nil
	default:
		return nil, fmt.Errorf("unsupported type %q", cfg.Type)
	}
	if !present {
		return nil, fmt.Errorf("%s config block is required", cfg.Type)
	}
	return b, nil
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	}
	b, err := cfg.block()
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	if err := b.validate(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
