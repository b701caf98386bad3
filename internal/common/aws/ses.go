// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// LoadConfig resolves credentials the default way (env, shared files, role).
func LoadConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return sdkaws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// SESAPI is the part of *ses.Client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESClient struct {
	api  SESAPI
	from string
}

func NewSESClient(cfg sdkaws.Config, from string) *SESClient {
	return NewSESClientFromAPI(ses.NewFromConfig(cfg), from)
}

func NewSESClientFromAPI(api SESAPI, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// SendText sends a plain-text UTF-8 e-mail and returns the SES message ID.
func (s *SESClient) SendText(ctx context.Context, to, subject, body string) (string, error) {
	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: sdkaws.String(subject), Charset: sdkaws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: sdkaws.String(body), Charset: sdkaws.String("UTF-8")},
			},
		},
		Source: sdkaws.String(s.from),
	})
	if err != nil {
		return "", fmt.Errorf("ses send email: %w", err)
	}
	return sdkaws.ToString(out.MessageId), nil
}
