// Package ses registers verified sending domains as Amazon SES identities
// that sign with the customer's own DKIM key.
package ses

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/domain"
)

// identityAPI is the subset of the SES v2 client used here.
type identityAPI interface {
	CreateEmailIdentity(ctx context.Context, in *sesv2.CreateEmailIdentityInput, opts ...func(*sesv2.Options)) (*sesv2.CreateEmailIdentityOutput, error)
	PutEmailIdentityDkimSigningAttributes(ctx context.Context, in *sesv2.PutEmailIdentityDkimSigningAttributesInput, opts ...func(*sesv2.Options)) (*sesv2.PutEmailIdentityDkimSigningAttributesOutput, error)
	DeleteEmailIdentity(ctx context.Context, in *sesv2.DeleteEmailIdentityInput, opts ...func(*sesv2.Options)) (*sesv2.DeleteEmailIdentityOutput, error)
}

// Client is an AWS SES v2 identity registrar.
type Client struct {
	client identityAPI
	region string
}

// NewClient creates a new SES API client
func NewClient(ctx context.Context, cfg appconfig.SESConfig) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Client{client: sesv2.NewFromConfig(awsCfg), region: cfg.Region}, nil
}

func newWithAPI(api identityAPI, region string) *Client {
	return &Client{client: api, region: region}
}

func signingAttributes(d *domain.SendingDomain, selector string) *types.DkimSigningAttributes {
	return &types.DkimSigningAttributes{
		DomainSigningPrivateKey: aws.String(domain.StripPEM(d.DKIMPrivateKey)),
		DomainSigningSelector:   aws.String(selector),
	}
}

// Register creates the domain identity with BYODKIM signing. An identity
// that already exists has its signing key replaced instead.
func (c *Client) Register(ctx context.Context, d *domain.SendingDomain, selector string) error {
	_, err := c.client.CreateEmailIdentity(ctx, &sesv2.CreateEmailIdentityInput{
		EmailIdentity:         aws.String(d.Name),
		DkimSigningAttributes: signingAttributes(d, selector),
	})
	if err == nil {
		log.Printf("[SES] Registered identity %s in %s", d.Name, c.region)
		return nil
	}

	var exists *types.AlreadyExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("create identity %s: %w", d.Name, err)
	}

	_, err = c.client.PutEmailIdentityDkimSigningAttributes(ctx, &sesv2.PutEmailIdentityDkimSigningAttributesInput{
		EmailIdentity:           aws.String(d.Name),
		SigningAttributesOrigin: types.DkimSigningAttributesOriginExternal,
		SigningAttributes:       signingAttributes(d, selector),
	})
	if err != nil {
		return fmt.Errorf("update identity %s signing: %w", d.Name, err)
	}
	log.Printf("[SES] Updated DKIM signing for existing identity %s", d.Name)
	return nil
}

// Deregister deletes the identity. A missing identity is not an error.
func (c *Client) Deregister(ctx context.Context, name string) error {
	_, err := c.client.DeleteEmailIdentity(ctx, &sesv2.DeleteEmailIdentityInput{
		EmailIdentity: aws.String(name),
	})
	var missing *types.NotFoundException
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("delete identity %s: %w", name, err)
	}
	return nil
}
