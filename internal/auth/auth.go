// Package auth signs back-office staff in against Cognito and validates the
// access tokens it issues.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrNotConfigured      = errors.New("cognito auth not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid access token")
)

type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

type Session struct {
	AccessToken string
	ExpiresIn   int
}

type Claims struct {
	Subject string
	Email   string
}

type Cognito struct {
	client   CognitoAPI
	clientID string

	jwksCache *jwk.Cache
	jwksURL   string
}

func NewCognito(client CognitoAPI, clientID string, jwksCache *jwk.Cache, jwksURL string) *Cognito {
	return &Cognito{
		client:    client,
		clientID:  clientID,
		jwksCache: jwksCache,
		jwksURL:   jwksURL,
	}
}

// NewJWKSCache registers the issuer's key set with a background-refreshing
// cache and returns the cache with the URL it was registered under.
func NewJWKSCache(ctx context.Context, issuerURL string) (*jwk.Cache, string, error) {
	if issuerURL == "" {
		return nil, "", nil
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimRight(issuerURL, "/"))

	if err := cache.Register(ctx, jwksURL); err != nil {
		return nil, "", fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	return cache, jwksURL, nil
}

func (c *Cognito) Login(ctx context.Context, email, password string) (*Session, error) {
	if c.client == nil || c.clientID == "" {
		return nil, ErrNotConfigured
	}

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	resp, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: cognitotypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		var notAuthorized *cognitotypes.NotAuthorizedException
		var userNotFound *cognitotypes.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &userNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to initiate auth: %w", err)
	}

	// challenges such as NEW_PASSWORD_REQUIRED come back without a result
	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		return nil, ErrInvalidCredentials
	}

	return &Session{
		AccessToken: aws.ToString(resp.AuthenticationResult.AccessToken),
		ExpiresIn:   int(resp.AuthenticationResult.ExpiresIn),
	}, nil
}

func (c *Cognito) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	if c.jwksCache == nil {
		return nil, ErrNotConfigured
	}

	set, err := c.jwksCache.Lookup(ctx, c.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &Claims{Subject: subject}

	// Cognito access tokens carry username rather than email
	if err := token.Get("email", &claims.Email); err != nil {
		_ = token.Get("username", &claims.Email)
	}

	return claims, nil
}
