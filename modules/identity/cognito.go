package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/example/serverless-task-api/domain/user"
)

// CognitoAPI is the subset of the Cognito user pool client used by CognitoProvider.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

// CognitoProvider delegates to an AWS Cognito user pool.
type CognitoProvider struct {
	client     CognitoAPI
	userPoolID string
	clientID   string
}

var _ Provider = (*CognitoProvider)(nil)

// OpenCognitoProvider loads the default AWS configuration for region.
func OpenCognitoProvider(ctx context.Context, region, userPoolID, clientID string) (*CognitoProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewCognitoProvider(cip.NewFromConfig(cfg), userPoolID, clientID), nil
}

// NewCognitoProvider wraps an existing client.
func NewCognitoProvider(client CognitoAPI, userPoolID, clientID string) *CognitoProvider {
	return &CognitoProvider{client: client, userPoolID: userPoolID, clientID: clientID}
}

// Name returns "cognito".
func (p *CognitoProvider) Name() string {
	return "cognito"
}

// SignUp registers the user with an email attribute.
func (p *CognitoProvider) SignUp(ctx context.Context, username, password, email string) (*user.SignUpResult, error) {
	out, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(username),
		Password: aws.String(password),
		UserAttributes: []ciptypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cognito sign-up: %w", err)
	}
	return &user.SignUpResult{
		UserConfirmed: out.UserConfirmed,
		UserSub:       aws.ToString(out.UserSub),
	}, nil
}

// ConfirmSignUp confirms the user administratively.
func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, username string) error {
	_, err := p.client.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("cognito confirm sign-up: %w", err)
	}
	return nil
}

// InitiateAuth runs the admin password flow.
func (p *CognitoProvider) InitiateAuth(ctx context.Context, username, password string) (*user.AuthResult, error) {
	out, err := p.client.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		AuthFlow:   ciptypes.AuthFlowTypeAdminNoSrpAuth,
		ClientId:   aws.String(p.clientID),
		UserPoolId: aws.String(p.userPoolID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cognito initiate auth: %w", err)
	}

	result := &user.AuthResult{
		ChallengeName:       string(out.ChallengeName),
		ChallengeParameters: out.ChallengeParameters,
		Session:             aws.ToString(out.Session),
	}
	if result.ChallengeParameters == nil {
		result.ChallengeParameters = map[string]string{}
	}
	if ar := out.AuthenticationResult; ar != nil {
		result.AuthenticationResult = &user.Tokens{
			AccessToken:  aws.ToString(ar.AccessToken),
			ExpiresIn:    ar.ExpiresIn,
			IdToken:      aws.ToString(ar.IdToken),
			RefreshToken: aws.ToString(ar.RefreshToken),
			TokenType:    aws.ToString(ar.TokenType),
		}
	}
	return result, nil
}

// VerifyToken asks the pool who owns an access token.
func (p *CognitoProvider) VerifyToken(ctx context.Context, token string) (*user.Claims, error) {
	out, err := p.client.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(token)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotAuthorizedException" {
			if strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "expired") {
				return nil, ErrExpiredToken
			}
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("cognito get user: %w", err)
	}

	claims := &user.Claims{
		Username: aws.ToString(out.Username),
		TokenUse: TokenUseAccess,
	}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			claims.Subject = aws.ToString(attr.Value)
		case "email":
			claims.Email = aws.ToString(attr.Value)
		}
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Close is a no-op for the SDK client.
func (p *CognitoProvider) Close() error {
	return nil
}
