package user

import (
	"time"
)

// User is the profile copy written to the users table at registration.
type User struct {
	UserID    string    `json:"userId" gorm:"primaryKey;column:user_id;type:text" dynamodbav:"userId"`
	Username  string    `json:"username" gorm:"column:username;type:text;not null" dynamodbav:"username"`
	Email     string    `json:"email" gorm:"column:email;type:text" dynamodbav:"email"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime:false" dynamodbav:"createdAt"`
}

// SignUpResult is returned to clients verbatim after registration.
type SignUpResult struct {
	UserConfirmed bool   `json:"UserConfirmed"`
	UserSub       string `json:"UserSub"`
}

// Tokens holds the credentials issued by a successful sign-in.
type Tokens struct {
	AccessToken  string `json:"AccessToken"`
	ExpiresIn    int32  `json:"ExpiresIn"`
	IdToken      string `json:"IdToken,omitempty"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType"`
}

// AuthResult is returned to clients verbatim after sign-in.
type AuthResult struct {
	AuthenticationResult *Tokens          `json:"AuthenticationResult,omitempty"`
	ChallengeName        string            `json:"ChallengeName,omitempty"`
	ChallengeParameters  map[string]string `json:"ChallengeParameters"`
	Session              string            `json:"Session,omitempty"`
}

// Claims are the verified facts about a bearer credential.
type Claims struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
}
