package models

import "time"

// AuthType selects how a user authenticates.
type AuthType string

const (
	AuthTypeJWT   AuthType = "JWT"
	AuthTypeBasic AuthType = "BASIC"
	AuthTypeSSO   AuthType = "SSO"
)

// JWTTokenExpiry is the lifetime policy of an issued bot token, in days or Unlimited.
type JWTTokenExpiry string

const (
	JWTTokenExpiry7         JWTTokenExpiry = "7"
	JWTTokenExpiry30        JWTTokenExpiry = "30"
	JWTTokenExpiry60        JWTTokenExpiry = "60"
	JWTTokenExpiry90        JWTTokenExpiry = "90"
	JWTTokenExpiryUnlimited JWTTokenExpiry = "Unlimited"
)

// JWTAuthMechanism carries the token material of a JWT-authenticated user.
type JWTAuthMechanism struct {
	JWTToken          string         `bson:"jwtToken,omitempty" json:"JWTToken,omitempty"`
	JWTTokenExpiry    JWTTokenExpiry `bson:"jwtTokenExpiry" json:"JWTTokenExpiry"`
	JWTTokenExpiresAt *time.Time     `bson:"jwtTokenExpiresAt,omitempty" json:"JWTTokenExpiresAt,omitempty"`
}

type AuthenticationMechanism struct {
	AuthType AuthType          `bson:"authType" json:"authType"`
	Config   *JWTAuthMechanism `bson:"config,omitempty" json:"config,omitempty"`
}

// User is an authenticatable identity. Bot users are service accounts created
// for applications and never administrators.
type User struct {
	ID                      string                   `bson:"_id" json:"id"`
	Name                    string                   `bson:"name" json:"name"`
	Email                   string                   `bson:"email" json:"email"`
	IsAdmin                 bool                     `bson:"isAdmin" json:"isAdmin"`
	IsBot                   bool                     `bson:"isBot" json:"isBot"`
	Roles                   []EntityReference        `bson:"roles,omitempty" json:"roles,omitempty"`
	Owner                   *EntityReference         `bson:"owner,omitempty" json:"owner,omitempty"`
	AuthenticationMechanism *AuthenticationMechanism `bson:"authenticationMechanism,omitempty" json:"authenticationMechanism,omitempty"`
	UpdatedBy               string                   `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	Deleted                 bool                     `bson:"deleted" json:"deleted"`
	CreatedAt               time.Time                `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time                `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) Reference() *EntityReference {
	return &EntityReference{ID: u.ID, Type: KindUser, Name: u.Name, FullyQualifiedName: u.Name, Deleted: u.Deleted}
}
