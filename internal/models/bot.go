package models

import "time"

// ProviderType tells whether an entity was created by users or shipped by the system.
type ProviderType string

const (
	ProviderUser   ProviderType = "user"
	ProviderSystem ProviderType = "system"
)

// Bot is a non-human identity backed by a bot User.
type Bot struct {
	ID                 string           `bson:"_id" json:"id"`
	Name               string           `bson:"name" json:"name"`
	FullyQualifiedName string           `bson:"fullyQualifiedName" json:"fullyQualifiedName"`
	BotUser            *EntityReference `bson:"botUser,omitempty" json:"botUser,omitempty"`
	Provider           ProviderType     `bson:"provider" json:"provider"`
	UpdatedBy          string           `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt          time.Time        `bson:"updatedAt" json:"updatedAt"`
	Deleted            bool             `bson:"deleted" json:"deleted"`
}

func (b *Bot) Reference() *EntityReference {
	return &EntityReference{ID: b.ID, Type: KindBot, Name: b.Name, FullyQualifiedName: b.FullyQualifiedName, Deleted: b.Deleted}
}

// Role is an authorization role assignable to users.
type Role struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Deleted     bool      `bson:"deleted" json:"deleted"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (r *Role) Reference() *EntityReference {
	return &EntityReference{ID: r.ID, Type: KindRole, Name: r.Name, FullyQualifiedName: r.Name, Deleted: r.Deleted}
}
