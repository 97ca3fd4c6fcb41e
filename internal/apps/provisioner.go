package apps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/appcatalog/internal/bots"
	"github.com/gogotex/appcatalog/internal/config"
	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/locks"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/users"
	"github.com/gogotex/appcatalog/pkg/logger"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/google/uuid"
)

// TokenIssuer signs the credentials stored on a new bot user.
type TokenIssuer interface {
	IssueToken(u *models.User, expiry models.JWTTokenExpiry) (*models.JWTAuthMechanism, error)
}

// BotName is the deterministic bot name for an application.
func BotName(appName string) string { return appName + "Bot" }

// BotProvisioner makes sure every application has a bot user and a bot
// entity. Calls for the same application are serialized by the locker, and
// the unique name constraint of the stores settles races between processes.
type BotProvisioner struct {
	users    users.UserRepository
	bots     bots.Repository
	registry *entity.Registry
	tokens   TokenIssuer
	locker   locks.Locker
	domain   string
	roleName string
	now      func() time.Time
}

func NewBotProvisioner(u users.UserRepository, b bots.Repository, registry *entity.Registry, tokens TokenIssuer, locker locks.Locker, cfg config.AppsConfig) *BotProvisioner {
	return &BotProvisioner{
		users:    u,
		bots:     b,
		registry: registry,
		tokens:   tokens,
		locker:   locker,
		domain:   cfg.BotEmailDomain,
		roleName: cfg.BotRoleName,
		now:      time.Now,
	}
}

// EnsureBot returns a reference to the application's bot, creating the bot
// user and bot entity when they do not exist yet.
func (p *BotProvisioner) EnsureBot(ctx context.Context, app *models.App) (*models.EntityReference, error) {
	if app == nil || app.Name == "" {
		return nil, fmt.Errorf("%w: application name is required", ErrInvalid)
	}
	botName := BotName(app.Name)

	release, err := p.locker.Acquire(ctx, "bot:"+botName)
	if err != nil {
		return nil, fmt.Errorf("provision %s: %w", botName, err)
	}
	defer release()

	user, err := p.ensureUser(ctx, app, botName)
	if err != nil {
		return nil, err
	}
	bot, err := p.ensureBot(ctx, user, botName)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		logger.Errorw("bot provisioning returned no bot", "app", app.Name, "bot", botName)
		return nil, fmt.Errorf("%w: %s", ErrBotMissing, botName)
	}
	return bot.Reference(), nil
}

func (p *BotProvisioner) ensureUser(ctx context.Context, app *models.App, botName string) (*models.User, error) {
	existing, err := p.users.FindByName(ctx, botName, models.IncludeNonDeleted)
	if err == nil {
		metrics.BotProvisioning.WithLabelValues("user", "reused").Inc()
		return existing, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("lookup bot user %q: %w", botName, err)
	}

	role, err := p.registry.ReferenceByName(ctx, models.KindRole, p.roleName, models.IncludeNonDeleted)
	if err != nil {
		metrics.BotProvisioning.WithLabelValues("user", "failed").Inc()
		if errors.Is(err, entity.ErrNotFound) {
			logger.Errorw("bot role missing", "role", p.roleName, "bot", botName)
			return nil, fmt.Errorf("%w: %q", ErrBotRoleMissing, p.roleName)
		}
		return nil, fmt.Errorf("resolve role %q: %w", p.roleName, err)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      botName,
		Email:     fmt.Sprintf("%s@%s", botName, p.domain),
		IsAdmin:   false,
		IsBot:     true,
		Roles:     []models.EntityReference{*role},
		UpdatedBy: "admin",
	}
	if app.Owner != nil {
		owner := *app.Owner
		user.Owner = &owner
	}
	mech, err := p.tokens.IssueToken(user, models.JWTTokenExpiryUnlimited)
	if err != nil {
		metrics.BotProvisioning.WithLabelValues("user", "failed").Inc()
		logger.Errorw("bot token issue failed", "bot", botName, "error", err)
		return nil, fmt.Errorf("%w for %q: %w", ErrTokenIssue, botName, err)
	}
	user.AuthenticationMechanism = &models.AuthenticationMechanism{AuthType: models.AuthTypeJWT, Config: mech}

	created, err := p.users.Create(ctx, user)
	if err == nil {
		metrics.BotProvisioning.WithLabelValues("user", "created").Inc()
		logger.Infof("created bot user %s for application %s", botName, app.Name)
		return created, nil
	}
	if !errors.Is(err, entity.ErrAlreadyExists) {
		metrics.BotProvisioning.WithLabelValues("user", "failed").Inc()
		return nil, fmt.Errorf("%w: user %q: %w", ErrProvisioning, botName, err)
	}
	// another process created it between our lookup and insert
	metrics.BotProvisioning.WithLabelValues("user", "conflict").Inc()
	existing, ferr := p.users.FindByName(ctx, botName, models.IncludeNonDeleted)
	if ferr != nil {
		return nil, fmt.Errorf("%w: user %q: %w", ErrProvisioning, botName, ferr)
	}
	return existing, nil
}

func (p *BotProvisioner) ensureBot(ctx context.Context, user *models.User, botName string) (*models.Bot, error) {
	existing, err := p.bots.FindByName(ctx, botName, models.IncludeNonDeleted)
	if err == nil {
		metrics.BotProvisioning.WithLabelValues("bot", "reused").Inc()
		return existing, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("lookup bot %q: %w", botName, err)
	}

	bot := &models.Bot{
		ID:                 uuid.NewString(),
		Name:               user.Name,
		FullyQualifiedName: user.Name,
		BotUser:            user.Reference(),
		Provider:           models.ProviderUser,
		UpdatedBy:          "admin",
		UpdatedAt:          p.now().UTC(),
	}
	created, err := p.bots.Create(ctx, bot)
	if err == nil {
		metrics.BotProvisioning.WithLabelValues("bot", "created").Inc()
		return created, nil
	}
	if !errors.Is(err, entity.ErrAlreadyExists) {
		metrics.BotProvisioning.WithLabelValues("bot", "failed").Inc()
		return nil, fmt.Errorf("%w: bot %q: %w", ErrProvisioning, botName, err)
	}
	metrics.BotProvisioning.WithLabelValues("bot", "conflict").Inc()
	existing, ferr := p.bots.FindByName(ctx, botName, models.IncludeNonDeleted)
	if ferr != nil {
		return nil, fmt.Errorf("%w: bot %q: %w", ErrProvisioning, botName, ferr)
	}
	return existing, nil
}
