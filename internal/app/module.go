package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/subguard/subguard/internal/app/api/server"
	"github.com/subguard/subguard/internal/app/service/activity"
	"github.com/subguard/subguard/internal/app/service/auth"
	"github.com/subguard/subguard/internal/app/service/execution"
	"github.com/subguard/subguard/internal/app/service/negotiation"
	"github.com/subguard/subguard/internal/app/service/optimizer"
	"github.com/subguard/subguard/internal/app/service/statistics"
	"github.com/subguard/subguard/internal/app/service/subscription"
	"github.com/subguard/subguard/internal/platform/ai"
	"github.com/subguard/subguard/internal/platform/db"
	"github.com/subguard/subguard/pkg/config"
	"github.com/subguard/subguard/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	ai.Module,
	server.Module,
	auth.Module,
	subscription.Module,
	optimizer.Module,
	execution.Module,
	negotiation.Module,
	activity.Module,
	statistics.Module,
)
