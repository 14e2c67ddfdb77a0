package main

import (
	"database/sql"
	"strings"

	"letscode/internal/api"
	"letscode/internal/app/service"
	"letscode/internal/app/worker"
	"letscode/internal/domain/repository"
	"letscode/internal/platform/config"
	"letscode/internal/platform/judge"
	"letscode/internal/platform/queue"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// app holds everything built from config, database and Redis handles.
type app struct {
	services api.Services
	progress *service.ProgressService
	queue    *queue.ProgressQueue
	rdb      *redis.Client
}

func newApp(cfg *config.Config, db *sql.DB, rdb *redis.Client) *app {
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)
	notificationRepo := repository.NewPgNotificationRepository(db)
	txRunner := repository.NewTxRunner(db)

	progressQueue := queue.NewProgressQueue(rdb, cfg.ProgressQueueName)
	broadcaster := queue.NewBroadcaster(rdb, cfg.DailyNotificationChan)

	judgeClient := judge.NewClient(judge.Options{
		BaseURL:         cfg.Judge0URL,
		APIKey:          cfg.Judge0APIKey,
		APIHost:         cfg.Judge0APIHost,
		AuthToken:       cfg.Judge0AuthToken,
		RequestTimeout:  cfg.JudgeRequestTimeout,
		DispatchTimeout: cfg.JudgeDispatchTimeout,
	})

	var guard service.RunGuard
	switch strings.ToLower(cfg.RunGuardBackend) {
	case "store":
		guard = service.NewStoreRunGuard(submissionRepo, cfg.RunCooldown)
	default:
		guard = service.NewRedisRunGuard(rdb, cfg.RunCooldown)
	}
	log.Info().Str("backend", cfg.RunGuardBackend).Dur("cooldown", cfg.RunCooldown).Msg("Run guard configured")

	progressService := service.NewProgressService(txRunner, userRepo, submissionRepo, progressQueue)

	return &app{
		services: api.Services{
			Auth:          service.NewAuthService(userRepo),
			Users:         service.NewUserService(userRepo),
			Problems:      service.NewProblemService(problemRepo, txRunner),
			DailyQuestion: service.NewDailyQuestionService(txRunner, problemRepo, notificationRepo, broadcaster, cfg.DailyQuestionWindow, cfg.FrontendURL),
			Evaluation:    service.NewEvaluationService(userRepo, problemRepo, submissionRepo, judgeClient, guard, progressService),
			Submissions:   service.NewSubmissionService(submissionRepo),
			Notifications: service.NewNotificationService(notificationRepo, broadcaster),
		},
		progress: progressService,
		queue:    progressQueue,
		rdb:      rdb,
	}
}

func (a *app) progressWorker(cfg *config.Config) *worker.ProgressWorker {
	return worker.NewProgressWorker(a.rdb, a.queue, a.progress, worker.Options{
		SweepInterval: cfg.ProgressSweepInterval,
		SweepBatch:    cfg.ProgressSweepBatchSize,
	})
}
