package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/reelforge/reelforge/config"
	"github.com/reelforge/reelforge/internal/api/v1/handlers"
	"github.com/reelforge/reelforge/internal/api/v1/services"
	"github.com/reelforge/reelforge/internal/app"
	"github.com/reelforge/reelforge/internal/approval"
	"github.com/reelforge/reelforge/internal/constants"
	"github.com/reelforge/reelforge/internal/db"
	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/music"
	"github.com/reelforge/reelforge/internal/notify"
	"github.com/reelforge/reelforge/internal/orchestrator"
	"github.com/reelforge/reelforge/internal/pipeline"
	"github.com/reelforge/reelforge/internal/providers"
	"github.com/reelforge/reelforge/internal/providers/beam"
	openaiprovider "github.com/reelforge/reelforge/internal/providers/openai"
	"github.com/reelforge/reelforge/internal/providers/storage"
)

const approvalRetention = 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables")
	}
	logger.Initialize()

	database, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
		Port:     envInt("DB_PORT", db.DefaultPort),
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	jobRepo := repos.NewJobRepository(database)
	approvalRepo := repos.NewApprovalRepository(database)
	trackRepo := repos.NewTrackRepository(database)

	openaiClient, err := openaiprovider.NewClient(
		os.Getenv(constants.EnvOpenAIAPIKey),
		config.GetEnv("OPENAI_CHAT_MODEL", openaiprovider.DefaultChatModel),
	)
	if err != nil {
		logger.Fatalf("Failed to create OpenAI client: %v", err)
	}

	beamClient, err := beam.NewClient(
		os.Getenv(constants.EnvBeamBaseURL),
		os.Getenv(constants.EnvBeamAuthToken),
	)
	if err != nil {
		logger.Fatalf("Failed to create beam client: %v", err)
	}

	// Voice synthesis falls back to the GPU host's TTS when the OpenAI API
	// rejects the request.
	voice := providers.NewFallback[providers.SpeechRequest, providers.SpeechResult](
		openaiprovider.NewSpeech(openaiClient),
		beam.NewVoiceSynthesizer(beamClient),
	).WithFailoverHook(func(primary, secondary string, err error) {
		logger.Warnf("Voice provider %s failed, trying %s: %v", primary, secondary, err)
	})

	// Site classification prefers the dedicated classifier, falling back to a
	// generic LLM prompt.
	categorizer := providers.NewFallback[string, string](
		beam.NewWebClassifier(beamClient),
		openaiprovider.NewCategoryClassifier(openaiClient),
	).WithFailoverHook(func(primary, secondary string, err error) {
		logger.Warnf("Classifier %s failed, trying %s: %v", primary, secondary, err)
	})

	// Animated visuals fall back to a still image when the video endpoint
	// fails or times out.
	var visual providers.Provider[providers.VisualRequest, providers.VisualResult] = beam.NewImageGenerator(beamClient)
	if config.GetEnv("REELFORGE_ANIMATED_VISUALS", "false") == "true" {
		visual = providers.NewFallback[providers.VisualRequest, providers.VisualResult](
			beam.NewVideoGenerator(beamClient),
			beam.NewImageGenerator(beamClient),
		).WithFailoverHook(func(primary, secondary string, err error) {
			logger.Warnf("Visual provider %s failed, trying %s: %v", primary, secondary, err)
		})
	}

	// The previous render endpoint revision stays deployed as the fallback
	// tier while the current one bakes.
	renderer := providers.NewFallback[*models.RenderManifest, providers.RenderResult](
		beam.NewRenderer(beamClient, ""),
		beam.NewRenderer(beamClient, "/ffmpeg-render-v22"),
	).WithFailoverHook(func(primary, secondary string, err error) {
		logger.Warnf("Renderer %s failed, trying %s: %v", primary, secondary, err)
	})

	var uploader storage.Uploader
	if bucket := os.Getenv(constants.EnvS3Bucket); bucket != "" {
		s3Uploader, err := storage.NewS3Uploader(context.Background(), bucket,
			os.Getenv(constants.EnvS3Prefix))
		if err != nil {
			logger.Fatalf("Failed to create S3 uploader: %v", err)
		}
		uploader = s3Uploader
	} else {
		logger.Warn("No S3 bucket configured, finished videos stay on the render host")
	}

	channel := notify.LogChannel{}
	gate := approval.NewGate(approvalRepo, channel)

	deps := &pipeline.Deps{
		Jobs:         jobRepo,
		Gate:         gate,
		Transcriber:  openaiprovider.NewTranscriber(openaiClient),
		Intent:       openaiprovider.NewIntentClassifier(openaiClient),
		Planner:      openaiprovider.NewPlanner(openaiClient),
		Script:       openaiprovider.NewScriptGenerator(openaiClient),
		Translator:   openaiprovider.NewTranslator(openaiClient),
		Voice:        voice,
		Visual:       visual,
		Renderer:     renderer,
		Music:        music.NewSelector(trackRepo, nil, beam.NewMusicGenerator(beamClient)),
		SiteAnalyzer: openaiprovider.NewSiteAnalyzer(openaiClient),
		Categorizer:  categorizer,
	}

	orch := orchestrator.New(jobRepo, deps, uploader, notify.NewWebhook(), channel)
	supervisor := orchestrator.NewSupervisor(orch)

	if count, err := supervisor.ResumeUnfinished(context.Background()); err != nil {
		logger.Errorf("Failed to resume unfinished jobs: %v", err)
	} else if count > 0 {
		logger.Infof("Relaunched %d unfinished jobs", count)
	}
	go drainFailures(supervisor)
	go gcApprovals(approvalRepo)

	jobService := services.NewJobService(jobRepo, supervisor)
	application := app.New(
		handlers.NewJobHandler(jobService),
		handlers.NewApprovalHandler(gate),
	)

	port := config.GetEnv(constants.EnvServerPort, "8080")
	logger.Infof("Starting server on port %s", port)
	if err := application.Listen(":" + port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

func drainFailures(supervisor *orchestrator.Supervisor) {
	for err := range supervisor.Failures() {
		logger.Errorf("Job failed: %v", err)
	}
}

func gcApprovals(approvals *repos.ApprovalRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		removed, err := approvals.GC(context.Background(), approvalRetention)
		if err != nil {
			logger.Warnf("Approval GC failed: %v", err)
			continue
		}
		if removed > 0 {
			logger.Infof("Approval GC removed %d stale records", removed)
		}
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warnf("Invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}
